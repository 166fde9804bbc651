/*
	k1-fwuploader
	Copyright (c) 2024 CryoZ.  All right reserved.

	This library is free software; you can redistribute it and/or
	modify it under the terms of the GNU Lesser General Public
	License as published by the Free Software Foundation; either
	version 2.1 of the License, or (at your option) any later version.

	This library is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
	Lesser General Public License for more details.

	You should have received a copy of the GNU Lesser General Public
	License along with this library; if not, write to the Free Software
	Foundation, Inc., 51 Franklin St, Fifth Floor, Boston, MA  02110-1301  USA
*/

package flasher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandFrames(t *testing.T) {
	// The wire format of the four command frames is fixed.
	require.Equal(t, []byte{0x00, 0xff}, command(cmdVersion))
	require.Equal(t, []byte{0x01, 0xfe}, command(cmdUpdate))
	require.Equal(t, []byte{0x02, 0xfd}, command(cmdAppStart))
	require.Equal(t, []byte{0x03, 0xfc}, command(cmdSectorSize))
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	frame := AppendChecksum(payload)
	require.Len(t, frame, len(payload)+1)

	decoded, err := ValidateFrame(frame)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestAppendChecksumDoesNotAliasPayload(t *testing.T) {
	payload := make([]byte, 2, 8)
	payload[0] = 0x10
	payload[1] = 0x20

	frame := AppendChecksum(payload)
	frame[0] = 0x99
	require.Equal(t, byte(0x10), payload[0])
}

func TestValidateFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr error
	}{
		{"empty", nil, ErrShortFrame},
		{"single byte", []byte{0x75}, ErrShortFrame},
		{"valid ack", []byte{0x75, 0x8a}, nil},
		{"corrupted checksum", []byte{0x75, 0x8b}, ErrBadChecksum},
		{"corrupted payload", []byte{0x74, 0x8a}, ErrBadChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFrame(tt.frame)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
