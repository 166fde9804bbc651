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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", nil, 0xff},
		{"version command", []byte{0x00}, 0xff},
		{"update command", []byte{0x01}, 0xfe},
		{"app start command", []byte{0x02}, 0xfd},
		{"sector size command", []byte{0x03}, 0xfc},
		{"ack", []byte{0x75}, 0x8a},
		{"wraps modulo 256", []byte{0xff, 0x02}, 0xfe},
		{"multi byte", []byte{0x01, 0x02, 0x03}, 0xf9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Checksum(tt.data))
		})
	}
}

func TestChecksumDefinition(t *testing.T) {
	// checksum(b) == (sum(b) mod 256) XOR 0xFF for arbitrary payloads.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		data := make([]byte, rng.Intn(4096))
		rng.Read(data)

		sum := 0
		for _, b := range data {
			sum += int(b)
		}
		require.Equal(t, byte(sum%256)^0xff, Checksum(data))
	}
}

func TestChecksumSelfValidation(t *testing.T) {
	// Recomputing over the payload of a framed message reproduces the
	// trailing checksum byte, which is exactly the validation step.
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		data := make([]byte, 1+rng.Intn(1024))
		rng.Read(data)

		framed := AppendChecksum(data)
		require.Equal(t, Checksum(data), framed[len(framed)-1])
		payload, err := ValidateFrame(framed)
		require.NoError(t, err)
		require.Equal(t, data, payload)
	}
}
