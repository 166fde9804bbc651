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

import "errors"

var (
	// ErrShortFrame is returned when a frame is too short to carry a
	// payload and its checksum byte.
	ErrShortFrame = errors.New("frame too short")

	// ErrBadChecksum is returned when the trailing checksum byte of a
	// frame does not match its payload.
	ErrBadChecksum = errors.New("checksum mismatch")
)

// Command frames of the bootloader protocol. Every command is a single
// byte followed by its checksum; the handshake probe is the one exception
// and goes on the wire without checksum framing.
const (
	cmdVersion    byte = 0x00
	cmdUpdate     byte = 0x01
	cmdAppStart   byte = 0x02
	cmdSectorSize byte = 0x03
)

// Status bytes of the bootloader protocol. ack doubles as the handshake
// probe and echo byte.
const (
	ack              byte = 0x75
	statusBadCRC     byte = 0x1f
	statusComplete   byte = 0x20
	statusWriteError byte = 0x21
)

// versionLength is the fixed payload length of the version response.
const versionLength = 25

// AppendChecksum returns the payload with its checksum byte appended,
// ready to go on the wire.
func AppendChecksum(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, payload...)
	return append(frame, Checksum(payload))
}

// command builds the two-byte frame for a single-byte command.
func command(cmd byte) []byte {
	return AppendChecksum([]byte{cmd})
}

// ValidateFrame checks the trailing checksum of a received frame and
// returns the payload without it.
func ValidateFrame(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, ErrShortFrame
	}
	payload := frame[:len(frame)-1]
	if Checksum(payload) != frame[len(frame)-1] {
		return nil, ErrBadChecksum
	}
	return payload, nil
}
