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
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// scriptPort is an in-memory serial.Port. Every Read consumes one scripted
// entry; an exhausted script or an empty entry behaves like a timeout
// (zero bytes, no error). Writes are recorded frame by frame.
type scriptPort struct {
	reads  [][]byte
	writes [][]byte
	closed bool
}

func (p *scriptPort) Read(buf []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, nil
	}
	chunk := p.reads[0]
	p.reads = p.reads[1:]
	return copy(buf, chunk), nil
}

func (p *scriptPort) Write(buf []byte) (int, error) {
	frame := make([]byte, len(buf))
	copy(frame, buf)
	p.writes = append(p.writes, frame)
	return len(buf), nil
}

func (p *scriptPort) Close() error {
	p.closed = true
	return nil
}

func (p *scriptPort) SetMode(mode *serial.Mode) error      { return nil }
func (p *scriptPort) SetReadTimeout(t time.Duration) error { return nil }
func (p *scriptPort) SetDTR(dtr bool) error                { return nil }
func (p *scriptPort) SetRTS(rts bool) error                { return nil }
func (p *scriptPort) Drain() error                         { return nil }
func (p *scriptPort) ResetInputBuffer() error              { return nil }
func (p *scriptPort) ResetOutputBuffer() error             { return nil }
func (p *scriptPort) Break(d time.Duration) error          { return nil }
func (p *scriptPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

// statusFrame builds a checksum-framed single-status response.
func statusFrame(status byte) []byte {
	return AppendChecksum([]byte{status})
}

func TestHandshake(t *testing.T) {
	tests := []struct {
		name  string
		reads [][]byte
		want  ResultKind
	}{
		{"echo confirms", [][]byte{{0x75}}, Ok},
		{"other byte rejects", [][]byte{{0x42}}, Rejected},
		{"timeout is inconclusive", nil, Inconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &scriptPort{reads: tt.reads}
			f := NewFlasher(port)

			kind, err := f.Handshake()
			require.NoError(t, err)
			require.Equal(t, tt.want, kind)
			require.Equal(t, [][]byte{{0x75}}, port.writes)
		})
	}
}

func TestGetVersion(t *testing.T) {
	identity := "CR4CU220812S11_200_v1.0.2"
	require.Len(t, identity, versionLength)

	port := &scriptPort{reads: [][]byte{AppendChecksum([]byte(identity))}}
	f := NewFlasher(port)

	version, kind, err := f.GetVersion()
	require.NoError(t, err)
	require.Equal(t, Ok, kind)
	require.True(t, version.Usable())
	require.Equal(t, identity, version.Raw)
	require.Equal(t, [][]byte{{0x00, 0xff}}, port.writes)
}

func TestGetVersionFragmentedResponse(t *testing.T) {
	identity := "CR4CU220812S11_200_v1.0.2"
	frame := AppendChecksum([]byte(identity))

	// The device may hand the 26 bytes to the driver in pieces.
	port := &scriptPort{reads: [][]byte{frame[:7], frame[7:20], frame[20:]}}
	f := NewFlasher(port)

	version, kind, err := f.GetVersion()
	require.NoError(t, err)
	require.Equal(t, Ok, kind)
	require.Equal(t, identity, version.Raw)
}

func TestGetVersionBlank(t *testing.T) {
	// 25 zero bytes with a matching checksum is a well-formed response
	// that means the application failed its integrity check.
	blank := AppendChecksum(make([]byte, versionLength))
	port := &scriptPort{reads: [][]byte{blank}}
	f := NewFlasher(port)

	version, kind, err := f.GetVersion()
	require.NoError(t, err)
	require.Equal(t, Rejected, kind)
	require.False(t, version.Usable())
	require.Empty(t, version.String())
}

func TestGetVersionInconclusive(t *testing.T) {
	corrupted := AppendChecksum([]byte("CR4CU220812S11_200_v1.0.2"))
	corrupted[3] ^= 0x01

	tests := []struct {
		name  string
		reads [][]byte
	}{
		{"timeout", nil},
		{"short read", [][]byte{{0x43, 0x52, 0x34}}},
		{"checksum mismatch", [][]byte{corrupted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &scriptPort{reads: tt.reads}
			f := NewFlasher(port)

			version, kind, err := f.GetVersion()
			require.NoError(t, err)
			require.Equal(t, Inconclusive, kind)
			require.Nil(t, version)
		})
	}
}

func TestVersionInfoFirmwareVersion(t *testing.T) {
	version := &VersionInfo{Raw: "CR4CU220812S11_200_v1.0.2"}
	parsed := version.FirmwareVersion()
	require.NotNil(t, parsed)
	require.Equal(t, "1.0.2", parsed.String())

	require.Nil(t, (&VersionInfo{}).FirmwareVersion())
	require.Nil(t, (&VersionInfo{Raw: "noversiontoken"}).FirmwareVersion())
}

func TestGetSectorSize(t *testing.T) {
	port := &scriptPort{reads: [][]byte{statusFrame(0x04)}}
	f := NewFlasher(port)

	size, kind, err := f.GetSectorSize()
	require.NoError(t, err)
	require.Equal(t, Ok, kind)
	require.Equal(t, byte(0x04), size)
	require.Equal(t, [][]byte{{0x03, 0xfc}}, port.writes)
}

func TestGetSectorSizeFailures(t *testing.T) {
	tests := []struct {
		name  string
		reads [][]byte
		want  ResultKind
	}{
		{"timeout", nil, Inconclusive},
		{"short read", [][]byte{{0x01}}, Inconclusive},
		{"checksum mismatch", [][]byte{{0x01, 0x00}}, Inconclusive},
		{"zero sector size", [][]byte{statusFrame(0x00)}, Rejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &scriptPort{reads: tt.reads}
			f := NewFlasher(port)

			_, kind, err := f.GetSectorSize()
			require.NoError(t, err)
			require.Equal(t, tt.want, kind)
		})
	}
}

func TestStartApp(t *testing.T) {
	tests := []struct {
		name  string
		reads [][]byte
		want  ResultKind
	}{
		{"started", [][]byte{statusFrame(0x75)}, Ok},
		{"refused", [][]byte{statusFrame(0x13)}, Rejected},
		{"timeout", nil, Inconclusive},
		{"corrupted response", [][]byte{{0x75, 0x00}}, Inconclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &scriptPort{reads: tt.reads}
			f := NewFlasher(port)

			kind, err := f.StartApp()
			require.NoError(t, err)
			require.Equal(t, tt.want, kind)
			require.Equal(t, [][]byte{{0x02, 0xfd}}, port.writes)
		})
	}
}

// flashScript builds the response script for a transfer of chunks
// acknowledgements: acks-1 times "continue", then the final status.
func flashScript(acks int, final byte) [][]byte {
	script := [][]byte{statusFrame(0x75), statusFrame(0x75)} // update request, size frame
	for i := 0; i < acks-1; i++ {
		script = append(script, statusFrame(0x75))
	}
	return append(script, statusFrame(final))
}

func TestFlashSuccessWithPartialChunk(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	image := make([]byte, 2*1024+512) // two full chunks and one partial
	rng.Read(image)

	port := &scriptPort{reads: flashScript(3, statusComplete)}
	f := NewFlasher(port)

	var progress [][2]int
	f.SetProgressCallback(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})

	status, err := f.Flash(bytes.NewReader(image), uint32(len(image)), 1)
	require.NoError(t, err)
	require.Equal(t, TransferSuccess, status)

	require.Len(t, port.writes, 5)
	require.Equal(t, []byte{0x01, 0xfe}, port.writes[0])

	// Size frame: u32 little-endian total size plus checksum.
	sizeFrame := port.writes[1]
	require.Equal(t, AppendChecksum([]byte{0x00, 0x0a, 0x00, 0x00}), sizeFrame)

	// Each chunk frame carries its checksum byte; the payloads
	// reassemble the exact image.
	var sent []byte
	for _, chunk := range port.writes[2:] {
		payload, err := ValidateFrame(chunk)
		require.NoError(t, err)
		sent = append(sent, payload...)
	}
	require.Equal(t, image, sent)
	require.Len(t, port.writes[2], 1024+1)
	require.Len(t, port.writes[3], 1024+1)
	require.Len(t, port.writes[4], 512+1)

	require.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestFlashSuccessExactMultiple(t *testing.T) {
	image := make([]byte, 2*1024)

	port := &scriptPort{reads: flashScript(2, statusComplete)}
	f := NewFlasher(port)

	status, err := f.Flash(bytes.NewReader(image), uint32(len(image)), 1)
	require.NoError(t, err)
	require.Equal(t, TransferSuccess, status)
	require.Len(t, port.writes, 4) // no partial chunk
}

func TestFlashIncompleteWhenDeviceStillExpectsData(t *testing.T) {
	image := make([]byte, 1024+10)

	// Both chunks, including the final partial one, come back as "send
	// more": the device never declared the image complete.
	port := &scriptPort{reads: flashScript(2, ack)}
	f := NewFlasher(port)

	status, err := f.Flash(bytes.NewReader(image), uint32(len(image)), 1)
	require.NoError(t, err)
	require.Equal(t, TransferIncomplete, status)
}

func TestFlashAbortsOnWriteError(t *testing.T) {
	image := make([]byte, 10*1024) // ten full chunks

	script := [][]byte{statusFrame(0x75), statusFrame(0x75)}
	script = append(script, statusFrame(0x75), statusFrame(0x75), statusFrame(statusWriteError))
	port := &scriptPort{reads: script}
	f := NewFlasher(port)

	var lastDone int
	f.SetProgressCallback(func(done, total int) { lastDone = done })

	status, err := f.Flash(bytes.NewReader(image), uint32(len(image)), 1)
	require.NoError(t, err)
	require.Equal(t, TransferWriteError, status)

	// Chunks 4..10 were never sent.
	require.Len(t, port.writes, 2+3)
	require.Equal(t, 2, lastDone)
}

func TestFlashAbortsOnBadChecksumFromDevice(t *testing.T) {
	image := make([]byte, 3*1024)

	script := [][]byte{statusFrame(0x75), statusFrame(0x75), statusFrame(statusBadCRC)}
	port := &scriptPort{reads: script}
	f := NewFlasher(port)

	status, err := f.Flash(bytes.NewReader(image), uint32(len(image)), 1)
	require.NoError(t, err)
	require.Equal(t, TransferBadChecksum, status)
	require.Len(t, port.writes, 3)
}

func TestFlashUpdateRequestRefused(t *testing.T) {
	port := &scriptPort{reads: [][]byte{statusFrame(0x13)}}
	f := NewFlasher(port)

	status, err := f.Flash(bytes.NewReader(make([]byte, 1024)), 1024, 1)
	require.NoError(t, err)
	require.Equal(t, TransferRejected, status)
	require.Len(t, port.writes, 1) // nothing after the refused request
}

func TestFlashNoResponseToChunk(t *testing.T) {
	image := make([]byte, 2*1024)

	port := &scriptPort{reads: [][]byte{statusFrame(0x75), statusFrame(0x75), {0x75}}}
	f := NewFlasher(port)

	status, err := f.Flash(bytes.NewReader(image), uint32(len(image)), 1)
	require.NoError(t, err)
	require.Equal(t, TransferNoResponse, status)
	require.Len(t, port.writes, 3)
}

func TestFlashChunkAccounting(t *testing.T) {
	// For any image length and sector size, the device sees L/(S*1024)
	// full chunks, one partial chunk iff L%(S*1024) != 0, and exactly L
	// payload bytes in total.
	tests := []struct {
		length     int
		sectorSize byte
	}{
		{1, 1},
		{1023, 1},
		{1024, 1},
		{1025, 1},
		{10 * 1024, 1},
		{3*4096 + 7, 4},
		{8192, 2},
	}
	for _, tt := range tests {
		chunkSize := int(tt.sectorSize) * 1024
		wantChunks := tt.length / chunkSize
		if tt.length%chunkSize != 0 {
			wantChunks++
		}

		image := make([]byte, tt.length)
		port := &scriptPort{reads: flashScript(wantChunks, statusComplete)}
		f := NewFlasher(port)

		status, err := f.Flash(bytes.NewReader(image), uint32(tt.length), tt.sectorSize)
		require.NoError(t, err)
		require.Equal(t, TransferSuccess, status)
		require.Len(t, port.writes, 2+wantChunks)

		total := 0
		for _, chunk := range port.writes[2:] {
			total += len(chunk) - 1 // minus the checksum byte
		}
		require.Equal(t, tt.length, total)
	}
}
