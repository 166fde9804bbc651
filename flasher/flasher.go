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
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/arduino/go-paths-helper"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Flasher drives the K1 bootloader protocol over an open serial port. All
// exchanges are strictly sequential: one command frame goes out, one
// fixed-length response comes back before anything else is sent.
type Flasher struct {
	port             serial.Port
	progressCallback func(done, total int)
}

// NewFlasher wraps an already-open port. Ownership of the port lifecycle
// stays with the caller; Session is the usual owner.
func NewFlasher(port serial.Port) *Flasher {
	return &Flasher{port: port}
}

// SetProgressCallback registers a callback invoked after every transferred
// chunk with the number of chunks completed and the total chunk count.
func (f *Flasher) SetProgressCallback(callback func(done, total int)) {
	f.progressCallback = callback
}

// Close closes the underlying port.
func (f *Flasher) Close() error {
	return f.port.Close()
}

// send writes buf fully to the port.
func (f *Flasher) send(buf []byte) error {
	if len(buf) <= 8 {
		logrus.Debugf("send %x", buf)
	} else {
		logrus.Debugf("send %d bytes", len(buf))
	}
	for len(buf) > 0 {
		n, err := f.port.Write(buf)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("serial write: %w", io.ErrShortWrite)
		}
		buf = buf[n:]
	}
	return nil
}

// receive reads up to n bytes, looping until n bytes arrived or a read
// timed out with no data. The device answers with fixed-length frames, so
// fewer than n returned bytes means the device went silent mid-frame.
func (f *Flasher) receive(n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		c, err := f.port.Read(buf[read:])
		if err != nil {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		if c == 0 {
			break
		}
		read += c
	}
	logrus.Debugf("recv %x", buf[:read])
	return buf[:read], nil
}

// readStatus reads a status/checksum response pair. The status byte is
// only meaningful when the returned kind is Ok.
func (f *Flasher) readStatus() (byte, ResultKind, error) {
	resp, err := f.receive(2)
	if err != nil {
		return 0, Inconclusive, err
	}
	if len(resp) < 2 {
		logrus.Debug("short or empty status response")
		return 0, Inconclusive, nil
	}
	payload, err := ValidateFrame(resp)
	if err != nil {
		logrus.Debugf("invalid status response: %v", err)
		return 0, Inconclusive, nil
	}
	return payload[0], Ok, nil
}

// Handshake probes whether the bootloader is listening. The bootloader
// echoes the probe byte back; after the boot window it has jumped to the
// application and stays silent (or listens forever when the application
// failed its integrity check). The probe goes on the wire without
// checksum framing.
func (f *Flasher) Handshake() (ResultKind, error) {
	logrus.Info("send handshake")
	if err := f.send([]byte{ack}); err != nil {
		return Inconclusive, err
	}
	resp, err := f.receive(1)
	if err != nil {
		return Inconclusive, err
	}
	if len(resp) == 0 {
		return Inconclusive, nil
	}
	if resp[0] != ack {
		logrus.Infof("unexpected handshake reply %#02x", resp[0])
		return Rejected, nil
	}
	logrus.Info("handshake confirmed")
	return Ok, nil
}

// GetVersion queries the combined hardware/firmware identity string. A
// checksum-valid all-zero payload is how the bootloader reports that the
// resident application failed its integrity check; that case comes back
// as Rejected with an unusable VersionInfo, never as a genuine version.
func (f *Flasher) GetVersion() (*VersionInfo, ResultKind, error) {
	logrus.Info("send version request")
	if err := f.send(command(cmdVersion)); err != nil {
		return nil, Inconclusive, err
	}
	resp, err := f.receive(versionLength + 1)
	if err != nil {
		return nil, Inconclusive, err
	}
	if len(resp) < versionLength+1 {
		return nil, Inconclusive, nil
	}
	payload, err := ValidateFrame(resp)
	if err != nil {
		logrus.Debugf("invalid version response: %v", err)
		return nil, Inconclusive, nil
	}
	if isBlank(payload) {
		logrus.Info("blank version string: application integrity check failed")
		return &VersionInfo{}, Rejected, nil
	}
	version := &VersionInfo{Raw: decodeLatin1(payload)}
	logrus.Infof("version received: %s", version)
	return version, Ok, nil
}

// GetSectorSize queries the device's flash sector size in KiB. The chunk
// size for firmware transfer is the sector size times 1024: the device
// stages one full chunk in RAM before committing it to flash.
func (f *Flasher) GetSectorSize() (byte, ResultKind, error) {
	logrus.Info("send sector size request")
	if err := f.send(command(cmdSectorSize)); err != nil {
		return 0, Inconclusive, err
	}
	size, kind, err := f.readStatus()
	if err != nil || kind != Ok {
		return 0, kind, err
	}
	if size == 0 {
		logrus.Error("device reported a zero sector size")
		return 0, Rejected, nil
	}
	logrus.Infof("sector size received: %d KiB", size)
	return size, Ok, nil
}

// StartApp asks the bootloader to jump to the application entry point.
// The bootloader re-checks the application CRC first, so a Rejected
// outcome usually means the flash content is bad.
func (f *Flasher) StartApp() (ResultKind, error) {
	logrus.Info("send app start request")
	if err := f.send(command(cmdAppStart)); err != nil {
		return Inconclusive, err
	}
	status, kind, err := f.readStatus()
	if err != nil || kind != Ok {
		return kind, err
	}
	if status != ack {
		logrus.Infof("app start refused with status %#02x", status)
		return Rejected, nil
	}
	logrus.Info("app started")
	return Ok, nil
}

// FlashFirmware flashes the image at firmwareFile, probing its total size
// once before the transfer begins.
func (f *Flasher) FlashFirmware(firmwareFile *paths.Path, sectorSize byte) (TransferStatus, error) {
	info, err := firmwareFile.Stat()
	if err != nil {
		return TransferNoResponse, err
	}
	if info.Size() > math.MaxUint32 {
		return TransferNoResponse, fmt.Errorf("firmware image %s is too large (%d bytes)", firmwareFile, info.Size())
	}
	file, err := firmwareFile.Open()
	if err != nil {
		return TransferNoResponse, err
	}
	defer file.Close()

	logrus.Infof("Flashing firmware %s (%d bytes)", firmwareFile, info.Size())
	return f.Flash(file, uint32(info.Size()), sectorSize)
}

// Flash streams an image to the device: update request, size negotiation,
// then sector-sized chunks each acknowledged with a status/checksum pair.
// The image is consumed sequentially from r; size must be its exact total
// length. Chunks are never retried individually: any failure aborts the
// attempt and the caller restarts from offset zero.
func (f *Flasher) Flash(r io.Reader, size uint32, sectorSize byte) (TransferStatus, error) {
	chunkSize := int(sectorSize) * 1024

	logrus.Info("send update request")
	if err := f.send(command(cmdUpdate)); err != nil {
		return TransferNoResponse, err
	}
	status, kind, err := f.readStatus()
	if err != nil {
		return TransferNoResponse, err
	}
	if kind != Ok {
		logrus.Error("no valid response to update request")
		return TransferNoResponse, nil
	}
	if status != ack {
		logrus.Errorf("update request refused with status %#02x", status)
		return TransferRejected, nil
	}

	logrus.Infof("send image size %d", size)
	sizeFrame := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeFrame, size)
	if err := f.send(AppendChecksum(sizeFrame)); err != nil {
		return TransferNoResponse, err
	}
	status, kind, err = f.readStatus()
	if err != nil {
		return TransferNoResponse, err
	}
	if kind != Ok {
		logrus.Error("no valid response to size frame")
		return TransferNoResponse, nil
	}
	if status != ack {
		logrus.Errorf("image size refused with status %#02x", status)
		return TransferRejected, nil
	}

	fullChunks := int(size) / chunkSize
	remainder := int(size) % chunkSize
	totalChunks := fullChunks
	if remainder > 0 {
		totalChunks++
	}
	logrus.Infof("sending %d chunks of up to %d bytes", totalChunks, chunkSize)

	buf := make([]byte, chunkSize)
	done := 0
	for i := 0; i < fullChunks; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return TransferNoResponse, fmt.Errorf("reading firmware image: %w", err)
		}
		outcome, terminal, err := f.sendChunk(buf, &done, totalChunks)
		if err != nil || terminal {
			return outcome, err
		}
	}

	if remainder > 0 {
		if _, err := io.ReadFull(r, buf[:remainder]); err != nil {
			return TransferNoResponse, fmt.Errorf("reading firmware image: %w", err)
		}
		outcome, terminal, err := f.sendChunk(buf[:remainder], &done, totalChunks)
		if err != nil || terminal {
			return outcome, err
		}
	}

	// Every frame, including the last one, came back as "send more". The
	// device never reported the image complete, so this attempt cannot
	// count as a success.
	logrus.Error("device still expects data after the full image was sent")
	return TransferIncomplete, nil
}

// sendChunk transmits one chunk with its checksum byte and interprets the
// status response. terminal reports whether the outcome ends the transfer;
// a non-terminal outcome only bumps the progress counter.
func (f *Flasher) sendChunk(chunk []byte, done *int, total int) (outcome TransferStatus, terminal bool, err error) {
	if err := f.send(AppendChecksum(chunk)); err != nil {
		return TransferNoResponse, true, err
	}
	status, kind, err := f.readStatus()
	if err != nil {
		return TransferNoResponse, true, err
	}
	if kind != Ok {
		logrus.Error("no valid response to chunk")
		return TransferNoResponse, true, nil
	}

	switch status {
	case ack:
		*done++
		f.reportProgress(*done, total)
		return 0, false, nil
	case statusComplete:
		*done++
		f.reportProgress(*done, total)
		logrus.Info("device reports transfer complete")
		return TransferSuccess, true, nil
	case statusBadCRC:
		logrus.Error("device reported a bad chunk checksum")
		return TransferBadChecksum, true, nil
	case statusWriteError:
		logrus.Error("device reported a flash write error")
		return TransferWriteError, true, nil
	default:
		logrus.Errorf("unexpected chunk status %#02x", status)
		return TransferRejected, true, nil
	}
}

func (f *Flasher) reportProgress(done, total int) {
	if f.progressCallback != nil {
		f.progressCallback(done, total)
	}
}

// isBlank reports whether every byte of the payload is zero.
func isBlank(payload []byte) bool {
	for _, b := range payload {
		if b != 0 {
			return false
		}
	}
	return true
}

// decodeLatin1 decodes a Latin-1 byte string, one rune per byte.
func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
