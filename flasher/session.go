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
	"errors"
	"fmt"
	"time"

	"github.com/arduino/go-paths-helper"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// maxAttempts bounds the retry loops for app start and firmware update.
// The bootloader keeps listening between attempts, so a fresh attempt is
// always a full restart of the stage.
const maxAttempts = 3

// settleDelay is how long the device needs to drop back into the
// bootloader after the wake sequence.
const settleDelay = time.Second

// ErrNotInBootloader is reported when the device could not be brought
// into bootloader mode.
var ErrNotInBootloader = errors.New("device did not enter bootloader mode")

// Session owns the serial port for the duration of one top-level
// operation: it opens the port, runs the stages in the order the device's
// own state machine expects, applies bounded retry and closes the port on
// every exit path. Expected negative outcomes come back as result values;
// only transport faults come back as errors.
type Session struct {
	portAddress string
	baudRate    int

	open func(baudRate int) (serial.Port, error)
}

// NewSession prepares a session against portAddress at baudRate.
func NewSession(portAddress string, baudRate int) *Session {
	s := &Session{portAddress: portAddress, baudRate: baudRate}
	s.open = func(baud int) (serial.Port, error) {
		return OpenSerial(s.portAddress, baud)
	}
	return s
}

func (s *Session) connect() (*Flasher, error) {
	port, err := s.open(s.baudRate)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.portAddress, err)
	}
	return NewFlasher(port), nil
}

// Handshake performs a single handshake probe. It is not retried: the
// caller decides what an inconclusive probe means.
func (s *Session) Handshake() (ResultKind, error) {
	f, err := s.connect()
	if err != nil {
		return Inconclusive, err
	}
	defer f.Close()
	return f.Handshake()
}

// GetVersion performs a single version query.
func (s *Session) GetVersion() (*VersionInfo, ResultKind, error) {
	f, err := s.connect()
	if err != nil {
		return nil, Inconclusive, err
	}
	defer f.Close()
	return f.GetVersion()
}

// StartApp asks the device to jump to the application, retrying up to
// three times on rejected or inconclusive outcomes.
func (s *Session) StartApp() (ResultKind, error) {
	f, err := s.connect()
	if err != nil {
		return Inconclusive, err
	}
	defer f.Close()

	var kind ResultKind
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		kind, err = f.StartApp()
		if err != nil {
			return Inconclusive, err
		}
		if kind == Ok {
			return Ok, nil
		}
		logrus.Infof("app start failed (%s), attempt %d of %d", kind, attempt, maxAttempts)
	}
	return kind, nil
}

// Update flashes firmwareFile and reports the final transfer outcome. The
// sector size is queried once; the whole transfer is then attempted up to
// three times, restarting from offset zero each time since the protocol
// has no resume primitive. progress may be nil.
func (s *Session) Update(firmwareFile *paths.Path, progress func(done, total int)) (TransferStatus, error) {
	f, err := s.connect()
	if err != nil {
		return TransferNoResponse, err
	}
	defer f.Close()
	f.SetProgressCallback(progress)

	sectorSize, kind, err := f.GetSectorSize()
	if err != nil {
		return TransferNoResponse, err
	}
	if kind != Ok {
		return TransferNoResponse, fmt.Errorf("cannot get sector size (%s)", kind)
	}

	status := TransferNoResponse
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err = f.FlashFirmware(firmwareFile, sectorSize)
		if err != nil {
			return status, err
		}
		if status == TransferSuccess {
			return TransferSuccess, nil
		}
		logrus.Infof("firmware flash failed (%s), attempt %d of %d", status, attempt, maxAttempts)
	}
	return status, nil
}

// RequestBootloader brings a device running a patched Klipper firmware
// back into its serial bootloader. It first checks whether the bootloader
// already answers the version query; if not, it transmits the wake
// sequence at klipperBaud, waits for the device to settle, reopens at the
// bootloader baud rate and performs one handshake. On success the device's
// version info is returned (possibly unusable when the resident
// application is corrupted).
func (s *Session) RequestBootloader(klipperBaud int) (*VersionInfo, error) {
	f, err := s.connect()
	if err != nil {
		return nil, err
	}
	version, kind, err := f.GetVersion()
	f.Close()
	if err == nil && kind != Inconclusive {
		// Any checksum-valid answer, including the all-zero one from a
		// bootloader guarding a corrupted application, means the
		// bootloader is already listening.
		logrus.Info("already in bootloader mode")
		return version, nil
	}
	// A running Klipper does not speak the bootloader protocol, so an
	// inconclusive probe here just means the wake sequence is needed.

	logrus.Infof("requesting serial bootloader at %d baud", klipperBaud)
	port, err := s.open(klipperBaud)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.portAddress, err)
	}
	if _, err := port.Write(wakeSequence); err != nil {
		port.Close()
		return nil, fmt.Errorf("sending wake sequence: %w", err)
	}
	if err := port.Close(); err != nil {
		return nil, err
	}
	time.Sleep(settleDelay)

	f, err = s.connect()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	kind, err = f.Handshake()
	if err != nil {
		return nil, err
	}
	if kind != Ok {
		return nil, ErrNotInBootloader
	}
	version, _, err = f.GetVersion()
	if err != nil {
		return nil, err
	}
	return version, nil
}
