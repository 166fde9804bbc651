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
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the fixed baud rate of the K1 bootloader.
	DefaultBaudRate = 115200

	// DefaultKlipperBaudRate is the baud rate of a running Klipper
	// firmware, used only for the out-of-band bootloader wake sequence.
	DefaultKlipperBaudRate = 230400

	// readTimeout bounds every read on the port so that a silent device
	// stalls a stage for at most this long.
	readTimeout = 2 * time.Second
)

// wakeSequence is the byte string a patched Klipper firmware recognizes as
// a request to reboot into the serial bootloader. Opaque and version
// pinned; do not edit.
var wakeSequence = []byte("~ \x1c Request Serial Bootloader!! ~")

// OpenSerial opens portAddress at the given baud rate with the read
// timeout the bootloader protocol expects.
func OpenSerial(portAddress string, baudRate int) (serial.Port, error) {
	port, err := serial.Open(portAddress, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}
	logrus.Infof("Opened port %s at %d", portAddress, baudRate)

	if err := port.SetReadTimeout(readTimeout); err != nil {
		err = fmt.Errorf("could not set timeout on serial port: %w", err)
		logrus.Error(err)
		port.Close()
		return nil, err
	}
	return port, nil
}
