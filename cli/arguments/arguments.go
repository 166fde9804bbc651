/*
	Copyright 2024 CryoZ

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package arguments

import (
	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/flasher"
)

// Flags contains the connection flags shared by every command that talks
// to the device. This is useful so all commands that need the serial
// connection are consistent with each other.
type Flags struct {
	Address  string
	BaudRate int
}

// AddToCommand adds the flags used to set the serial address and baud
// rate to the specified Command
func (f *Flags) AddToCommand(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Address, "address", "a", "", "Serial port of the MCU bootloader, e.g.: /dev/ttyS7, COM10")
	cmd.Flags().IntVarP(&f.BaudRate, "baud", "b", flasher.DefaultBaudRate, "Baud rate of the bootloader serial link")
}
