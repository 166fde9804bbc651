/*
	k1-fwuploader
	Copyright (c) 2024 CryoZ.  All right reserved.

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

package bootloader

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/cli/arguments"
)

var commonFlags arguments.Flags

// NewCommand creates a new `bootloader` command
func NewCommand() *cobra.Command {
	bootloaderCommand := &cobra.Command{
		Use:   "bootloader",
		Short: "Bootloader related commands.",
		Long: "Probe the MCU serial bootloader, or ask a running Klipper firmware " +
			"to reboot back into it.",
		Example: "" +
			"  " + os.Args[0] + " bootloader handshake -a /dev/ttyS7\n" +
			"  " + os.Args[0] + " bootloader request -a /dev/ttyS7 --klipper-baud 230400\n",
	}

	bootloaderCommand.AddCommand(NewHandshakeCommand())
	bootloaderCommand.AddCommand(NewRequestCommand())
	return bootloaderCommand
}
