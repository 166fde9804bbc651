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

package firmware

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/cli/arguments"
)

// commonFlags contains the serial address and baud rate, shared by all
// firmware subcommands.
var commonFlags arguments.Flags

// NewCommand creates a new `firmware` command
func NewCommand() *cobra.Command {
	firmwareCommand := &cobra.Command{
		Use:   "firmware",
		Short: "Firmware related commands.",
		Long:  "Query the firmware identity of the MCU, flash a new firmware image or start the application.",
		Example: "" +
			"  " + os.Args[0] + " firmware flash -a /dev/ttyS7 -i firmware.bin\n" +
			"  " + os.Args[0] + " firmware get-version -a /dev/ttyS7\n" +
			"  " + os.Args[0] + " firmware app-start -a /dev/ttyS7\n",
	}

	firmwareCommand.AddCommand(NewFlashCommand())
	firmwareCommand.AddCommand(NewGetVersionCommand())
	firmwareCommand.AddCommand(NewAppStartCommand())
	return firmwareCommand
}
