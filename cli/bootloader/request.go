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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/cli/common"
	"github.com/cryoz/k1-fwuploader/cli/feedback"
	"github.com/cryoz/k1-fwuploader/cli/globals"
	"github.com/cryoz/k1-fwuploader/flasher"
)

var klipperBaud int

// NewRequestCommand creates a new `request` command
func NewRequestCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "request",
		Short: "Requests the serial bootloader from a running Klipper firmware.",
		Long: "Sends the bootloader wake sequence to a running Klipper firmware (custom Klipper " +
			"build needed) and waits for the device to come back up in bootloader mode. " +
			"When the bootloader already answers, nothing is sent.",
		Example: "  " + os.Args[0] + " bootloader request -a /dev/ttyS7 --klipper-baud 230400\n",
		Args:    cobra.NoArgs,
		Run:     runRequest,
	}
	commonFlags.AddToCommand(command)
	command.Flags().IntVar(&klipperBaud, "klipper-baud", flasher.DefaultKlipperBaudRate, "Baud rate of the running Klipper firmware")
	return command
}

func runRequest(cmd *cobra.Command, args []string) {
	common.CheckConnectionFlags(cmd, &commonFlags)
	if !cmd.Flags().Changed("klipper-baud") {
		if config := globals.GetConfig(); config.KlipperBaud > 0 {
			klipperBaud = config.KlipperBaud
		}
	}

	session := common.NewSession(&commonFlags)
	version, err := session.RequestBootloader(klipperBaud)
	if err != nil {
		feedback.FatalError(err, feedback.ErrDevice)
	}
	if version.Usable() {
		feedback.Print(fmt.Sprintf("Entered bootloader mode: FV: %s", version))
	} else {
		feedback.Print("Entered bootloader mode.")
	}
}
