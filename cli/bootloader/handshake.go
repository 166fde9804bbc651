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
	"github.com/cryoz/k1-fwuploader/flasher"
)

// NewHandshakeCommand creates a new `handshake` command
func NewHandshakeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "handshake",
		Short: "Probes whether the bootloader is listening.",
		Long: "Sends a single handshake probe. The bootloader only listens during its boot window " +
			"after power-up, or forever when the resident firmware is corrupted; a silent device " +
			"usually means the application is already running.",
		Example: "  " + os.Args[0] + " bootloader handshake -a /dev/ttyS7\n",
		Args:    cobra.NoArgs,
		Run:     runHandshake,
	}
	commonFlags.AddToCommand(command)
	return command
}

func runHandshake(cmd *cobra.Command, args []string) {
	common.CheckConnectionFlags(cmd, &commonFlags)

	session := common.NewSession(&commonFlags)
	kind, err := session.Handshake()
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during handshake: %s", err), feedback.ErrSerial)
	}
	switch kind {
	case flasher.Ok:
		feedback.Print("Bootloader is listening.")
	case flasher.Rejected:
		feedback.Fatal("Unexpected reply to the handshake probe", feedback.ErrDevice)
	default:
		feedback.Fatal("No reply to the handshake probe: is the bootloader listening?", feedback.ErrDevice)
	}
}
