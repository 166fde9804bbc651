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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/cli/common"
	"github.com/cryoz/k1-fwuploader/cli/feedback"
	"github.com/cryoz/k1-fwuploader/flasher"
)

// NewAppStartCommand creates a new `app-start` command
func NewAppStartCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "app-start",
		Short: "Starts the application firmware.",
		Long: "Asks the bootloader to jump to the application entry point. " +
			"The bootloader re-checks the application CRC first and refuses to start a corrupted firmware.",
		Example: "  " + os.Args[0] + " firmware app-start -a /dev/ttyS7\n",
		Args:    cobra.NoArgs,
		Run:     runAppStart,
	}
	commonFlags.AddToCommand(command)
	return command
}

func runAppStart(cmd *cobra.Command, args []string) {
	common.CheckConnectionFlags(cmd, &commonFlags)

	session := common.NewSession(&commonFlags)
	kind, err := session.StartApp()
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during app start: %s", err), feedback.ErrSerial)
	}
	if kind != flasher.Ok {
		feedback.Fatal(fmt.Sprintf("App start failed: %s", common.DescribeStageResult(kind)), feedback.ErrDevice)
	}
	feedback.Print("App started.")
}
