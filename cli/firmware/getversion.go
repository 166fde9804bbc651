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

// NewGetVersionCommand creates a new `get-version` command
func NewGetVersionCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "get-version",
		Short: "Gets the version of the firmware the MCU is carrying.",
		Long: "Queries the bootloader for the combined hardware and firmware identity string. " +
			"The bootloader must be listening; see the bootloader commands.",
		Example: "  " + os.Args[0] + " firmware get-version -a /dev/ttyS7\n",
		Args:    cobra.NoArgs,
		Run:     runGetVersion,
	}
	commonFlags.AddToCommand(command)
	return command
}

func runGetVersion(cmd *cobra.Command, args []string) {
	common.CheckConnectionFlags(cmd, &commonFlags)

	session := common.NewSession(&commonFlags)
	version, kind, err := session.GetVersion()
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during version query: %s", err), feedback.ErrSerial)
	}
	switch kind {
	case flasher.Ok:
		feedback.PrintResult(newVersionResult(version))
	case flasher.Rejected:
		feedback.Fatal("The device reports no usable version: the firmware failed its integrity check", feedback.ErrDevice)
	default:
		feedback.Fatal("No response from the device: is the bootloader listening?", feedback.ErrDevice)
	}
}

type versionResult struct {
	Identity        string `json:"identity"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
}

func newVersionResult(version *flasher.VersionInfo) *versionResult {
	result := &versionResult{Identity: version.Raw}
	if parsed := version.FirmwareVersion(); parsed != nil {
		result.FirmwareVersion = parsed.String()
	}
	return result
}

func (r *versionResult) Data() interface{} {
	return r
}

func (r *versionResult) String() string {
	if r.FirmwareVersion != "" {
		return fmt.Sprintf("FW Version: %s (firmware %s)", r.Identity, r.FirmwareVersion)
	}
	return fmt.Sprintf("FW Version: %s", r.Identity)
}
