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

	"github.com/arduino/go-paths-helper"
	"github.com/cmaglie/pb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/cli/common"
	"github.com/cryoz/k1-fwuploader/cli/feedback"
	"github.com/cryoz/k1-fwuploader/cli/globals"
	"github.com/cryoz/k1-fwuploader/download"
	"github.com/cryoz/k1-fwuploader/flasher"
)

var (
	fwFile     string
	noAppStart bool
)

// NewFlashCommand creates a new `flash` command
func NewFlashCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "flash",
		Short: "Flashes a firmware image to the MCU.",
		Long: "Flashes the specified firmware image to the MCU through its serial bootloader " +
			"and starts the application unless --no-app-start is given.",
		Example: "" +
			"  " + os.Args[0] + " firmware flash -a /dev/ttyS7 -i firmware.bin\n" +
			"  " + os.Args[0] + " firmware flash -a /dev/ttyS7 -i https://example.com/firmware.bin --no-app-start\n",
		Args: cobra.NoArgs,
		Run:  runFlash,
	}
	commonFlags.AddToCommand(command)
	command.Flags().StringVarP(&fwFile, "input-file", "i", "", "Path or http(s) URL of the firmware image to flash")
	command.Flags().BoolVar(&noAppStart, "no-app-start", false, "Do not start the application after a successful flash")
	return command
}

func runFlash(cmd *cobra.Command, args []string) {
	// at the end cleanup the fwuploader temp dir
	defer globals.FwUploaderPath.RemoveAll()

	common.CheckConnectionFlags(cmd, &commonFlags)
	if fwFile == "" {
		feedback.Fatal("Please specify a firmware image with --input-file", feedback.ErrBadArgument)
	}

	var firmwareFile *paths.Path
	if download.IsURL(fwFile) {
		var err error
		if firmwareFile, err = download.DownloadFirmware(fwFile); err != nil {
			feedback.Fatal(fmt.Sprintf("Error downloading firmware from %s: %s", fwFile, err), feedback.ErrNetwork)
		}
		logrus.Debugf("firmware file downloaded in %s", firmwareFile.String())
	} else {
		firmwareFile = paths.New(fwFile)
		if !firmwareFile.Exist() {
			feedback.Fatal(fmt.Sprintf("firmware file not found in %s", firmwareFile), feedback.ErrBadArgument)
		}
	}

	session := common.NewSession(&commonFlags)

	var bar *pb.ProgressBar
	progress := func(done, total int) {
		if feedback.GetFormat() != feedback.Text {
			return
		}
		if bar == nil {
			bar = pb.StartNew(total)
		}
		bar.Set(done)
	}

	status, err := session.Update(firmwareFile, progress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error during firmware flashing: %s", err), feedback.ErrSerial)
	}
	if status != flasher.TransferSuccess {
		feedback.Fatal(fmt.Sprintf("Firmware flash failed: %s", status), feedback.ErrDevice)
	}

	result := &flashResult{Flashed: true}
	if !noAppStart {
		kind, err := session.StartApp()
		if err != nil {
			feedback.Fatal(fmt.Sprintf("Firmware flashed, but starting it failed: %s", err), feedback.ErrSerial)
		}
		if kind != flasher.Ok {
			feedback.Fatal(fmt.Sprintf("Firmware flashed, but starting it failed: %s", common.DescribeStageResult(kind)), feedback.ErrDevice)
		}
		started := true
		result.AppStarted = &started
	}
	feedback.PrintResult(result)
}

type flashResult struct {
	Flashed    bool  `json:"flashed"`
	AppStarted *bool `json:"app_started,omitempty"`
}

func (r *flashResult) Data() interface{} {
	return r
}

func (r *flashResult) String() string {
	if r.AppStarted != nil && *r.AppStarted {
		return "Firmware flashed and application started."
	}
	return "Firmware flashed."
}
