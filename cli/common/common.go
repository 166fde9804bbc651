package common

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cryoz/k1-fwuploader/cli/arguments"
	"github.com/cryoz/k1-fwuploader/cli/feedback"
	"github.com/cryoz/k1-fwuploader/cli/globals"
	"github.com/cryoz/k1-fwuploader/flasher"
)

// CheckConnectionFlags applies config file defaults to the connection
// flags and errors out when no serial address is available. An explicit
// flag always wins over the config file.
func CheckConnectionFlags(cmd *cobra.Command, flags *arguments.Flags) {
	config := globals.GetConfig()
	if flags.Address == "" {
		flags.Address = config.Address
	}
	if !cmd.Flags().Changed("baud") && config.BaudRate > 0 {
		flags.BaudRate = config.BaudRate
	}

	if flags.Address == "" {
		feedback.Fatal("Please specify a serial address", feedback.ErrBadArgument)
	}
	logrus.Debugf("address: %s, baud: %d", flags.Address, flags.BaudRate)
}

// NewSession builds the session owning the serial port for one operation.
func NewSession(flags *arguments.Flags) *flasher.Session {
	return flasher.NewSession(flags.Address, flags.BaudRate)
}

// DescribeStageResult turns a stage result into the message shown to the
// user on failure paths.
func DescribeStageResult(kind flasher.ResultKind) string {
	switch kind {
	case flasher.Rejected:
		return "the device refused the request"
	case flasher.Inconclusive:
		return "no response from the device"
	}
	return fmt.Sprintf("unexpected result %s", kind)
}
