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
	"strings"

	semver "go.bug.st/relaxed-semver"
)

// ResultKind classifies the outcome of a single request/response stage.
// Transport faults (failed reads or writes on the port) are reported as
// plain errors next to it and never folded into a kind.
type ResultKind int

const (
	// Ok means the device answered with a well-formed positive response.
	Ok ResultKind = iota

	// Rejected means the device answered with a checksum-valid response
	// whose status signals a refusal or a device-side fault.
	Rejected

	// Inconclusive means a timeout, a short read or a corrupted response
	// left no determinable status.
	Inconclusive
)

func (k ResultKind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Rejected:
		return "rejected"
	case Inconclusive:
		return "inconclusive"
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// VersionInfo is the decoded response of the version query: the combined
// hardware and firmware identity of the device.
type VersionInfo struct {
	// Raw is the 25-character identity string, hardware version first.
	Raw string
}

// Usable reports whether the device returned a real identity string. A
// bootloader whose application failed its integrity check answers the
// version query with zero bytes instead.
func (v *VersionInfo) Usable() bool {
	return v != nil && v.Raw != ""
}

// FirmwareVersion extracts the trailing firmware version token of the
// identity string as a relaxed semantic version, or nil when no version
// token is present.
func (v *VersionInfo) FirmwareVersion() *semver.RelaxedVersion {
	if !v.Usable() {
		return nil
	}
	i := strings.LastIndexByte(v.Raw, '_')
	if i < 0 || i+1 == len(v.Raw) {
		return nil
	}
	token := strings.TrimPrefix(v.Raw[i+1:], "v")
	return semver.ParseRelaxed(token)
}

func (v *VersionInfo) String() string {
	if !v.Usable() {
		return ""
	}
	return v.Raw
}

// TransferStatus is the terminal outcome of one whole-image transfer
// attempt.
type TransferStatus int

const (
	// TransferSuccess means the device reported the image complete.
	TransferSuccess TransferStatus = iota

	// TransferRejected means the update request, the size frame or a
	// chunk was refused with an unexpected checksum-valid status before
	// the image could complete.
	TransferRejected

	// TransferNoResponse means a timeout, short read or corrupted
	// response left the transfer without a determinable status.
	TransferNoResponse

	// TransferBadChecksum means the device saw a checksum mismatch on a
	// received chunk.
	TransferBadChecksum

	// TransferWriteError means the device failed to commit a chunk from
	// its staging buffer to flash.
	TransferWriteError

	// TransferIncomplete means the device acknowledged the final chunk
	// but still expects more data.
	TransferIncomplete
)

func (s TransferStatus) String() string {
	switch s {
	case TransferSuccess:
		return "success"
	case TransferRejected:
		return "rejected"
	case TransferNoResponse:
		return "no response"
	case TransferBadChecksum:
		return "bad checksum on device"
	case TransferWriteError:
		return "flash write error"
	case TransferIncomplete:
		return "incomplete"
	}
	return fmt.Sprintf("TransferStatus(%d)", int(s))
}
