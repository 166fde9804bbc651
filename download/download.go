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

package download

import (
	"fmt"
	"net/url"
	"path"

	"github.com/arduino/go-paths-helper"
	"github.com/sirupsen/logrus"
	"go.bug.st/downloader/v2"

	"github.com/cryoz/k1-fwuploader/cli/globals"
)

// IsURL reports whether input is a downloadable http(s) URL rather than a
// local file path.
func IsURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// DownloadFirmware fetches a firmware image into the uploader cache
// directory and returns its local path.
func DownloadFirmware(URL string) (*paths.Path, error) {
	firmwarePath := globals.FwUploaderPath.Join("firmwares", path.Base(URL))
	firmwarePath.Parent().MkdirAll()
	if err := firmwarePath.WriteFile(nil); err != nil {
		logrus.Error(err)
		return nil, err
	}
	d, err := downloader.Download(firmwarePath.String(), URL)
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	if err := run(d); err != nil {
		logrus.Error(err)
		return nil, err
	}
	return firmwarePath, nil
}

// run will take a downloader.Downloader as parameter. It will download the
// file specified in the downloader
func run(d *downloader.Downloader) error {
	if d == nil {
		// This signal means that the file is already downloaded
		return nil
	}
	if err := d.Run(); err != nil {
		return fmt.Errorf("failed to download file from %s : %s", d.URL, err)
	}
	// The URL is not reachable for some reason
	if d.Resp.StatusCode >= 400 && d.Resp.StatusCode <= 599 {
		return fmt.Errorf("download returned: %s", d.Resp.Status)
	}
	return nil
}
