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

package globals

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arduino/go-paths-helper"
	"gopkg.in/yaml.v3"
)

var (
	// FwUploaderPath is the cache directory for downloaded firmware
	// images.
	FwUploaderPath = paths.TempDir().Join("k1-fwuploader")

	config = &Config{}
)

// Config holds the defaults loadable from an optional YAML config file.
// Flags given on the command line always win over the file.
type Config struct {
	Address     string `yaml:"address"`
	BaudRate    int    `yaml:"baudrate"`
	KlipperBaud int    `yaml:"klipper_baudrate"`
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "k1-fwuploader", "config.yaml")
}

// LoadConfig reads the config file at configPath and makes it available
// through GetConfig. A missing file is not an error: the defaults stay
// empty.
func LoadConfig(configPath string) error {
	if configPath == "" {
		return nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", configPath, err)
	}
	config = loaded
	return nil
}

// GetConfig returns the loaded configuration defaults.
func GetConfig() *Config {
	return config
}
