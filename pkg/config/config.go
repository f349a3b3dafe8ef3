/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"usgs.gov/geomag/go-zen/pkg/zen"
)

// Config carries the tool configuration, including the decode tolerances
// which are deliberately not constants in the decoder.
type Config struct {
	LogLevel string       `json:"logLevel,omitempty"`
	DataDir  string       `json:"dataDir,omitempty"`
	Decode   *zen.Options `json:"decode,omitempty"`
	filepath string
}

// Persist writes the config to its file, refusing to overwrite an
// existing one unless asked.
func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load reads the config file if it exists; a missing file leaves the
// defaults in place.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

// CatalogDBPath is where the recording catalog database lives.
func (c *Config) CatalogDBPath() string {
	return filepath.Join(filepath.Dir(c.filepath), CatalogFile)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return NewConfigAtPath(DefaultConfigPath())
}

// NewConfigAtPath builds a default config bound to an explicit file path.
func NewConfigAtPath(path string) *Config {
	opts := zen.DefaultOptions()
	return &Config{
		LogLevel: DefaultLogLevel,
		DataDir:  DefaultDataDir(),
		Decode:   &opts,
		filepath: path,
	}
}
