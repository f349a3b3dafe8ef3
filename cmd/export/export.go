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

package export

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	pkgconfig "usgs.gov/geomag/go-zen/pkg/config"
	"usgs.gov/geomag/go-zen/pkg/zen"
)

const (
	OutputDirOptionName = "output-dir"
)

// NewCommand creates a command that decodes raw channel files and writes
// each one as a text time series file, by default into a TS directory
// next to its source.
func NewCommand() *cobra.Command {
	var outputDir string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "export <file>...",
		Short: "Export raw channel files as text time series files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder := zen.NewDecoder(*cfg.Decode)

			for _, path := range args {
				ch, err := decoder.DecodeFile(path)
				if err != nil {
					return err
				}
				dir := outputDir
				if dir == "" {
					dir = filepath.Join(filepath.Dir(path), "TS")
				}
				if err := os.MkdirAll(dir, 0755); err != nil {
					return err
				}
				out := filepath.Join(dir, zen.ASCIIFileName(ch))
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := ch.WriteASCII(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				cmd.Printf("Wrote time series file to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, OutputDirOptionName, "", "Directory the exported files are written to")
	return cmd
}
