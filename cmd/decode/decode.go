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

package decode

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"usgs.gov/geomag/go-zen/pkg/catalog"
	pkgconfig "usgs.gov/geomag/go-zen/pkg/config"
	"usgs.gov/geomag/go-zen/pkg/log"
	"usgs.gov/geomag/go-zen/pkg/zen"
)

const (
	NoCatalogOptionName = "no-catalog"
)

// NewCommand creates a command that decodes raw channel files and prints
// a per-file summary.
func NewCommand() *cobra.Command {
	var noCatalog bool
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "decode <file>...",
		Short: "Decode raw channel files and report their contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder := zen.NewDecoder(*cfg.Decode)
			sink := &log.Sink{}

			var cat *catalog.Catalog
			if !noCatalog {
				var err error
				cat, err = catalog.Open(cfg.CatalogDBPath())
				if err != nil {
					log.Warning("cannot open catalog: %s", err)
				} else {
					defer cat.Close()
				}
			}

			for _, path := range args {
				ch, err := decoder.DecodeFile(path)
				if err != nil {
					return err
				}
				sink.Extend(ch.LogLines)
				lat, lon := ch.MedianPosition()
				cmd.Printf("%s\n", path)
				cmd.Printf("  station %s channel %s (%s), %d samples/s\n",
					ch.Metadata.Station, ch.Metadata.ChannelNumber, ch.Metadata.Component, ch.SampleRate)
				cmd.Printf("  %d stamps starting %s UTC, %d lock loss events\n",
					len(ch.Records), ch.Start.Format(zen.TimeFormat), len(ch.LockLoss))
				cmd.Printf("  median position %.6f, %.6f\n", lat, lon)
				if ch.DriftSeconds != 0 {
					cmd.Printf("  series off by %g seconds\n", ch.DriftSeconds)
				}
				if cat != nil {
					if err := cat.Put(catalog.EntryForChannel(ch)); err != nil {
						log.Warning("cannot catalog %s: %s", path, err)
					}
				}
			}
			return sink.WriteFile(filepath.Join(filepath.Dir(args[0]), "decode.log"))
		},
	}
	cmd.Flags().BoolVar(&noCatalog, NoCatalogOptionName, false, "Do not record decoded files in the catalog")
	return cmd
}
