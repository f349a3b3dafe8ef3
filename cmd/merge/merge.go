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

package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"usgs.gov/geomag/go-zen/pkg/cache"
	"usgs.gov/geomag/go-zen/pkg/catalog"
	pkgconfig "usgs.gov/geomag/go-zen/pkg/config"
	"usgs.gov/geomag/go-zen/pkg/log"
	"usgs.gov/geomag/go-zen/pkg/zen"
)

const (
	OutputOptionName  = "output"
	StationOptionName = "station"
)

// NewCommand creates a command that decodes the component files of one
// station run and merges them into a single container file.
func NewCommand() *cobra.Command {
	var output, station string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Merge decoded channel files into one container file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder := zen.NewDecoder(*cfg.Decode)
			sink := &log.Sink{}
			sink.Append("merging files: %s", strings.Join(args, ", "))

			channels := make([]*zen.DecodedChannel, 0, len(args))
			for _, path := range args {
				ch, err := decoder.DecodeFile(path)
				if err != nil {
					return err
				}
				sink.Extend(ch.LogLines)
				channels = append(channels, ch)
			}

			aligned, err := cache.Align(channels)
			if err != nil {
				return err
			}
			sink.Extend(aligned.LogLines)

			codec := cache.NewCodec()
			codec.Factor = cfg.Decode.CountsToMillivolts
			data, err := codec.Encode(aligned)
			if err != nil {
				return err
			}

			if station == "" {
				station = aligned.Channels[0].Station
			}
			if output == "" {
				output = mergedFileName(cfg.DataDir, station, aligned)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return err
			}
			cmd.Printf("Saved merged file to %s\n", output)

			sink.Extend(codec.LogLines())
			sink.Append("saved merged file to %s", output)
			logPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".log"
			if err := sink.WriteFile(logPath); err != nil {
				log.Warning("cannot write merge log: %s", err)
			}

			if cat, err := catalog.Open(cfg.CatalogDBPath()); err == nil {
				defer cat.Close()
				entry := &catalog.Entry{
					File:       strings.Join(args, ","),
					Station:    station,
					SampleRate: aligned.SampleRate,
					Start:      aligned.Start.Format(zen.TimeFormat),
					Output:     output,
				}
				if err := cat.Put(entry); err != nil {
					log.Warning("cannot catalog merge: %s", err)
				}
			} else {
				log.Warning("cannot open catalog: %s", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, OutputOptionName, "", "Path of the merged output file")
	cmd.Flags().StringVar(&station, StationOptionName, "", "Station name recorded in the merged file name")
	return cmd
}

// mergedFileName follows the station_date_time_rate naming of the decoded
// sources.
func mergedFileName(dataDir, station string, a *cache.Aligned) string {
	stamp := a.Start.Format("20060102_150405")
	name := fmt.Sprintf("%s_%s_%d.cac", station, stamp, a.SampleRate)
	return filepath.Join(dataDir, station, "Merged", name)
}
