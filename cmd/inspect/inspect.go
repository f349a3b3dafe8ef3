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

package inspect

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"usgs.gov/geomag/go-zen/pkg/cache"
)

const (
	MetaOptionName = "meta"
)

// NewCommand creates a command that parses a merged container file and
// reports what it holds, verifying every frame's length check on the way.
func NewCommand() *cobra.Command {
	var showMeta bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Verify and summarize a merged container file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := cache.Read(data)
			if err != nil {
				return err
			}
			cmd.Printf("%s\n", args[0])
			cmd.Printf("  %d channels: %s\n", c.ChannelCount(), strings.Join(c.Meta["CH.CMP"], " "))
			cmd.Printf("  %d samples per channel at %d samples/s\n", len(c.Counts), c.SampleRate())
			cmd.Printf("  navigation %d bytes, calibration %d bytes\n", len(c.Nav), len(c.Cal))
			if showMeta {
				keys := make([]string, 0, len(c.Meta))
				for key := range c.Meta {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					cmd.Printf("  %s = %s\n", key, strings.Join(c.Meta[key], ","))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMeta, MetaOptionName, false, "Print the full metadata frame")
	return cmd
}
