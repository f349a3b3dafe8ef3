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

package zen

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ASCIIFileName is the conventional name of an exported text time series:
// station_YYYYMMDD_hhmmss_rate with the upper-cased component as extension.
func ASCIIFileName(c *DecodedChannel) string {
	return fmt.Sprintf("%s_%s_%d.%s",
		c.Metadata.Station,
		c.Start.Format("20060102_150405"),
		c.SampleRate,
		strings.ToUpper(c.Metadata.Component))
}

// WriteASCII writes the reconstructed series as a text time series file:
// one header line carrying station, component, sampling rate, start as
// unix seconds, sample count, units, median position and elevation, then
// one sample per line in scientific notation.
func (c *DecodedChannel) WriteASCII(w io.Writer) error {
	lat, lon := c.MedianPosition()
	bw := bufio.NewWriter(w)
	_, err := fmt.Fprintf(bw, "# %s %s %d %d %d mV %.6f %.6f 0.0\n",
		c.Metadata.Station, c.Metadata.Component, c.SampleRate,
		c.Start.Unix(), len(c.Samples), lat, lon)
	if err != nil {
		return err
	}
	for _, v := range c.Samples {
		if _, err := fmt.Fprintf(bw, "%.8e\n", v); err != nil {
			return err
		}
	}
	return bw.Flush()
}
