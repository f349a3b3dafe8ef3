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

package cache

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"usgs.gov/geomag/go-zen/pkg/zen"
)

// Container is a parsed merged file
type Container struct {
	Nav  []byte
	Meta map[string][]string
	Cal  []byte
	// Counts holds the time series as raw counts, one row per sample
	// instant and one column per channel.
	Counts [][]int32
}

// Read parses a merged container. Frames arrive in fixed order:
// navigation, metadata, calibration, time series. Any frame whose leading
// and trailing length fields disagree aborts the read.
func Read(data []byte) (*Container, error) {
	c := &Container{}
	off := 0

	_, nav, off, err := nextFrame(data, off, "navigation")
	if err != nil {
		return nil, err
	}
	c.Nav = nav

	metaOff := off
	_, metaPayload, off, err := nextFrame(data, off, "metadata")
	if err != nil {
		return nil, err
	}
	c.Meta = parseMetaLines(string(metaPayload))

	_, cal, off, err := nextFrame(data, off, "calibration")
	if err != nil {
		return nil, err
	}
	c.Cal = cal

	tsOff := off
	_, series, _, err := nextFrame(data, off, "time series")
	if err != nil {
		return nil, err
	}

	channels := len(c.Meta["CH.CMP"])
	if channels == 0 {
		return nil, ErrFormatIntegrity{Section: "metadata", Offset: metaOff, Reason: "no channel components recorded"}
	}
	if len(series)%4 != 0 {
		return nil, ErrFormatIntegrity{Section: "time series", Offset: tsOff, Reason: "payload is not whole 32-bit words"}
	}
	flat := len(series) / 4
	if flat%channels != 0 {
		return nil, ErrFormatIntegrity{
			Section: "time series",
			Offset:  tsOff,
			Reason:  fmt.Sprintf("%d samples do not divide across %d channels", flat, channels),
		}
	}

	rows := flat / channels
	c.Counts = make([][]int32, rows)
	for row := 0; row < rows; row++ {
		c.Counts[row] = make([]int32, channels)
		for col := 0; col < channels; col++ {
			word := (row*channels + col) * 4
			c.Counts[row][col] = int32(binary.LittleEndian.Uint32(series[word : word+4]))
		}
	}
	return c, nil
}

// parseMetaLines splits the metadata payload back into its key template:
// everything before the first comma is the key, the rest is one value per
// channel.
func parseMetaLines(text string) map[string][]string {
	meta := map[string][]string{}
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ",")
		if idx < 0 {
			continue
		}
		meta[line[:idx]] = strings.Split(line[idx+1:], ",")
	}
	return meta
}

// ChannelCount returns the number of channels recovered from the metadata
// frame component list.
func (c *Container) ChannelCount() int {
	return len(c.Meta["CH.CMP"])
}

// SampleRate returns the sampling rate recorded in the metadata frame, or
// zero when it is absent.
func (c *Container) SampleRate() int {
	values := c.Meta["TS.ADFREQ"]
	if len(values) == 0 {
		return 0
	}
	rate, err := strconv.Atoi(values[0])
	if err != nil {
		return 0
	}
	return rate
}

// Scaled converts the raw counts back to millivolts using the per-channel
// conversion factors recorded in the metadata frame, falling back to the
// instrument default for channels without one.
func (c *Container) Scaled() [][]float64 {
	factors := make([]float64, c.ChannelCount())
	recorded := c.Meta["CH.FACTOR"]
	for i := range factors {
		factors[i] = zen.DefaultCountsToMillivolts
		if i < len(recorded) {
			if f, err := strconv.ParseFloat(recorded[i], 64); err == nil {
				factors[i] = f
			}
		}
	}
	out := make([][]float64, len(c.Counts))
	for row, counts := range c.Counts {
		out[row] = make([]float64, len(counts))
		for col, v := range counts {
			out[row][col] = float64(v) * factors[col]
		}
	}
	return out
}
