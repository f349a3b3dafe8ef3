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
	"errors"
	"fmt"
	"time"

	"usgs.gov/geomag/go-zen/pkg/log"
	"usgs.gov/geomag/go-zen/pkg/zen"
)

// ChannelInfo is the identity a channel carries into the metadata frame
type ChannelInfo struct {
	Component        string
	Number           string
	SerialNumber     string
	ElectrodeSpacing string
	Station          string
}

// Aligned is a rectangular sample matrix reconciled across channels,
// together with the shared per-second metadata sequence.
type Aligned struct {
	SampleRate int
	Length     int
	// Matrix holds millivolt samples, one row per sample instant and
	// one column per channel.
	Matrix   [][]float64
	Records  []zen.SecondRecord
	Channels []ChannelInfo
	Start    time.Time

	LogLines []string
}

// Align reconciles independently decoded channels into one rectangular
// matrix. All channels must share a sampling rate. Channels whose first
// stamp lands on an earlier second than the latest-starting channel have
// that many seconds of leading samples dropped, and every channel is then
// trimmed to the shortest remaining length.
func Align(channels []*zen.DecodedChannel) (*Aligned, error) {
	if len(channels) == 0 {
		return nil, errors.New("no channels to align")
	}

	rate := channels[0].SampleRate
	for _, ch := range channels {
		if ch.SampleRate != rate {
			return nil, ErrSamplingRateMismatch{File: ch.File, Rate: ch.SampleRate, Want: rate}
		}
	}

	a := &Aligned{SampleRate: rate}

	// The stagger between channels is at most a few seconds, so the
	// seconds field of the first stamp is enough to line them up.
	maxSec := 0
	for _, ch := range channels {
		if ch.Start.Second() > maxSec {
			maxSec = ch.Start.Second()
		}
	}

	samples := make([][]float64, len(channels))
	records := make([][]zen.SecondRecord, len(channels))
	for i, ch := range channels {
		skip := maxSec - ch.Start.Second()
		if skip > 0 {
			a.appendLog("dropping %d leading seconds from channel %s (%s)", skip, ch.Metadata.ChannelNumber, ch.Metadata.Component)
			log.Info("%s: dropping %d leading seconds to align start times", ch.File, skip)
		}
		sampleSkip := skip * rate
		if sampleSkip > len(ch.Samples) {
			sampleSkip = len(ch.Samples)
		}
		if skip > len(ch.Records) {
			skip = len(ch.Records)
		}
		samples[i] = ch.Samples[sampleSkip:]
		records[i] = ch.Records[skip:]
	}

	minLen := len(samples[0])
	minRecords := len(records[0])
	for i := 1; i < len(samples); i++ {
		if len(samples[i]) < minLen {
			minLen = len(samples[i])
		}
		if len(records[i]) < minRecords {
			minRecords = len(records[i])
		}
	}
	if want := minLen/rate + 1; minRecords > want {
		minRecords = want
	}

	a.Length = minLen
	a.Matrix = make([][]float64, minLen)
	for row := 0; row < minLen; row++ {
		a.Matrix[row] = make([]float64, len(channels))
		for col := range channels {
			a.Matrix[row][col] = samples[col][row]
		}
	}
	a.Records = records[0][:minRecords]
	if minRecords > 0 {
		a.Start = a.Records[0].Time
	}

	for i, ch := range channels {
		a.Channels = append(a.Channels, ChannelInfo{
			Component:        ch.Metadata.Component,
			Number:           ch.Metadata.ChannelNumber,
			SerialNumber:     ch.Header.SerialNumber,
			ElectrodeSpacing: ch.Metadata.ElectrodeSpacing,
			Station:          ch.Metadata.Station,
		})
		a.appendLog("ts length for channel %s (%s) = %d, T0 = %s",
			ch.Metadata.ChannelNumber, ch.Metadata.Component, len(samples[i]), a.Start.Format(zen.TimeFormat))
	}
	return a, nil
}

func (a *Aligned) appendLog(format string, v ...interface{}) {
	a.LogLines = append(a.LogLines, fmt.Sprintf(format, v...))
}
