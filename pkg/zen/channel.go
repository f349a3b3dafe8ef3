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
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SecondRecord is the validated per-second metadata carried by one stamp
type SecondRecord struct {
	Time        time.Time
	Seconds     float64 // seconds within the GPS week
	Lat         float64 // decimal degrees
	Lon         float64 // decimal degrees
	Temperature float32
}

// LockLossEvent marks an interval between stamps whose time delta was not
// exactly one second
type LockLossEvent struct {
	Index  int
	Offset int
	Delta  float64
}

// DecodedChannel is the reconstructed, physically contiguous sample
// sequence of one channel together with its per-second metadata. It is
// immutable once produced by the decoder.
type DecodedChannel struct {
	File     string
	Header   *Header
	Metadata *Metadata

	SampleRate int
	Samples    []float64 // millivolts
	Records    []SecondRecord

	ScheduledStart time.Time
	Start          time.Time // time of the first retained stamp

	StampOffsets []int
	LockLoss     []LockLossEvent
	DriftSeconds float64

	LogLines []string
}

// MedianPosition returns the median latitude and longitude across all
// retained stamps, in decimal degrees. Single bad fixes are common enough
// that the median is the value worth cataloging.
func (c *DecodedChannel) MedianPosition() (lat, lon float64) {
	if len(c.Records) == 0 {
		return 0, 0
	}
	lats := make([]float64, len(c.Records))
	lons := make([]float64, len(c.Records))
	for i, rec := range c.Records {
		lats[i] = rec.Lat
		lons[i] = rec.Lon
	}
	sort.Float64s(lats)
	sort.Float64s(lons)
	lat = stat.Quantile(0.5, stat.Empirical, lats, nil)
	lon = stat.Quantile(0.5, stat.Empirical, lons, nil)
	return lat, lon
}

// MeanTemperature returns the mean logger temperature across all retained
// stamps.
func (c *DecodedChannel) MeanTemperature() float64 {
	if len(c.Records) == 0 {
		return 0
	}
	temps := make([]float64, len(c.Records))
	for i, rec := range c.Records {
		temps[i] = float64(rec.Temperature)
	}
	return stat.Mean(temps, nil)
}

// Duration returns the length of the reconstructed series in whole
// seconds.
func (c *DecodedChannel) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)/c.SampleRate) * time.Second
}
