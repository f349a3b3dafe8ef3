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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"usgs.gov/geomag/go-zen/pkg/zen"
)

// alignChannel fabricates a decoded channel starting at the given second,
// with seconds*rate samples valued base, base+1, ... so matrix cells can be
// traced back to their source.
func alignChannel(number, component string, startSec, seconds, rate int, base float64) *zen.DecodedChannel {
	start := time.Date(2013, time.June, 1, 19, 0, startSec, 0, time.UTC)
	ch := &zen.DecodedChannel{
		File:       "mb001_" + component + ".z3d",
		Header:     &zen.Header{SampleRate: rate, SerialNumber: "4598"},
		Metadata:   &zen.Metadata{ChannelNumber: number, Component: component, ElectrodeSpacing: "55", Station: "mb001"},
		SampleRate: rate,
		Start:      start,
	}
	ch.Samples = make([]float64, seconds*rate)
	for i := range ch.Samples {
		ch.Samples[i] = base + float64(i)
	}
	ch.Records = make([]zen.SecondRecord, seconds+1)
	for i := range ch.Records {
		ch.Records[i] = zen.SecondRecord{Time: start.Add(time.Duration(i) * time.Second)}
	}
	return ch
}

func TestAlignStaggeredStarts(t *testing.T) {
	channels := []*zen.DecodedChannel{
		alignChannel("1", "ex", 5, 10, 4, 1000),
		alignChannel("2", "ey", 3, 12, 4, 2000),
		alignChannel("3", "hx", 3, 11, 4, 3000),
	}

	a, err := Align(channels)
	require.NoError(t, err)
	require.Equal(t, 4, a.SampleRate)

	// The two channels starting at :03 each lose two seconds, then all
	// are trimmed to the shortest remaining series.
	require.Equal(t, 36, a.Length)
	require.Len(t, a.Matrix, 36)
	require.Equal(t, time.Date(2013, time.June, 1, 19, 0, 5, 0, time.UTC), a.Start)

	require.Equal(t, []float64{1000, 2008, 3008}, a.Matrix[0])
	require.Equal(t, []float64{1035, 2043, 3043}, a.Matrix[35])

	require.Len(t, a.Records, 10)
	require.Equal(t, a.Start, a.Records[0].Time)

	require.Len(t, a.Channels, 3)
	require.Equal(t, "ex", a.Channels[0].Component)
	require.Equal(t, "3", a.Channels[2].Number)
}

func TestAlignEqualStarts(t *testing.T) {
	channels := []*zen.DecodedChannel{
		alignChannel("1", "ex", 5, 10, 4, 1000),
		alignChannel("2", "hy", 5, 10, 4, 2000),
	}

	a, err := Align(channels)
	require.NoError(t, err)
	require.Equal(t, 40, a.Length)
	require.Equal(t, []float64{1000, 2000}, a.Matrix[0])
	require.Len(t, a.Records, 11)
}

func TestAlignSamplingRateMismatch(t *testing.T) {
	channels := []*zen.DecodedChannel{
		alignChannel("1", "ex", 5, 10, 4, 1000),
		alignChannel("2", "hy", 5, 10, 8, 2000),
	}

	_, err := Align(channels)
	var mismatch ErrSamplingRateMismatch
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 8, mismatch.Rate)
	require.Equal(t, 4, mismatch.Want)
}

func TestAlignNoChannels(t *testing.T) {
	_, err := Align(nil)
	require.Error(t, err)
}
