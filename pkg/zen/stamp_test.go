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
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// stampBytes assembles a raw stamp record, marker included, with the
// latitude and longitude expressed in radians.
func stampBytes(counter int32, latRad, lonRad float64, status, accuracy int32, temperature float32) []byte {
	buf := make([]byte, StampLength)
	binary.LittleEndian.PutUint32(buf[0:4], 0xffffffff)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(counter))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(latRad))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(lonRad))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(status))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(accuracy))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(temperature))
	return buf
}

func TestFindMarker(t *testing.T) {
	prefix := []byte{1, 2, 3}
	data := []byte{0x10, 0x20, 0x30, 0x40}

	// Extra sentinel bytes between the marker and the payload must all be
	// absorbed, so the settled marker always ends where the payload starts.
	for extra := 0; extra <= 4; extra++ {
		buf := append([]byte{}, prefix...)
		buf = append(buf, bytes.Repeat([]byte{0xff}, MarkerLength+extra)...)
		buf = append(buf, data...)

		idx := FindMarker(buf, 0)
		require.Equal(t, len(prefix)+extra, idx, "extra=%d", extra)
		require.Equal(t, len(prefix)+MarkerLength+extra, idx+MarkerLength, "extra=%d", extra)
	}
}

func TestFindMarkerAbsent(t *testing.T) {
	require.Equal(t, -1, FindMarker([]byte{1, 2, 0xff, 0xff, 0xff, 4}, 0))
	require.Equal(t, -1, FindMarker([]byte{0xff, 0xff, 0xff, 0xff}, 4))
	require.Equal(t, -1, FindMarker(nil, 0))
}

func TestFindMarkerFrom(t *testing.T) {
	buf := append(stampBytes(1024, 0.6, -2.0, 1, 10, 25.5), stampBytes(2048, 0.6, -2.0, 1, 10, 25.5)...)
	require.Equal(t, 0, FindMarker(buf, 0))
	require.Equal(t, StampLength, FindMarker(buf, rescanSkip))
}

func TestValidStamp(t *testing.T) {
	tb := Timebase{LeapSeconds: 16}

	buf := stampBytes(3*1024, 0.6, -2.0, 1, 10, 25.5)
	stamp, off, err := tb.ValidStamp(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 0, off)
	require.Equal(t, int32(3*1024), stamp.RawTime)
	require.Equal(t, 3.0, stamp.Seconds)
	require.Equal(t, 0, stamp.Week)
	require.InDelta(t, Degrees(0.6), stamp.Lat, 1e-12)
	require.InDelta(t, Degrees(-2.0), stamp.Lon, 1e-12)
	require.Equal(t, int32(1), stamp.Status)
	require.Equal(t, float32(25.5), stamp.Temperature)
}

func TestValidStampRescans(t *testing.T) {
	tb := Timebase{LeapSeconds: 16}

	rejected := [][]byte{
		stampBytes(-1024, 0.6, -2.0, 1, 10, 25.5),  // negative time
		stampBytes(3*1024, 0.6, -2.0, -2, 10, 25.5), // negative status
		stampBytes(3*1024, 0.6, -2.0, 1, 10, 120),   // implausible temperature
		stampBytes(3*1024, 4.0, -2.0, 1, 10, 25.5),  // latitude beyond pi
		stampBytes(3*1024, 1e-4, -2.0, 1, 10, 25.5), // near-zero latitude
	}
	good := stampBytes(5*1024, 0.6, -2.0, 1, 10, 25.5)

	for i, bad := range rejected {
		buf := append(append([]byte{}, bad...), good...)
		stamp, off, err := tb.ValidStamp(buf, 0)
		require.NoError(t, err, "case %d", i)
		require.Equal(t, StampLength, off, "case %d", i)
		require.Equal(t, 5.0, stamp.Seconds, "case %d", i)
	}
}

func TestValidStampTruncated(t *testing.T) {
	tb := Timebase{LeapSeconds: 16}

	buf := stampBytes(3*1024, 0.6, -2.0, 1, 10, 25.5)[:10]
	_, _, err := tb.ValidStamp(buf, 0)
	require.Error(t, err)
	var truncated ErrTruncatedStamp
	require.ErrorAs(t, err, &truncated)
	require.Equal(t, 0, truncated.Offset)
	require.Equal(t, 10, truncated.Remaining)
}

func TestValidStampNotFound(t *testing.T) {
	tb := Timebase{LeapSeconds: 16}

	_, _, err := tb.ValidStamp([]byte{1, 2, 3}, -1)
	var notFound ErrStampNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestSecondsOfWeek(t *testing.T) {
	s := Stamp{Seconds: 10, Week: 1}
	require.Equal(t, float64(WeekSeconds)+10, s.SecondsOfWeek())
}
