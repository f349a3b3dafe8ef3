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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recording builds synthetic raw channel files in memory. The schedule
// written into the header is the GPS rendering of the first stamp time,
// shifted by scheduleOffset when a timing fault is wanted.
type recording struct {
	rate           int
	start          time.Time // UTC time of the first stamp
	stamps         int
	scheduleOffset time.Duration
	extraSamples   map[int]int // interval index -> extra sample words
	skipFrom       int         // stamp index from which times jump one extra second
	counterExtra   int         // sub-second counter ticks added to every stamp
}

func (r recording) build() []byte {
	leap := 16
	epoch := time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)
	gps := int(r.start.Sub(epoch).Seconds()) + leap
	week := gps / WeekSeconds
	secs := gps % WeekSeconds

	schedule := r.start.Add(time.Duration(leap)*time.Second + r.scheduleOffset)
	header := make([]byte, HeaderLength)
	copy(header, fmt.Sprintf(
		"GPS Brd339 Receiver\nA/D Rate: %d\nA/D Gain: 1\nGpsWeek: %d\n"+
			"Schedule for this file: %s\n%s\nSerial: 4598\nPeriod: 0\nDuty: 255\n",
		r.rate, week, schedule.Format("2006-01-02"), schedule.Format("15:04:05")))

	metadata := make([]byte, MetadataLength)
	copy(metadata, "CH.NUMBER,1|CH.CMP,EX|CH.VARASP,55|RX.STN,MB001|TX.ID,0")

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(metadata)
	for i := 0; i < r.stamps; i++ {
		second := secs + i
		if r.skipFrom > 0 && i >= r.skipFrom {
			second++
		}
		buf.Write(stampBytes(int32(second*CounterRate+r.counterExtra), 0.6, -2.0, 1, 10, 25.5))
		if i == r.stamps-1 {
			break
		}
		words := r.rate + r.extraSamples[i]
		for p := 0; p < words; p++ {
			var sample [4]byte
			binary.LittleEndian.PutUint32(sample[:], uint32(i*r.rate+p+1))
			buf.Write(sample[:])
		}
	}
	return buf.Bytes()
}

func testStart() time.Time {
	return time.Date(2013, time.June, 1, 19, 0, 0, 0, time.UTC)
}

func TestDecode(t *testing.T) {
	rec := recording{rate: 8, start: testStart(), stamps: 30}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)
	require.Equal(t, 8, ch.SampleRate)
	require.Equal(t, "mb001", ch.Metadata.Station)
	require.Equal(t, "ex", ch.Metadata.Component)
	require.Equal(t, testStart(), ch.ScheduledStart)
	require.Equal(t, testStart(), ch.Start)

	require.Len(t, ch.Records, 30)
	require.Equal(t, testStart().Add(29*time.Second), ch.Records[29].Time)
	require.Len(t, ch.Samples, 29*8)
	require.Equal(t, 1*DefaultCountsToMillivolts, ch.Samples[0])
	require.Equal(t, 2*DefaultCountsToMillivolts, ch.Samples[1])

	require.Empty(t, ch.LockLoss)
	require.Zero(t, ch.DriftSeconds)
	require.Equal(t, 29*time.Second, ch.Duration())

	lat, lon := ch.MedianPosition()
	require.InDelta(t, Degrees(0.6), lat, 1e-9)
	require.InDelta(t, Degrees(-2.0), lon, 1e-9)
	require.InDelta(t, 25.5, ch.MeanTemperature(), 1e-5)
}

func TestDecodeSubSecondCounterResidue(t *testing.T) {
	// Counters rarely sit on an exact second; the schedule match is made
	// at second granularity, so the residue must not fail the decode.
	rec := recording{rate: 8, start: testStart(), stamps: 30, counterExtra: 100}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)
	require.Equal(t, testStart(), ch.Start.Truncate(time.Second))
	require.Len(t, ch.Records, 30)
	require.Empty(t, ch.LockLoss)
	require.Len(t, ch.Samples, 29*8)
}

func TestDecodeLockLossFlaggedNotTruncated(t *testing.T) {
	rec := recording{rate: 8, start: testStart(), stamps: 30, skipFrom: 15}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)

	require.Len(t, ch.LockLoss, 1)
	require.Equal(t, 14, ch.LockLoss[0].Index)
	require.Equal(t, 2.0, ch.LockLoss[0].Delta)

	// The series itself is kept in full.
	require.Len(t, ch.Records, 30)
	require.Len(t, ch.Samples, 29*8)
}

func TestDecodeTrimsUnstableLeadingStamps(t *testing.T) {
	rec := recording{
		rate:         8,
		start:        testStart(),
		stamps:       30,
		extraSamples: map[int]int{0: 10, 1: 10, 2: 10},
	}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)

	require.Len(t, ch.Records, 27)
	require.Equal(t, testStart().Add(3*time.Second), ch.Start)
	require.Len(t, ch.Samples, 26*8)
	require.Zero(t, ch.DriftSeconds)
}

func TestDecodeTrimsBoundaryEdgeStamp(t *testing.T) {
	// A bad interval at exactly the boundary stamp index still counts as
	// part of the leading region.
	rec := recording{
		rate:         8,
		start:        testStart(),
		stamps:       40,
		extraSamples: map[int]int{10: 10},
	}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)

	require.Len(t, ch.Records, 29)
	require.Equal(t, testStart().Add(11*time.Second), ch.Start)
	require.Len(t, ch.Samples, 28*8)
	require.Zero(t, ch.DriftSeconds)
}

func TestDecodeAbsorbsInteriorDrift(t *testing.T) {
	rec := recording{
		rate:         8,
		start:        testStart(),
		stamps:       30,
		extraSamples: map[int]int{15: 10},
	}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)

	// Interior deviation is kept, using the actual byte span.
	require.Len(t, ch.Records, 30)
	require.Len(t, ch.Samples, 29*8+10)
	require.Equal(t, 10.0/8.0, ch.DriftSeconds)
}

func TestDecodeGPSTiming(t *testing.T) {
	rec := recording{rate: 8, start: testStart(), stamps: 12, scheduleOffset: 30 * time.Second}
	d := NewDecoder(DefaultOptions())

	_, err := d.Decode("mb001_ex.z3d", rec.build())
	require.Error(t, err)
	var timing ErrGPSTiming
	require.ErrorAs(t, err, &timing)
	require.Equal(t, "mb001_ex.z3d", timing.File)
	require.Equal(t, testStart().Add(30*time.Second), timing.Scheduled)
}

func TestDecodeFirstStampPastSchedule(t *testing.T) {
	// The recording starts two seconds after the scheduled start; the
	// nudge loop must settle on the true first stamp.
	rec := recording{rate: 8, start: testStart(), stamps: 30, scheduleOffset: -2 * time.Second}
	d := NewDecoder(DefaultOptions())

	ch, err := d.Decode("mb001_ex.z3d", rec.build())
	require.NoError(t, err)
	require.Equal(t, testStart().Add(-2*time.Second), ch.ScheduledStart)
	require.Equal(t, testStart(), ch.Start)
	require.Len(t, ch.Records, 30)
	require.Contains(t, ch.LogLines, "first stamp is 2 seconds past the scheduled start")
}

func TestDecodeShortFile(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	_, err := d.Decode("stub.z3d", make([]byte, 100))
	var short ErrShortFile
	require.ErrorAs(t, err, &short)
	require.Equal(t, 100, short.Size)
}

func TestDecodeHeaderError(t *testing.T) {
	raw := make([]byte, HeaderLength+MetadataLength)
	copy(raw, "GpsWeek: 1742\nSchedule: 2013-06-01\n19:00:16\n")

	d := NewDecoder(DefaultOptions())
	_, err := d.Decode("stub.z3d", raw)
	var herr ErrHeader
	require.ErrorAs(t, err, &herr)
	require.Equal(t, "stub.z3d", herr.File)
	require.Equal(t, "a/d rate", herr.Key)
}
