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
)

const (
	// StampLength is the fixed size of a GPS stamp record in bytes
	StampLength = 36
	// MarkerLength is the number of sentinel bytes forming the stamp marker
	MarkerLength = 4

	markerByte = 0xff
	// markerMaxSlide bounds the ambiguity correction in FindMarker.
	// The low byte of the raw time counter can legitimately be 0xff,
	// extending the sentinel run past the true marker start.
	markerMaxSlide = 4

	// rescanSkip is how far past a rejected stamp offset the next
	// marker search starts
	rescanSkip = 7
)

var markerPattern = []byte{markerByte, markerByte, markerByte, markerByte}

// Stamp is one decoded GPS synchronization record
type Stamp struct {
	RawTime     int32
	Seconds     float64 // seconds within the GPS week
	Week        int     // weeks rolled over while converting RawTime, 0 or 1
	Lat         float64 // decimal degrees
	Lon         float64 // decimal degrees
	Status      int32
	Accuracy    int32
	Temperature float32
}

// SecondsOfWeek returns Seconds with any rollover folded back in, so that
// deltas across a week boundary stay monotonic.
func (s *Stamp) SecondsOfWeek() float64 {
	return float64(s.Week)*WeekSeconds + s.Seconds
}

// FindMarker returns the offset of the next marker occurrence at or after
// from, or -1 when the buffer holds no further marker. When the byte
// immediately following the four sentinel bytes is itself the sentinel the
// candidate is advanced by one byte and re-checked, at most markerMaxSlide
// times. This correction is a bounded heuristic, not a proof that the
// settled offset is a true stamp start.
func FindMarker(buf []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(buf) {
		return -1
	}
	idx := bytes.Index(buf[from:], markerPattern)
	if idx < 0 {
		return -1
	}
	idx += from
	for slide := 0; slide < markerMaxSlide; slide++ {
		if idx+MarkerLength >= len(buf) || buf[idx+MarkerLength] != markerByte {
			break
		}
		idx++
	}
	return idx
}

// decodeStampAt decodes the fixed little-endian stamp layout at off.
// The caller must guarantee that StampLength bytes are available.
func decodeStampAt(buf []byte, off int) (rawTime int32, lat, lon float64, status, accuracy int32, temperature float32) {
	rawTime = int32(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
	lat = math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8 : off+16]))
	lon = math.Float64frombits(binary.LittleEndian.Uint64(buf[off+16 : off+24]))
	status = int32(binary.LittleEndian.Uint32(buf[off+24 : off+28]))
	accuracy = int32(binary.LittleEndian.Uint32(buf[off+28 : off+32]))
	temperature = math.Float32frombits(binary.LittleEndian.Uint32(buf[off+32 : off+36]))
	return
}

// ValidStamp decodes the stamp at the candidate marker offset off, retrying
// forward whenever a decoded field is implausible. Each rejected candidate
// restarts the marker search rescanSkip bytes past the rejection point, so a
// sentinel run inside the sample words cannot pin the scan. The returned
// offset is where the accepted stamp actually starts.
//
// Validation gates, applied in order: negative decoded time, negative
// status, |temperature| > 80, |latitude| > pi, and a latitude magnitude
// below 1e-3 radians which indicates a misaligned read. On success latitude
// and longitude are converted from radians to decimal degrees.
func (tb Timebase) ValidStamp(buf []byte, off int) (*Stamp, int, error) {
	for {
		if off < 0 {
			return nil, off, ErrStampNotFound{Offset: len(buf)}
		}
		if off+StampLength > len(buf) {
			return nil, off, ErrTruncatedStamp{Offset: off, Remaining: len(buf) - off}
		}
		rawTime, lat, lon, status, accuracy, temperature := decodeStampAt(buf, off)
		seconds, week := tb.RawTimeToSeconds(rawTime, 0)
		switch {
		case seconds < 0:
		case status < 0:
		case math.Abs(float64(temperature)) > 80:
		case math.Abs(lat) > math.Pi:
		case math.Log10(math.Abs(lat)) < -3:
		default:
			return &Stamp{
				RawTime:     rawTime,
				Seconds:     seconds,
				Week:        week,
				Lat:         Degrees(lat),
				Lon:         Degrees(lon),
				Status:      status,
				Accuracy:    accuracy,
				Temperature: temperature,
			}, off, nil
		}
		off = FindMarker(buf, off+rescanSkip)
	}
}
