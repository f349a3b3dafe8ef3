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
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"usgs.gov/geomag/go-zen/pkg/log"
)

// Decoder reconstructs one channel's contiguous sample sequence from a
// raw recording.
type Decoder struct {
	opts Options
	tb   Timebase
}

// NewDecoder creates a Decoder with the given tolerances.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{
		opts: opts,
		tb:   Timebase{LeapSeconds: opts.LeapSeconds},
	}
}

// Timebase returns the converter the decoder uses, so callers can render
// stamp times consistently.
func (d *Decoder) Timebase() Timebase {
	return d.tb
}

// DecodeFile reads and decodes a raw channel file.
func (d *Decoder) DecodeFile(path string) (*DecodedChannel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Decode(path, raw)
}

// Decode reconstructs the channel recorded in raw. The name is carried
// into log lines and errors so a failed decode points back at its file.
//
// The first stamp must agree with the scheduled start derived from the
// header. While it does not, the search advances through successive
// markers up to the start tolerance, then nudges the expected start
// forward one second and starts over; exceeding the outer bound fails
// with ErrGPSTiming. The surviving stamps are then walked one expected
// second at a time. Intervals whose time delta is not one second are
// flagged as lock loss but kept. Intervals whose byte span deviates from
// the nominal sampling_rate*4 bytes by more than the skip tolerance mark
// the series as unstable near session boundaries: such intervals inside
// the leading or trailing boundary region trim the series, interior ones
// are absorbed by copying the actual span.
func (d *Decoder) Decode(name string, raw []byte) (*DecodedChannel, error) {
	if len(raw) < HeaderLength+MetadataLength {
		return nil, ErrShortFile{File: name, Size: len(raw)}
	}

	hdr, err := ParseHeader(raw[:HeaderLength])
	if err != nil {
		if herr, ok := err.(ErrHeader); ok {
			herr.File = name
			return nil, herr
		}
		return nil, err
	}
	// The metadata text begins one byte before the 512-byte boundary.
	meta := ParseMetadata(raw[HeaderLength-1 : HeaderLength+MetadataLength])

	ch := &DecodedChannel{
		File:       name,
		Header:     hdr,
		Metadata:   meta,
		SampleRate: hdr.SampleRate,
	}
	ch.appendLog("reading %s", name)

	scheduled, err := d.tb.ScheduleToUTC(hdr.ScheduleDate, hdr.ScheduleTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ch.ScheduledStart = scheduled

	first, firstOff, err := d.findStart(name, raw, hdr, ch)
	if err != nil {
		return nil, err
	}

	stamps, offsets := d.walkStamps(raw, first, firstOff)
	d.flagLockLoss(ch, stamps, offsets)

	lo, hi := d.trimBounds(ch, stamps, offsets, hdr.SampleRate)
	stamps = stamps[lo:hi]
	offsets = offsets[lo:hi]

	d.copySamples(ch, raw, offsets, hdr.SampleRate)

	ch.StampOffsets = offsets
	ch.Records = make([]SecondRecord, len(stamps))
	for i, st := range stamps {
		ch.Records[i] = SecondRecord{
			Time:        d.tb.StampTime(hdr.GPSWeek+st.Week, st.Seconds),
			Seconds:     st.SecondsOfWeek(),
			Lat:         st.Lat,
			Lon:         st.Lon,
			Temperature: st.Temperature,
		}
	}
	if len(ch.Records) > 0 {
		ch.Start = ch.Records[0].Time
		ch.appendLog("found %d gps time stamps with equal intervals of %d samples", len(stamps), hdr.SampleRate)
		ch.appendLog("starting time of time series is %s UTC", ch.Start.Format(TimeFormat))
		log.Info("%s: %d stamps, series starts %s UTC", name, len(stamps), ch.Start.Format(TimeFormat))
	} else {
		ch.appendLog("no quality data was collected")
		log.Warning("%s: no quality data was collected", name)
	}
	return ch, nil
}

// findStart locates the first stamp whose decoded UTC time matches the
// expected scheduled start, within the configured tolerance window.
func (d *Decoder) findStart(name string, raw []byte, hdr *Header, ch *DecodedChannel) (*Stamp, int, error) {
	dataStart := HeaderLength + MetadataLength
	expected := ch.ScheduledStart

	stamp, off, err := d.tb.ValidStamp(raw, FindMarker(raw, dataStart))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}

	// Counters rarely sit on an exact second; the schedule is only good
	// to a second, so the match is made at that granularity.
	inner, outer := 0, 0
	for !d.tb.StampTime(hdr.GPSWeek+stamp.Week, stamp.Seconds).Truncate(time.Second).Equal(expected) {
		if outer >= d.opts.StartTolerance {
			return nil, 0, ErrGPSTiming{
				File:      name,
				Scheduled: ch.ScheduledStart,
				Estimate:  d.tb.StampTime(hdr.GPSWeek+stamp.Week, stamp.Seconds),
				Tolerance: d.opts.StartTolerance,
			}
		}
		inner++
		if inner >= d.opts.StartTolerance {
			// Expected start may simply be off: nudge it forward a
			// second and restart the marker walk from the top.
			inner = 0
			outer++
			expected = expected.Add(time.Second)
			stamp, off, err = d.tb.ValidStamp(raw, FindMarker(raw, dataStart))
		} else {
			stamp, off, err = d.tb.ValidStamp(raw, FindMarker(raw, off+rescanSkip))
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", name, err)
		}
	}
	if !expected.Equal(ch.ScheduledStart) {
		offBy := int(expected.Sub(ch.ScheduledStart).Seconds())
		ch.appendLog("first stamp is %d seconds past the scheduled start", offBy)
		log.Warning("%s: first stamp is %d seconds past the scheduled start", name, offBy)
	}
	return stamp, off, nil
}

// walkStamps collects stamps forward from the accepted first one until the
// end of the buffer. Truncated or missing stamps terminate the walk; they
// are expected at the tail of every recording.
func (d *Decoder) walkStamps(raw []byte, first *Stamp, firstOff int) ([]*Stamp, []int) {
	stamps := []*Stamp{first}
	offsets := []int{firstOff}
	for {
		next := FindMarker(raw, offsets[len(offsets)-1]+rescanSkip)
		if next < 0 {
			break
		}
		stamp, off, err := d.tb.ValidStamp(raw, next)
		if err != nil {
			log.Debug("stamp walk stopped: %s", err)
			break
		}
		if off == offsets[len(offsets)-1] {
			break
		}
		stamps = append(stamps, stamp)
		offsets = append(offsets, off)
	}
	return stamps, offsets
}

// flagLockLoss records intervals whose stamp time delta is not exactly one
// second. A zero delta is a duplicated stamp, not a lock loss.
func (d *Decoder) flagLockLoss(ch *DecodedChannel, stamps []*Stamp, offsets []int) {
	for i := 0; i < len(stamps)-1; i++ {
		delta := stamps[i+1].SecondsOfWeek() - stamps[i].SecondsOfWeek()
		if delta == 1.0 || delta == 0 {
			continue
		}
		ch.LockLoss = append(ch.LockLoss, LockLossEvent{Index: i, Offset: offsets[i], Delta: delta})
		ch.appendLog("bad gps lock at offset %d, gps diff %g", offsets[i], delta)
		log.Warning("%s: bad gps lock at offset %d, gps diff %g", ch.File, offsets[i], delta)
	}
}

// trimBounds marks intervals whose byte span deviates from the nominal
// one by more than the skip tolerance and, when such intervals fall within
// the boundary regions, returns the stamp range that excludes them. The
// instrument's internal clock is unstable while it switches sampling
// rates, so bad boundary intervals condemn the whole leading or trailing
// region.
func (d *Decoder) trimBounds(ch *DecodedChannel, stamps []*Stamp, offsets []int, rate int) (int, int) {
	lo, hi := 0, len(stamps)
	for i := 0; i < len(offsets)-1; i++ {
		dev := (offsets[i+1] - offsets[i] - StampLength - rate*4) / 4
		if dev < 0 {
			dev = -dev
		}
		if dev <= d.opts.SkipSampleTolerance {
			continue
		}
		if i <= d.opts.BoundaryStamps && i+1 > lo {
			lo = i + 1
		}
		if i >= len(stamps)-d.opts.BoundaryStamps && i < hi {
			hi = i
		}
	}
	if lo > 0 || hi < len(stamps) {
		ch.appendLog("trimmed unstable boundary stamps, keeping %d..%d of %d", lo, hi, len(stamps))
		log.Warning("%s: trimmed unstable boundary stamps, keeping %d..%d of %d", ch.File, lo, hi, len(stamps))
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// copySamples copies the sample words between consecutive stamp offsets
// into one contiguous buffer, scaled to millivolts. The actual byte span
// is used rather than the nominal one, so interior drift is absorbed
// without misaligning later stamps.
func (d *Decoder) copySamples(ch *DecodedChannel, raw []byte, offsets []int, rate int) {
	if len(offsets) < 2 {
		return
	}
	ch.Samples = make([]float64, 0, (len(offsets)-1)*rate)
	drift := 0
	for i := 0; i < len(offsets)-1; i++ {
		from := offsets[i] + StampLength
		to := offsets[i+1]
		drift += (to - from - rate*4) / 4
		for p := from; p+4 <= to; p += 4 {
			counts := int32(binary.LittleEndian.Uint32(raw[p : p+4]))
			ch.Samples = append(ch.Samples, float64(counts)*d.opts.CountsToMillivolts)
		}
	}
	if drift != 0 {
		ch.DriftSeconds = float64(drift) / float64(rate)
		ch.appendLog("time series is off by %g seconds", ch.DriftSeconds)
		log.Warning("%s: time series is off by %g seconds", ch.File, ch.DriftSeconds)
	}
}

func (ch *DecodedChannel) appendLog(format string, v ...interface{}) {
	ch.LogLines = append(ch.LogLines, fmt.Sprintf(format, v...))
}
