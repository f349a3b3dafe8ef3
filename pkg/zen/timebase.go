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
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// WeekSeconds is the length of a GPS week
	WeekSeconds = 604800
	// CounterRate is the number of raw counter ticks per second
	CounterRate = 1024
	// TimeFormat is the calendar representation used throughout the
	// header text and log output
	TimeFormat = "2006-01-02,15:04:05"

	// fracScale converts the sub-second counter remainder to seconds.
	// The counter tick is not exactly 1/1024 s; the logger firmware
	// spreads the residue over the fractional part.
	fracScale = 1.024
)

// gpsEpoch is the start of GPS week zero.
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// Timebase converts raw GPS counter values and nominal schedule times into
// UTC. LeapSeconds is the fixed offset between GPS time and UTC for the
// vintage of recordings being decoded.
type Timebase struct {
	LeapSeconds int
}

// RawTimeToSeconds interprets counter as 1024ths of a second and returns
// seconds within the GPS week together with the week number, incrementing
// the week and wrapping the seconds when the counter has run past a week
// boundary.
func (tb Timebase) RawTimeToSeconds(counter int32, week int) (float64, int) {
	seconds := float64(counter) / CounterRate
	frac := (seconds - math.Floor(seconds)) * fracScale
	if seconds >= WeekSeconds {
		week++
		seconds -= WeekSeconds
	}
	return math.Floor(seconds) + frac, week
}

// StampTime returns the UTC instant of a stamp given its GPS week and
// seconds within the week.
func (tb Timebase) StampTime(week int, seconds float64) time.Time {
	whole := math.Floor(seconds)
	frac := seconds - whole
	return gpsEpoch.
		Add(time.Duration(week*WeekSeconds+int(whole)-tb.LeapSeconds) * time.Second).
		Add(time.Duration(frac * float64(time.Second)))
}

// SecondsToCalendar formats the UTC instant of a stamp as a calendar
// string. The sub-second remainder is folded back in before the value is
// truncated to whole seconds for display.
func (tb Timebase) SecondsToCalendar(week int, seconds float64) string {
	return tb.StampTime(week, seconds).Format(TimeFormat)
}

// ScheduleToUTC converts a nominal scheduled start, as written into the
// recording header, to the UTC instant the first stamp should carry. The
// schedule is expressed in GPS time, so the leap second offset is
// subtracted. Borrow across minute, hour, day and month boundaries is
// handled by the time package, which unlike the original instrument
// software is leap-year aware.
func (tb Timebase) ScheduleToUTC(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeFormat, strings.TrimSpace(date)+","+strings.TrimSpace(clock), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable schedule %q %q: %w", date, clock, err)
	}
	return t.Add(-time.Duration(tb.LeapSeconds) * time.Second), nil
}

// Degrees converts a radian latitude or longitude to decimal degrees
func Degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
