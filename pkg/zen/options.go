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

const (
	DefaultLeapSeconds         = 16
	DefaultStartTolerance      = 5
	DefaultSkipSampleTolerance = 5
	DefaultBoundaryStamps      = 10
	// DefaultCountsToMillivolts is the a/d conversion factor, 2^-30
	DefaultCountsToMillivolts = 9.5367431640625e-10
)

// Options carries the decode tolerances. They are deliberately not
// package constants: stations with a free-running oscillator need a wider
// start tolerance, and copy tooling bumps it to a minute before giving up
// on a file.
type Options struct {
	// LeapSeconds is the fixed GPS to UTC offset
	LeapSeconds int `json:"leapSeconds"`
	// StartTolerance bounds both the per-second marker retries and the
	// number of seconds the expected start may be nudged forward
	StartTolerance int `json:"startTolerance"`
	// SkipSampleTolerance is the allowed deviation, in samples, of the
	// byte span between consecutive stamps
	SkipSampleTolerance int `json:"skipSampleTolerance"`
	// BoundaryStamps is the size of the leading and trailing stamp
	// region inside which a bad interval trims the whole series
	BoundaryStamps int `json:"boundaryStamps"`
	// CountsToMillivolts scales raw counts to physical units
	CountsToMillivolts float64 `json:"countsToMillivolts"`
}

// DefaultOptions returns the tolerances matching the instrument firmware
// this decoder was written against.
func DefaultOptions() Options {
	return Options{
		LeapSeconds:         DefaultLeapSeconds,
		StartTolerance:      DefaultStartTolerance,
		SkipSampleTolerance: DefaultSkipSampleTolerance,
		BoundaryStamps:      DefaultBoundaryStamps,
		CountsToMillivolts:  DefaultCountsToMillivolts,
	}
}
