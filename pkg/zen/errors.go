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
	"time"
)

// ErrStampNotFound returned when the marker search exhausts the buffer
// without settling on a valid GPS stamp
type ErrStampNotFound struct {
	Offset int
}

func (e ErrStampNotFound) Error() string {
	return fmt.Sprintf("No valid GPS stamp found past offset %d", e.Offset)
}

// ErrTruncatedStamp returned when decoding a stamp would read past the end of data
type ErrTruncatedStamp struct {
	Offset    int
	Remaining int
}

func (e ErrTruncatedStamp) Error() string {
	return fmt.Sprintf("GPS stamp at offset %d is truncated, only %d bytes left", e.Offset, e.Remaining)
}

// ErrGPSTiming returned when no stamp matches the scheduled start time
// within the configured tolerance window
type ErrGPSTiming struct {
	File      string
	Scheduled time.Time
	Estimate  time.Time
	Tolerance int
}

func (e ErrGPSTiming) Error() string {
	return fmt.Sprintf("%s: GPS start time is more than %d seconds different than scheduled start time of %s. Estimated start time is %s +/- %d sec",
		e.File, e.Tolerance, e.Scheduled.Format(TimeFormat), e.Estimate.Format(TimeFormat), e.Tolerance)
}

// ErrHeader returned when the fixed header block does not yield one of the
// values a decode cannot proceed without
type ErrHeader struct {
	File string
	Key  string
}

func (e ErrHeader) Error() string {
	return fmt.Sprintf("%s: header does not contain a usable value for %q", e.File, e.Key)
}

// ErrShortFile returned when the raw buffer is smaller than the fixed
// header and metadata blocks
type ErrShortFile struct {
	File string
	Size int
}

func (e ErrShortFile) Error() string {
	return fmt.Sprintf("%s: file is %d bytes, shorter than the %d byte header and metadata blocks",
		e.File, e.Size, HeaderLength+MetadataLength)
}
