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
	"fmt"
)

// ErrSamplingRateMismatch returned when the channels to merge disagree on
// their sampling rate
type ErrSamplingRateMismatch struct {
	File string
	Rate int
	Want int
}

func (e ErrSamplingRateMismatch) Error() string {
	return fmt.Sprintf("%s: sampling rate %d does not match %d of the other channels", e.File, e.Rate, e.Want)
}

// ErrFormatIntegrity returned when a merged file frame fails its
// symmetric length check or the time series does not divide evenly across
// the recovered channels. It always indicates a corrupt or truncated
// file; reads are never retried.
type ErrFormatIntegrity struct {
	Section string
	Offset  int
	Reason  string
}

func (e ErrFormatIntegrity) Error() string {
	return fmt.Sprintf("%s frame at offset %d: %s", e.Section, e.Offset, e.Reason)
}
