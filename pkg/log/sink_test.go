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

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSink(t *testing.T) {
	s := &Sink{}
	s.Append("reading %s", "mb001_ex.z3d")
	s.Extend([]string{"found 3600 gps time stamps", "starting time of time series is 2013-06-01,19:00:00 UTC"})
	s.Append("done")

	require.Equal(t, []string{
		"reading mb001_ex.z3d",
		"found 3600 gps time stamps",
		"starting time of time series is 2013-06-01,19:00:00 UTC",
		"done",
	}, s.Lines())

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, "reading mb001_ex.z3d\nfound 3600 gps time stamps\nstarting time of time series is 2013-06-01,19:00:00 UTC\ndone\n", buf.String())
}
