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
	"fmt"
	"io"
	"os"
	"strings"
)

// Sink collects ordered log lines produced during a decode or merge run
// so that the caller can persist them next to the output files.
type Sink struct {
	lines []string
}

// Append formats a line and appends it to the sink.
func (s *Sink) Append(format string, v ...interface{}) {
	s.lines = append(s.lines, fmt.Sprintf(format, v...))
}

// Lines returns the collected lines in insertion order.
func (s *Sink) Lines() []string {
	return s.lines
}

// Extend appends all lines from another ordered source.
func (s *Sink) Extend(lines []string) {
	s.lines = append(s.lines, lines...)
}

// WriteTo writes the collected lines, one per line, to w.
func (s *Sink) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, strings.Join(s.lines, "\n")+"\n")
	return int64(n), err
}

// WriteFile persists the collected lines to path.
func (s *Sink) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
