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
	"strconv"
	"strings"

	"usgs.gov/geomag/go-zen/pkg/log"
)

const (
	// HeaderLength is the fixed size of the free-text header block
	HeaderLength = 512
	// MetadataLength is the fixed size of the per-channel metadata block
	MetadataLength = 512
)

// Header holds the recognized fields of the 512-byte header block.
// Unrecognized keys are retained in Unknown and reported, never fatal.
type Header struct {
	SampleRate   int     // samples per second
	Gain         float64 // a/d gain
	GPSWeek      int
	ScheduleDate string // YYYY-MM-DD
	ScheduleTime string // hh:mm:ss
	SerialNumber string // a/d board serial
	Period       string // duplicated keys arrive concatenated
	Duty         string
	Unknown      map[string]string
}

// Metadata holds the recognized fields of the 512-byte per-channel
// metadata block.
type Metadata struct {
	ChannelNumber    string
	Component        string
	ElectrodeSpacing string
	Station          string
	TxID             string
	Unknown          map[string]string
}

// headerFields splits the header text the way the logger writes it:
// newline and comma both terminate a field.
func headerFields(text string) []string {
	text = strings.Map(func(r rune) rune {
		if r == '\x00' {
			return -1
		}
		return r
	}, text)
	return strings.Split(strings.ReplaceAll(text, "\n", ","), ",")
}

// ParseHeader parses the header block into its recognized fields. The
// parser is tolerant: malformed fields are skipped, unrecognized keys are
// collected and reported through the logger. Duplicated period and duty
// keys have their values concatenated, a bare hh:mm:ss field carries the
// scheduled start time, and the compound build-date line is split on its
// own separators.
func ParseHeader(block []byte) (*Header, error) {
	raw := map[string]string{}
	for _, field := range headerFields(string(block)) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), "builddate") {
			// The build-date line packs several key:value pairs
			// separated by ';' and '&'.
			for _, part := range strings.Split(field, ";") {
				for _, kv := range strings.Split(part, "&") {
					putHeaderPair(raw, kv)
				}
			}
			continue
		}
		switch parts := strings.Split(field, ":"); len(parts) {
		case 2:
			key := strings.ToLower(strings.TrimSpace(parts[0]))
			value := strings.TrimSpace(parts[1])
			if key == "period" || key == "duty" {
				raw[key] += value
			} else {
				raw[key] = value
			}
		case 3:
			// A bare hh:mm:ss field is the scheduled start time.
			raw["start_time"] = field
		}
	}

	hdr := &Header{Unknown: map[string]string{}}
	var err error
	for key, value := range raw {
		switch key {
		case "a/d rate":
			if hdr.SampleRate, err = strconv.Atoi(value); err != nil {
				return nil, ErrHeader{Key: "a/d rate"}
			}
		case "a/d gain":
			if hdr.Gain, err = strconv.ParseFloat(value, 64); err != nil {
				return nil, ErrHeader{Key: "a/d gain"}
			}
		case "gpsweek":
			if hdr.GPSWeek, err = strconv.Atoi(value); err != nil {
				return nil, ErrHeader{Key: "gpsweek"}
			}
		case "schedule for this file", "schedule":
			hdr.ScheduleDate = value
		case "start_time":
			hdr.ScheduleTime = value
		case "serial", "brd339 serial":
			hdr.SerialNumber = value
		case "period":
			hdr.Period = value
		case "duty":
			hdr.Duty = value
		default:
			hdr.Unknown[key] = value
		}
	}
	for key := range hdr.Unknown {
		log.Debug("unrecognized header key %q", key)
	}

	switch {
	case hdr.SampleRate == 0:
		return nil, ErrHeader{Key: "a/d rate"}
	case hdr.GPSWeek == 0:
		return nil, ErrHeader{Key: "gpsweek"}
	case hdr.ScheduleDate == "":
		return nil, ErrHeader{Key: "schedule"}
	case hdr.ScheduleTime == "":
		return nil, ErrHeader{Key: "start_time"}
	}
	return hdr, nil
}

func putHeaderPair(raw map[string]string, kv string) {
	parts := strings.SplitN(kv, ":", 2)
	if len(parts) != 2 {
		return
	}
	raw[strings.ToLower(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
}

// ParseMetadata parses the per-channel metadata block. Fields are
// separated by newlines or '|', each one a comma separated key,value pair.
// Flux-gate component names use a 'b' prefix on some firmware revisions;
// those are normalized to the 'h' magnetic naming.
func ParseMetadata(block []byte) *Metadata {
	meta := &Metadata{Unknown: map[string]string{}}
	text := strings.Map(func(r rune) rune {
		if r == '\x00' {
			return -1
		}
		return r
	}, string(block))
	for _, field := range strings.Split(strings.ReplaceAll(text, "\n", "|"), "|") {
		parts := strings.Split(field, ",")
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.ToLower(strings.TrimSpace(parts[1]))
		switch key {
		case "ch.number":
			meta.ChannelNumber = value
		case "ch.cmp":
			meta.Component = strings.ReplaceAll(value, "b", "h")
		case "ch.varasp":
			meta.ElectrodeSpacing = value
		case "rx.stn":
			meta.Station = value
		case "tx.id":
			meta.TxID = value
		default:
			meta.Unknown[key] = value
		}
	}
	for key := range meta.Unknown {
		log.Debug("unrecognized metadata key %q", key)
	}
	return meta
}
