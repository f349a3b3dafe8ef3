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
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"usgs.gov/geomag/go-zen/pkg/log"
	"usgs.gov/geomag/go-zen/pkg/zen"
)

const defaultChannelGain = "01-0"

// lowpassByRate maps the sampling rate to the hardware lowpass corner
// recorded in the metadata frame. Values come from the instrument vendor.
var lowpassByRate = map[int]string{
	256:  "112",
	1024: "576",
	4096: "1792",
}

// Codec frames aligned channel data into the merged container format and
// parses it back. Factor is the counts to millivolt conversion used to
// restore raw counts on write; it is recorded per channel in the metadata
// frame so readers can undo it.
type Codec struct {
	Factor float64
	Gain   string

	logLines []string
}

// NewCodec returns a Codec with the instrument's conversion factor.
func NewCodec() *Codec {
	return &Codec{
		Factor: zen.DefaultCountsToMillivolts,
		Gain:   defaultChannelGain,
	}
}

// LogLines returns the ordered warnings accumulated by the last Encode.
func (c *Codec) LogLines() []string {
	return c.logLines
}

// Encode emits the merged container: a navigation frame, a metadata
// frame, a calibration frame and the interleaved time series frame, each
// bounded by matching length fields.
func (c *Codec) Encode(a *Aligned) ([]byte, error) {
	if len(a.Channels) == 0 {
		return nil, fmt.Errorf("nothing to encode: no channels")
	}
	c.logLines = nil
	buf := &bytes.Buffer{}

	appendFrame(buf, TypeNav, make([]byte, navLength-2))
	appendFrame(buf, TypeMeta, []byte(c.buildMetadata(a)))
	appendFrame(buf, TypeCal, []byte(calibrationText(len(a.Channels))))
	appendFrame(buf, TypeTS, c.packSeries(a))

	return buf.Bytes(), nil
}

// packSeries interleaves the matrix row-major as raw int32 counts. A
// sample whose restored count exceeds the signed 32-bit range is clamped
// to the maximum magnitude with its sign preserved; the event is logged
// and never fatal.
func (c *Codec) packSeries(a *Aligned) []byte {
	out := make([]byte, 0, a.Length*len(a.Channels)*4)
	word := make([]byte, 4)
	for row := 0; row < a.Length; row++ {
		for col, v := range a.Matrix[row] {
			counts := math.Round(v / c.Factor)
			if counts > math.MaxInt32 || counts < math.MinInt32 {
				clamped := int32(math.MaxInt32)
				if counts < 0 {
					clamped = math.MinInt32
				}
				c.logLines = append(c.logLines,
					fmt.Sprintf("clipped sample for channel %d at point %d", col, row))
				log.Warning("clipped sample for channel %d at point %d", col, row)
				counts = float64(clamped)
			}
			binary.LittleEndian.PutUint32(word, uint32(int32(counts)))
			out = append(out, word...)
		}
	}
	return out
}

// buildMetadata renders the metadata frame: the fixed key template with
// per-channel attributes appended, one key per line, keys sorted
// lexicographically. List-valued entries keep a leading comma so the
// reader recovers one element per channel.
func (c *Codec) buildMetadata(a *Aligned) string {
	meta := map[string]string{
		"SURVEY.ACQMETHOD": ",timeseries",
		"SURVEY.TYPE":      ",",
		"LENGTH.UNITS":     ",m",
		"DATA.DATE0":       "",
		"DATA.TIME0":       "",
		"TS.ADFREQ":        "",
		"TS.NPNT":          "",
		"CH.NUNOM":         ",",
		"CH.FACTOR":        "",
		"CH.GAIN":          "",
		"CH.NUMBER":        "",
		"CH.CMP":           "",
		"CH.LENGTH":        "",
		"CH.EXTGAIN":       "",
		"CH.NOTCH":         "",
		"CH.HIGHPASS":      "",
		"CH.LOWPASS":       "",
		"CH.ADCARDSN":      "",
		"CH.STATUS":        ",",
		"CH.SP":            ",",
		"CH.GDPSLOT":       ",",
		"RX.STN":           "",
		"RX.AZIMUTH":       ",",
		"LINE.NAME":        ",",
		"LINE.NUMBER":      ",",
		"LINE.DIRECTION":   ",",
		"LINE.SPREAD":      ",",
		"JOB.NAME":         ",",
		"JOB.FOR":          ",",
		"JOB.BY":           ",",
		"JOB.NUMBER":       ",",
		"GDP.File":         ",",
		"GDP.SN":           ",",
		"GDP.TCARDSN":      ",",
		"GDP.NUMCARD":      ",",
		"GDP.ADCARDSN":     ",",
		"GDP.ADCARDSND":    ",",
		"GDP.CARDTYPE":     ",",
		"GDP.BAT":          ",",
		"GDP.TEMP":         ",",
		"GDP.HUMID":        ",",
		"TS.NCYCLE":        ",",
		"TS.NWAVEFORM":     ",",
		"TS.DECFAC":        ",",
		"TX.SN,NONE":       ",",
		"TX.STN":           ",",
		"TX.FREQ":          ",",
		"TX.DUTY":          ",",
		"TX.AMP":           ",",
		"TX.SHUNT":         ",",
	}

	start := a.Start.Format(zen.TimeFormat)
	dateTime := strings.SplitN(start, ",", 2)
	meta["DATA.DATE0"] = "," + dateTime[0]
	meta["DATA.TIME0"] = "," + dateTime[1]
	meta["TS.ADFREQ"] = fmt.Sprintf(",%d", a.SampleRate)
	meta["TS.NPNT"] = fmt.Sprintf(",%d", a.Length)

	lowpass, ok := lowpassByRate[a.SampleRate]
	if !ok {
		lowpass = "NONE"
	}
	for _, ch := range a.Channels {
		meta["CH.FACTOR"] += fmt.Sprintf(",%v", c.Factor)
		meta["CH.GAIN"] += "," + c.Gain
		meta["CH.CMP"] += "," + strings.ToUpper(ch.Component)
		meta["CH.LENGTH"] += "," + ch.ElectrodeSpacing
		meta["CH.EXTGAIN"] += ",1"
		meta["CH.NOTCH"] += ",NONE"
		meta["CH.HIGHPASS"] += ",NONE"
		meta["CH.LOWPASS"] += "," + lowpass
		meta["CH.ADCARDSN"] += "," + ch.SerialNumber
		meta["CH.NUMBER"] += "," + ch.Number
		meta["RX.STN"] += "," + ch.Station
	}

	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(meta[key])
		b.WriteByte('\n')
	}
	return b.String()
}

// calibrationText synthesizes the fixed-pattern calibration placeholder.
// Real calibrations live in the instrument, not in the raw files, so the
// merged file carries one zeroed table per channel.
func calibrationText(channels int) string {
	table := " 0.000000: " + strings.Repeat("0.000000      0.000000,", 3)
	first := "HEADER.TYPE,Calibrate\nCAL.VER,019\nCAL.SYS,0000," + strings.Repeat(table, 27)
	rest := "\nCAL.SYS,0000," + strings.Repeat(table, 27)
	text := first + strings.Repeat(rest, channels-1)
	return text[:len(text)-1] + "\n"
}
