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

package catalog

import (
	"fmt"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"usgs.gov/geomag/go-zen/pkg/log"
	"usgs.gov/geomag/go-zen/pkg/zen"
)

const bucketPrefix = "station_"

// Entry records one decoded recording or merge result
type Entry struct {
	File       string  `json:"file"`
	Station    string  `json:"station"`
	Component  string  `json:"component,omitempty"`
	Channel    string  `json:"channel,omitempty"`
	SampleRate int     `json:"sampleRate"`
	Start      string  `json:"start"`
	Stamps     int     `json:"stamps,omitempty"`
	MedianLat  float64 `json:"medianLat,omitempty"`
	MedianLon  float64 `json:"medianLon,omitempty"`
	Output     string  `json:"output,omitempty"`
}

// Catalog is a station-keyed index of everything this tool has decoded or
// merged, so repeated runs over the same SD card contents can be skipped.
type Catalog struct {
	DB *bbolt.DB
}

// Open opens or creates the catalog database.
func Open(path string) (*Catalog, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Catalog{DB: db}, nil
}

// Close ...
func (c *Catalog) Close() {
	c.DB.Close()
}

func bucketName(station string) []byte {
	return []byte(fmt.Sprintf("%s%s", bucketPrefix, station))
}

func entryKey(e *Entry) []byte {
	return []byte(fmt.Sprintf("%s_%s", e.Start, e.Component))
}

// EntryForChannel builds a catalog entry from a decoded channel.
func EntryForChannel(ch *zen.DecodedChannel) *Entry {
	lat, lon := ch.MedianPosition()
	e := &Entry{
		File:       ch.File,
		Station:    ch.Metadata.Station,
		Component:  ch.Metadata.Component,
		Channel:    ch.Metadata.ChannelNumber,
		SampleRate: ch.SampleRate,
		Stamps:     len(ch.Records),
		MedianLat:  lat,
		MedianLon:  lon,
	}
	if !ch.Start.IsZero() {
		e.Start = ch.Start.Format(zen.TimeFormat)
	}
	return e
}

// Put stores an entry under its station bucket.
func (c *Catalog) Put(e *Entry) error {
	log.Debug("cataloging %s %s %s", e.Station, e.Component, e.Start)
	return c.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(e.Station))
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(entryKey(e), data)
	})
}

// Station returns all entries recorded for one station.
func (c *Catalog) Station(station string) ([]*Entry, error) {
	var entries []*Entry
	err := c.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(station))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			e := &Entry{}
			if err := yaml.Unmarshal(v, e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Stations lists all stations present in the catalog.
func (c *Catalog) Stations() ([]string, error) {
	var stations []string
	err := c.DB.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			stations = append(stations, string(name[len(bucketPrefix):]))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return stations, nil
}
