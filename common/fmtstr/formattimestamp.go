// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package fmtstr formats timestamps for generated filenames.
package fmtstr

import (
	"fmt"
	"time"
)

const defaultLayout = "20060102_150405"

// TimestampFormatString wraps a Go time layout used to expand a
// timestamp into its segment-filename representation (storage §6
// filename convention). Config-unpackable the same way the teacher's
// event-aware variant satisfied go-ucfg's Unpacker interface.
type TimestampFormatString struct {
	layout string
}

// NewTimestampFormatString builds a formatter from a Go time layout
// string; an empty layout falls back to the storage package's default
// segment filename timestamp shape.
func NewTimestampFormatString(layout string) *TimestampFormatString {
	if layout == "" {
		layout = defaultLayout
	}
	return &TimestampFormatString{layout: layout}
}

// Run expands t against the configured layout, in UTC (segment
// filenames must sort consistently across timezones).
func (fs *TimestampFormatString) Run(t time.Time) string {
	return t.UTC().Format(fs.layout)
}

func (fs *TimestampFormatString) String() string {
	return fs.layout
}

// Unpack satisfies go-ucfg's Unpacker interface, letting
// TimestampFormatString be set directly from a config.C string value.
func (fs *TimestampFormatString) Unpack(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("fmtstr: expected a string timestamp layout, got %T", v)
	}
	fs.layout = s
	return nil
}
