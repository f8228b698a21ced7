// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package data

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// UnresolvedDocument is the placeholder stored when no primary
	// document could be identified for a filing
	UnresolvedDocument = "N/A"

	ListSeparator = "; "
)

// RawIndexRecord is a single line of a daily bulk index or an equivalent
// search hit
type RawIndexRecord struct {
	FilerID   string
	Name      string
	FormType  string
	FiledDate string
	Path      string
}

func (raw RawIndexRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Str("FilerID", raw.FilerID)
	e.Str("Name", raw.Name)
	e.Str("FormType", raw.FormType)
	e.Str("FiledDate", raw.FiledDate)
	e.Str("Path", raw.Path)
}

// Key derives the filing key from the record's document path
func (raw RawIndexRecord) Key() (FilingKey, error) {
	acc, err := AccessionFromPath(raw.Path)
	if err != nil {
		return FilingKey{}, err
	}

	return FilingKey{FilerID: strings.TrimSpace(raw.FilerID), Accession: acc}, nil
}

// CompanyDetails holds the descriptive attributes of a filer
type CompanyDetails struct {
	Name          string
	Location      string
	Incorporation string
	Ticker        string
}

func (details CompanyDetails) IsEmpty() bool {
	return details.Name == "" && details.Location == "" && details.Incorporation == "" && details.Ticker == ""
}

// FilingRecord is the merged, user facing row for one filing
type FilingRecord struct {
	Key            FilingKey
	FormType       string
	FiledDate      string
	FilerIDs       []string
	Entities       []string
	Persons        []string
	Tickers        []string
	Locations      []string
	Incorporations []string
	IndexURL       string
	DocumentURL    string
}

// Valid reports whether the record has the fields every emitted row needs
func (rec *FilingRecord) Valid() bool {
	return rec.FormType != "" && rec.FiledDate != ""
}

// Normalize sorts every multi-value field case-insensitively and removes
// case-insensitive duplicates
func (rec *FilingRecord) Normalize() {
	rec.FilerIDs = SortedUnique(rec.FilerIDs)
	rec.Entities = SortedUnique(rec.Entities)
	rec.Persons = SortedUnique(rec.Persons)
	rec.Tickers = SortedUnique(rec.Tickers)
	rec.Locations = SortedUnique(rec.Locations)
	rec.Incorporations = SortedUnique(rec.Incorporations)
}

// Clone returns a deep copy of the record
func (rec FilingRecord) Clone() FilingRecord {
	out := rec
	out.FilerIDs = append([]string(nil), rec.FilerIDs...)
	out.Entities = append([]string(nil), rec.Entities...)
	out.Persons = append([]string(nil), rec.Persons...)
	out.Tickers = append([]string(nil), rec.Tickers...)
	out.Locations = append([]string(nil), rec.Locations...)
	out.Incorporations = append([]string(nil), rec.Incorporations...)
	return out
}

// ContainsFold reports whether list contains val ignoring case
func ContainsFold(list []string, val string) bool {
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}

// AppendUnique appends val to list when it is non-empty and not already
// present (ignoring case)
func AppendUnique(list []string, val string) []string {
	val = strings.TrimSpace(val)
	if val == "" || ContainsFold(list, val) {
		return list
	}
	return append(list, val)
}

// SortedUnique returns a new slice with blanks and case-insensitive
// duplicates removed, sorted case-insensitively. The first spelling seen
// wins.
func SortedUnique(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = AppendUnique(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a == b {
			return out[i] < out[j]
		}
		return a < b
	})

	return out
}

// NormalizeDate converts the registry's date formats (20240102 or
// 2024-01-02) to YYYY-MM-DD; unknown formats are returned unchanged
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if dt, err := time.Parse(layout, raw); err == nil {
			return dt.Format("2006-01-02")
		}
	}
	return raw
}
