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
package aggregate

import (
	"strings"

	"github.com/penny-vault/pvfilings/data"
)

// Contribution builds the record a single raw line contributes to its
// filing. A first sighting names the filing entity (the resolved registrant
// or, without metadata, the raw name) and records the raw name as a filing
// person only when it differs from that entity. A repeat sighting is a
// co-filer or signer: its raw name is a filing person and only a resolved
// registrant name is added as an entity.
func Contribution(raw data.RawIndexRecord, key data.FilingKey, details data.CompanyDetails, opts Options, repeat bool) data.FilingRecord {
	rawName := strings.TrimSpace(raw.Name)
	entity := strings.TrimSpace(details.Name)

	rec := data.FilingRecord{
		Key:       key,
		FormType:  strings.TrimSpace(raw.FormType),
		FiledDate: data.NormalizeDate(raw.FiledDate),
		FilerIDs:  data.AppendUnique(nil, key.FilerID),
		Tickers:   data.AppendUnique(nil, details.Ticker),
		IndexURL:  data.FilingIndexURL(opts.ArchivesRoot, key),
	}

	if repeat {
		rec.Entities = data.AppendUnique(nil, entity)
		rec.Persons = data.AppendUnique(nil, rawName)
	} else {
		if entity == "" {
			entity = rawName
		}
		rec.Entities = data.AppendUnique(nil, entity)
		if !strings.EqualFold(rawName, entity) {
			rec.Persons = data.AppendUnique(nil, rawName)
		}
	}

	if opts.ShowDetails {
		rec.Locations = data.AppendUnique(nil, details.Location)
		rec.Incorporations = data.AppendUnique(nil, details.Incorporation)
	}

	return rec
}

// Merge folds incoming into existing and returns the result; neither
// argument is modified. Every distinct value of every multi-value field is
// kept, names already listed as entities are not repeated as persons, and
// single valued fields keep the existing value unless it is empty.
func Merge(existing, incoming data.FilingRecord) data.FilingRecord {
	out := existing.Clone()

	for _, val := range incoming.FilerIDs {
		out.FilerIDs = data.AppendUnique(out.FilerIDs, val)
	}

	for _, val := range incoming.Entities {
		out.Entities = data.AppendUnique(out.Entities, val)
	}

	for _, val := range incoming.Persons {
		if !data.ContainsFold(out.Entities, val) {
			out.Persons = data.AppendUnique(out.Persons, val)
		}
	}

	for _, val := range incoming.Tickers {
		out.Tickers = data.AppendUnique(out.Tickers, val)
	}

	for _, val := range incoming.Locations {
		out.Locations = data.AppendUnique(out.Locations, val)
	}

	for _, val := range incoming.Incorporations {
		out.Incorporations = data.AppendUnique(out.Incorporations, val)
	}

	if out.FormType == "" {
		out.FormType = incoming.FormType
	}

	if out.FiledDate == "" {
		out.FiledDate = incoming.FiledDate
	}

	if out.IndexURL == "" {
		out.IndexURL = incoming.IndexURL
	}

	if out.DocumentURL == "" {
		out.DocumentURL = incoming.DocumentURL
	}

	return out
}
