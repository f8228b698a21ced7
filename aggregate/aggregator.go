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

// Package aggregate consolidates raw index records that refer to the same
// filing into a single row.
package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/penny-vault/pvfilings/data"
)

var (
	ErrIncompleteRecord = errors.New("record is missing its form type or filed date")
)

type Options struct {
	// ShowDetails includes location and incorporation in merged rows
	ShowDetails bool

	// ArchivesRoot is the base used to build filing index URLs
	ArchivesRoot string
}

// Aggregator accumulates filings keyed by accession number. Ingest may be
// called from multiple goroutines; the lookup and merge for a key happen
// under one lock so two records for the same accession never race.
type Aggregator struct {
	opts Options

	mu      sync.Mutex
	order   []data.Accession
	records map[data.Accession]data.FilingRecord
}

func New(opts Options) *Aggregator {
	return &Aggregator{
		opts:    opts,
		records: make(map[data.Accession]data.FilingRecord),
	}
}

// Ingest merges raw into the running table. An error means the record was
// malformed and has been dropped; the table is unchanged.
func (agg *Aggregator) Ingest(raw data.RawIndexRecord, details data.CompanyDetails) error {
	key, err := raw.Key()
	if err != nil {
		return err
	}

	if strings.TrimSpace(raw.FormType) == "" || strings.TrimSpace(raw.FiledDate) == "" {
		return fmt.Errorf("%w: %s", ErrIncompleteRecord, key.Accession)
	}

	agg.mu.Lock()
	defer agg.mu.Unlock()

	existing, ok := agg.records[key.Accession]
	incoming := Contribution(raw, key, details, agg.opts, ok)
	if !ok {
		agg.order = append(agg.order, key.Accession)
		agg.records[key.Accession] = incoming
		return nil
	}

	agg.records[key.Accession] = Merge(existing, incoming)
	return nil
}

// Len returns the number of distinct filings seen so far
func (agg *Aggregator) Len() int {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return len(agg.order)
}

// Finalize returns the filings in the order they were first seen with all
// multi-value fields sorted and de-duplicated. The aggregator can keep
// accepting records afterwards.
func (agg *Aggregator) Finalize() []*data.FilingRecord {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	out := make([]*data.FilingRecord, 0, len(agg.order))
	for _, acc := range agg.order {
		rec := agg.records[acc].Clone()
		rec.Normalize()

		persons := make([]string, 0, len(rec.Persons))
		for _, person := range rec.Persons {
			if !data.ContainsFold(rec.Entities, person) {
				persons = append(persons, person)
			}
		}
		rec.Persons = persons

		if !rec.Valid() {
			continue
		}

		out = append(out, &rec)
	}

	return out
}
