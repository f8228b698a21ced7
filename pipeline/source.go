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
package pipeline

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"time"

	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/index"
	"github.com/penny-vault/pvfilings/query"
)

// Batch is one unit of work: a day of the bulk index or a page of search
// results. When Err is set the unit could not be fetched and Records is
// empty.
type Batch struct {
	Label   string
	URL     string
	Records iter.Seq[data.RawIndexRecord]
	Dropped int
	Err     error
}

// Source yields batches in order until it is exhausted
type Source interface {
	Next(ctx context.Context) (*Batch, bool)
	Total() int
}

func emptyRecords(func(data.RawIndexRecord) bool) {}

// Days lists the calendar days from start through end inclusive. Saturdays
// and Sundays are left out unless weekends is set.
func Days(start, end time.Time, weekends bool) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	days := make([]time.Time, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !weekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			continue
		}
		days = append(days, day)
	}

	return days
}

// DailySource walks the bulk index one day at a time
type DailySource struct {
	fetcher Fetcher
	root    string
	days    []time.Time
	pos     int
}

func NewDailySource(fetcher Fetcher, archivesRoot string, days []time.Time) *DailySource {
	return &DailySource{
		fetcher: fetcher,
		root:    archivesRoot,
		days:    days,
	}
}

func (source *DailySource) Total() int {
	return len(source.days)
}

func (source *DailySource) Next(ctx context.Context) (*Batch, bool) {
	if source.pos >= len(source.days) {
		return nil, false
	}

	day := source.days[source.pos]
	source.pos++

	batch := &Batch{
		Label:   day.Format("2006-01-02"),
		URL:     index.DailyURL(source.root, day),
		Records: emptyRecords,
	}

	body, err := source.fetcher.Fetch(ctx, batch.URL, fetch.KindBulkIndex)
	if err != nil {
		batch.Err = err
		return batch, true
	}

	batch.Records = index.Parse(body)
	return batch, true
}

// SearchSource walks the pages of a full-text search
type SearchSource struct {
	client   *query.Client
	params   query.Params
	pageSize int

	from  int
	total int
	done  bool
}

const DefaultPageSize = 100

func NewSearchSource(client *query.Client, params query.Params) *SearchSource {
	return &SearchSource{
		client:   client,
		params:   params,
		pageSize: DefaultPageSize,
		total:    -1,
	}
}

// Total is the number of pages, or zero until the first page is read
func (source *SearchSource) Total() int {
	if source.total <= 0 {
		return 0
	}
	return (source.total + source.pageSize - 1) / source.pageSize
}

func (source *SearchSource) Next(ctx context.Context) (*Batch, bool) {
	if source.done {
		return nil, false
	}

	batch := &Batch{
		Label:   "offset " + strconv.Itoa(source.from),
		URL:     source.client.PageURL(source.params, source.from),
		Records: emptyRecords,
	}

	page, err := source.client.FetchPage(ctx, source.params, source.from)
	if err != nil {
		batch.Err = err

		// without a hit count there is no way to know where the next page
		// starts
		if source.total < 0 {
			source.done = true
			return batch, true
		}

		source.from += source.pageSize
		source.done = source.from >= source.total
		return batch, true
	}

	source.total = page.Total
	if page.Hits > 0 {
		source.pageSize = max(source.pageSize, page.Hits)
	}

	next, more := page.Next()
	source.from = next
	source.done = !more

	batch.Records = slices.Values(page.Records)
	batch.Dropped = page.Dropped
	return batch, true
}
