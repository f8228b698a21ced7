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

// Package pipeline drives one filing search: it walks the bulk index (or the
// search API) in order, filters by form type, merges records by accession
// and resolves company details and primary documents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvfilings/aggregate"
	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/document"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/formtype"
	"github.com/penny-vault/pvfilings/metadata"
	"github.com/penny-vault/pvfilings/metrics"
	"github.com/penny-vault/pvfilings/query"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultArchivesRoot = "https://www.sec.gov/Archives/edgar"

	StageIndex     = "index"
	StageSearch    = "search"
	StageMetadata  = "metadata"
	StageDocuments = "documents"
)

var (
	ErrInvalidDateRange = errors.New("end date is before start date")
	ErrNoFetcher        = errors.New("a fetch client is required")
)

// Fetcher retrieves a registry resource
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) ([]byte, error)
}

type Options struct {
	Start     time.Time
	End       time.Time
	Selection formtype.Selection

	// ShowDetails resolves location and incorporation for every filer
	ShowDetails bool

	// Documents resolves the primary document of every filing
	Documents bool

	// Tickers adds the exchange ticker of each filer
	Tickers bool

	// Weekends requests bulk indexes for Saturdays and Sundays
	Weekends bool

	ArchivesRoot   string
	SubmissionsURL string
	TickersURL     string
	SearchURL      string

	// Search, when set, reads filings from the full-text search API
	// instead of the daily bulk index
	Search *query.Params

	// Events receives progress and warning notifications. Sends never
	// block; events are dropped when the channel is full.
	Events chan<- data.Event

	// Resolvers and source may be injected; unset ones are built from the
	// options above
	Metadata *metadata.Resolver
	Resolver *document.Resolver
	Source   Source
}

type Pipeline struct {
	opts      Options
	fetcher   Fetcher
	metadata  *metadata.Resolver
	documents *document.Resolver
	source    Source

	summary *data.RunSummary
	denied  map[string]struct{}
	logger  zerolog.Logger
}

// New validates opts and prepares a run. Every error returned here is a
// configuration problem detected before any network activity.
func New(fetcher Fetcher, opts Options) (*Pipeline, error) {
	if fetcher == nil {
		return nil, ErrNoFetcher
	}

	if opts.Selection.Len() == 0 {
		return nil, formtype.ErrEmptySelection
	}

	if opts.End.Before(opts.Start) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidDateRange,
			opts.Start.Format("2006-01-02"), opts.End.Format("2006-01-02"))
	}

	if opts.ArchivesRoot == "" {
		opts.ArchivesRoot = DefaultArchivesRoot
	}

	if opts.SubmissionsURL == "" {
		opts.SubmissionsURL = metadata.DefaultSubmissionsURL
	}

	pipe := &Pipeline{
		opts:      opts,
		fetcher:   fetcher,
		metadata:  opts.Metadata,
		documents: opts.Resolver,
		source:    opts.Source,
		denied:    make(map[string]struct{}),
	}

	if pipe.metadata == nil {
		var tickers *metadata.TickerMap
		if opts.Tickers {
			tickers = metadata.NewTickerMap(fetcher, opts.TickersURL)
		}

		pipe.metadata = metadata.NewResolver(fetcher, metadata.Options{
			Enabled:        opts.ShowDetails,
			SubmissionsURL: opts.SubmissionsURL,
			Tickers:        tickers,
		})
	}

	if pipe.documents == nil {
		pipe.documents = document.NewResolver(fetcher)
	}

	if pipe.source == nil {
		if opts.Search != nil {
			params := *opts.Search
			params.Start = opts.Start
			params.End = opts.End
			if len(params.Forms) == 0 {
				params.Forms = opts.Selection.Entries()
			}
			pipe.source = NewSearchSource(query.NewClient(fetcher, opts.SearchURL), params)
		} else {
			pipe.source = NewDailySource(fetcher, opts.ArchivesRoot, Days(opts.Start, opts.End, opts.Weekends))
		}
	}

	return pipe, nil
}

// Run processes every batch of the source in order and returns the merged
// filings together with a summary. Cancelling ctx stops the run between
// batches (and between document lookups); requests already in flight are
// allowed to finish and the rows gathered so far are returned.
func (pipe *Pipeline) Run(ctx context.Context) ([]*data.FilingRecord, *data.RunSummary) {
	pipe.summary = &data.RunSummary{
		RunID:     uuid.New(),
		StartTime: time.Now(),
	}

	pipe.logger = log.With().Str("RunID", pipe.summary.RunID.String()).Logger()

	// individual requests are bounded by the client's timeout and retry
	// budget and are never interrupted
	fetchCtx := context.WithoutCancel(ctx)

	agg := aggregate.New(aggregate.Options{
		ShowDetails:  pipe.opts.ShowDetails,
		ArchivesRoot: pipe.opts.ArchivesRoot,
	})

	stage := StageIndex
	if pipe.opts.Search != nil {
		stage = StageSearch
	}

	for {
		if ctx.Err() != nil {
			pipe.summary.Stopped = true
			pipe.logger.Info().Msg("run stopped before all batches were processed")
			break
		}

		batch, ok := pipe.source.Next(fetchCtx)
		if !ok {
			break
		}

		pipe.summary.UnitsTotal++
		if batch.Err != nil {
			pipe.summary.UnitsSkipped++
			pipe.warn(stage, batch.URL, batch.Err)
			continue
		}

		for raw := range batch.Records {
			pipe.summary.NumRecords++
			if !pipe.opts.Selection.Matches(raw.FormType) {
				continue
			}
			pipe.summary.NumMatched++

			// records that cannot be keyed are dropped before they spend a
			// metadata request
			if _, err := raw.Key(); err != nil {
				pipe.summary.NumMalformed++
				pipe.logger.Debug().Err(err).Object("Record", raw).Msg("dropped malformed record")
				continue
			}

			details, err := pipe.metadata.Resolve(fetchCtx, raw.FilerID)
			if err != nil {
				pipe.warn(StageMetadata, metadata.SubmissionsURL(pipe.opts.SubmissionsURL, raw.FilerID), err)
			}

			if err := agg.Ingest(raw, details); err != nil {
				pipe.summary.NumMalformed++
				pipe.logger.Debug().Err(err).Object("Record", raw).Msg("dropped malformed record")
			}
		}

		pipe.summary.NumMalformed += batch.Dropped

		pipe.logger.Debug().Str("Batch", batch.Label).Int("NumFilings", agg.Len()).Msg("processed batch")
		pipe.emit(data.Event{
			Kind:      data.EventProgress,
			Stage:     stage,
			URL:       batch.URL,
			Message:   batch.Label,
			Completed: pipe.summary.UnitsTotal,
			Total:     pipe.source.Total(),
		})
	}

	records := agg.Finalize()
	pipe.summary.NumFilings = len(records)

	if pipe.opts.Documents {
		pipe.resolveDocuments(ctx, fetchCtx, records)
	}

	metrics.FilingsTotal.Add(float64(len(records)))

	pipe.summary.EndTime = time.Now()
	pipe.logger.Info().
		Int("NumRecords", pipe.summary.NumRecords).
		Int("NumFilings", pipe.summary.NumFilings).
		Int("NumWarnings", pipe.summary.NumWarnings).
		Int("UnitsSkipped", pipe.summary.UnitsSkipped).
		Dur("Duration", pipe.summary.Duration()).
		Msg("run complete")

	return records, pipe.summary
}

func (pipe *Pipeline) resolveDocuments(ctx, fetchCtx context.Context, records []*data.FilingRecord) {
	for idx, rec := range records {
		rec.DocumentURL = document.Unresolved

		if ctx.Err() != nil {
			pipe.summary.Stopped = true
			continue
		}

		docURL, err := pipe.documents.Resolve(fetchCtx, rec.IndexURL, rec.FormType)
		if err != nil {
			pipe.warn(StageDocuments, rec.IndexURL, err)
		}

		rec.DocumentURL = docURL
		if docURL != document.Unresolved {
			pipe.summary.NumResolved++
		}

		pipe.emit(data.Event{
			Kind:      data.EventProgress,
			Stage:     StageDocuments,
			URL:       rec.IndexURL,
			Message:   string(rec.Key.Accession),
			Completed: idx + 1,
			Total:     len(records),
		})
	}
}

// warn records a non-fatal failure. Access denied failures are reported
// once per URL.
func (pipe *Pipeline) warn(stage, url string, err error) {
	event := data.Event{
		Kind:    data.EventWarning,
		Stage:   stage,
		URL:     url,
		Message: err.Error(),
	}

	if failure, ok := fetch.AsFailure(err); ok {
		event.StatusCode = failure.StatusCode
		if failure.URL != "" {
			event.URL = failure.URL
		}

		if failure.Kind == fetch.FailureAccessDenied {
			if _, seen := pipe.denied[event.URL]; seen {
				return
			}
			pipe.denied[event.URL] = struct{}{}
		}
	}

	pipe.summary.NumWarnings++
	pipe.logger.Warn().Err(err).Str("Stage", stage).Str("URL", event.URL).Int("StatusCode", event.StatusCode).Msg("continuing after failure")
	pipe.emit(event)
}

func (pipe *Pipeline) emit(event data.Event) {
	if pipe.opts.Events == nil {
		return
	}

	event.Time = time.Now()
	select {
	case pipe.opts.Events <- event:
	default:
	}
}
