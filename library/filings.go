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
package library

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvfilings/data"
	"github.com/rs/zerolog/log"
)

// Run is the stored description of one search
type Run struct {
	ID           uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	StartDate    time.Time
	EndDate      time.Time
	FormTypes    []string
	NumRecords   int
	NumFilings   int
	NumWarnings  int
	NumResolved  int
	UnitsTotal   int
	UnitsSkipped int
	Stopped      bool
}

// FormTypeCount is the number of stored filings of one form type
type FormTypeCount struct {
	FormType string
	Count    int
}

// NewRun describes a finished pipeline run for storage
func NewRun(summary *data.RunSummary, start, end time.Time, forms []string) *Run {
	return &Run{
		ID:           summary.RunID,
		StartedAt:    summary.StartTime,
		FinishedAt:   summary.EndTime,
		StartDate:    start,
		EndDate:      end,
		FormTypes:    append([]string{}, forms...),
		NumRecords:   summary.NumRecords,
		NumFilings:   summary.NumFilings,
		NumWarnings:  summary.NumWarnings,
		NumResolved:  summary.NumResolved,
		UnitsTotal:   summary.UnitsTotal,
		UnitsSkipped: summary.UnitsSkipped,
		Stopped:      summary.Stopped,
	}
}

const upsertFilingSQL = `INSERT INTO filings (
	accession, filer_id, form_type, filed_date, filer_ids, entities, persons,
	tickers, locations, incorporations, index_url, document_url, run_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (accession) DO UPDATE SET
	filer_ids = EXCLUDED.filer_ids,
	entities = EXCLUDED.entities,
	persons = EXCLUDED.persons,
	tickers = EXCLUDED.tickers,
	locations = CASE WHEN cardinality(EXCLUDED.locations) = 0 THEN filings.locations ELSE EXCLUDED.locations END,
	incorporations = CASE WHEN cardinality(EXCLUDED.incorporations) = 0 THEN filings.incorporations ELSE EXCLUDED.incorporations END,
	document_url = CASE WHEN EXCLUDED.document_url IN ('', 'N/A') THEN filings.document_url ELSE EXCLUDED.document_url END,
	run_id = EXCLUDED.run_id,
	updated_on = now()`

// filingArgs returns the upsert parameters for rec
func filingArgs(rec *data.FilingRecord, runID uuid.UUID) ([]any, error) {
	filedDate, err := time.Parse("2006-01-02", rec.FiledDate)
	if err != nil {
		return nil, err
	}

	orEmpty := func(list []string) []string {
		if list == nil {
			return []string{}
		}
		return list
	}

	return []any{
		string(rec.Key.Accession),
		rec.Key.FilerID,
		rec.FormType,
		filedDate,
		orEmpty(rec.FilerIDs),
		orEmpty(rec.Entities),
		orEmpty(rec.Persons),
		orEmpty(rec.Tickers),
		orEmpty(rec.Locations),
		orEmpty(rec.Incorporations),
		rec.IndexURL,
		rec.DocumentURL,
		runID,
	}, nil
}

// SaveRun stores run and upserts its filings in a single transaction.
// Filings already in the library keep their location, incorporation and
// document when the new run did not resolve them.
func (myLibrary *Library) SaveRun(ctx context.Context, run *Run, records []*data.FilingRecord) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	_, err = tx.Exec(ctx, `INSERT INTO runs (id, started_at, finished_at, start_date, end_date, form_types,
num_records, num_filings, num_warnings, num_resolved, units_total, units_skipped, stopped)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		run.ID, run.StartedAt, run.FinishedAt, run.StartDate, run.EndDate, run.FormTypes,
		run.NumRecords, run.NumFilings, run.NumWarnings, run.NumResolved, run.UnitsTotal,
		run.UnitsSkipped, run.Stopped)
	if err != nil {
		log.Error().Err(err).Str("RunID", run.ID.String()).Msg("could not save run")
		return err
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := filingArgs(rec, run.ID)
		if err != nil {
			log.Warn().Err(err).Str("Accession", string(rec.Key.Accession)).Str("FiledDate", rec.FiledDate).Msg("skipping filing with unreadable filed date")
			continue
		}
		batch.Queue(upsertFilingSQL, args...)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Error().Err(err).Str("RunID", run.ID.String()).Msg("could not save filings")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Str("RunID", run.ID.String()).Int("NumFilings", batch.Len()).Msg("saved run to library")
	return nil
}

// Runs returns the most recent runs, newest first
func (myLibrary *Library) Runs(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	err := pgxscan.Select(ctx, myLibrary.Pool, &runs,
		`SELECT id, started_at, finished_at, start_date, end_date, form_types, num_records,
num_filings, num_warnings, num_resolved, units_total, units_skipped, stopped
FROM runs ORDER BY finished_at DESC LIMIT $1`, limit)
	return runs, err
}

// FormTypeCounts returns the number of stored filings per form type, most
// common first
func (myLibrary *Library) FormTypeCounts(ctx context.Context) ([]*FormTypeCount, error) {
	var counts []*FormTypeCount
	err := pgxscan.Select(ctx, myLibrary.Pool, &counts,
		`SELECT form_type, count(*) AS count FROM filings GROUP BY form_type ORDER BY count DESC, form_type`)
	return counts, err
}
