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
package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvfilings/data"
	"github.com/rs/zerolog/log"
)

// WriteCSV writes records as comma separated text with a header row. Link
// columns are written as plain URLs and multi-value fields are joined with
// "; ". When cols is empty every column is written.
func WriteCSV(out io.Writer, records []*data.FilingRecord, cols []Column) error {
	rows := NewRows(records, data.ListSeparator)
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(out))

	if len(cols) == 0 {
		return gocsv.MarshalCSV(rows, writer)
	}

	header := make([]string, len(cols))
	for idx, col := range cols {
		header[idx] = col.Header
	}

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		line := make([]string, len(cols))
		for idx, col := range cols {
			line[idx] = col.Value(row)
		}

		if err := writer.Write(line); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes records to fn, replacing any existing file
func WriteCSVFile(fn string, records []*data.FilingRecord, cols []Column) error {
	fh, err := os.Create(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	if err := WriteCSV(fh, records, cols); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("csv write failed")
		return err
	}

	log.Info().Int("NumRecords", len(records)).Str("FileName", fn).Msg("csv write finished")
	return nil
}
