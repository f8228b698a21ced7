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

// Package export writes finalized filings as delimited text, parquet files
// and terminal tables.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/penny-vault/pvfilings/data"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
)

// Row is the flattened, export ready form of a FilingRecord
type Row struct {
	FormType       string `csv:"Form Type" json:"form_type" parquet:"name=form_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FiledDate      string `csv:"Filed Date" json:"filed_date" parquet:"name=filed_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Accession      string `csv:"Accession Number" json:"accession" parquet:"name=accession, type=BYTE_ARRAY, convertedtype=UTF8"`
	Entities       string `csv:"Filing Entity" json:"entities" parquet:"name=entities, type=BYTE_ARRAY, convertedtype=UTF8"`
	Persons        string `csv:"Filing Person" json:"persons" parquet:"name=persons, type=BYTE_ARRAY, convertedtype=UTF8"`
	Tickers        string `csv:"Ticker" json:"tickers" parquet:"name=tickers, type=BYTE_ARRAY, convertedtype=UTF8"`
	Locations      string `csv:"Location" json:"locations" parquet:"name=locations, type=BYTE_ARRAY, convertedtype=UTF8"`
	Incorporations string `csv:"Incorporated" json:"incorporations" parquet:"name=incorporations, type=BYTE_ARRAY, convertedtype=UTF8"`
	FilerIDs       string `csv:"CIK" json:"filer_ids" parquet:"name=filer_ids, type=BYTE_ARRAY, convertedtype=UTF8"`
	IndexURL       string `csv:"Filing Index" json:"index_url" parquet:"name=index_url, type=BYTE_ARRAY, convertedtype=UTF8"`
	DocumentURL    string `csv:"Document" json:"document_url" parquet:"name=document_url, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewRow joins the multi-value fields of rec with sep
func NewRow(rec *data.FilingRecord, sep string) *Row {
	return &Row{
		FormType:       rec.FormType,
		FiledDate:      rec.FiledDate,
		Accession:      string(rec.Key.Accession),
		Entities:       strings.Join(rec.Entities, sep),
		Persons:        strings.Join(rec.Persons, sep),
		Tickers:        strings.Join(rec.Tickers, sep),
		Locations:      strings.Join(rec.Locations, sep),
		Incorporations: strings.Join(rec.Incorporations, sep),
		FilerIDs:       strings.Join(rec.FilerIDs, sep),
		IndexURL:       rec.IndexURL,
		DocumentURL:    rec.DocumentURL,
	}
}

func NewRows(records []*data.FilingRecord, sep string) []*Row {
	rows := make([]*Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, NewRow(rec, sep))
	}
	return rows
}

// Column is one selectable output column
type Column struct {
	Key    string
	Header string

	// Link columns hold URLs; the terminal view renders them as hyperlinks
	Link bool

	value func(*Row) string
}

func (col Column) Value(row *Row) string {
	return col.value(row)
}

var columns = []Column{
	{Key: "form_type", Header: "Form Type", value: func(row *Row) string { return row.FormType }},
	{Key: "filed_date", Header: "Filed Date", value: func(row *Row) string { return row.FiledDate }},
	{Key: "accession", Header: "Accession Number", value: func(row *Row) string { return row.Accession }},
	{Key: "entities", Header: "Filing Entity", value: func(row *Row) string { return row.Entities }},
	{Key: "persons", Header: "Filing Person", value: func(row *Row) string { return row.Persons }},
	{Key: "tickers", Header: "Ticker", value: func(row *Row) string { return row.Tickers }},
	{Key: "locations", Header: "Location", value: func(row *Row) string { return row.Locations }},
	{Key: "incorporations", Header: "Incorporated", value: func(row *Row) string { return row.Incorporations }},
	{Key: "filer_ids", Header: "CIK", value: func(row *Row) string { return row.FilerIDs }},
	{Key: "index_url", Header: "Filing Index", Link: true, value: func(row *Row) string { return row.IndexURL }},
	{Key: "document_url", Header: "Document", Link: true, value: func(row *Row) string { return row.DocumentURL }},
}

// AllColumns returns every column in export order
func AllColumns() []Column {
	return append([]Column(nil), columns...)
}

// DefaultColumns is the column set used when none is requested
func DefaultColumns() []Column {
	cols, _ := ParseColumns([]string{"form_type", "filed_date", "entities", "persons", "locations", "incorporations", "index_url", "document_url"})
	return cols
}

// ParseColumns looks up columns by key or header, ignoring case. An empty
// list selects every column.
func ParseColumns(names []string) ([]Column, error) {
	if len(names) == 0 {
		return AllColumns(), nil
	}

	selected := make([]Column, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		found := false
		for _, col := range columns {
			if strings.EqualFold(col.Key, name) || strings.EqualFold(col.Header, name) {
				selected = append(selected, col)
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
	}

	if len(selected) == 0 {
		return AllColumns(), nil
	}

	return selected, nil
}

// FileName derives an export file name from the selected form types and
// the date range, e.g. filings-10-k-8-k-2024-01-02-to-2024-01-31.csv
func FileName(forms []string, start, end time.Time, ext string) string {
	base := fmt.Sprintf("filings %s %s to %s", strings.Join(forms, " "),
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	return slug.Make(base) + "." + strings.TrimPrefix(ext, ".")
}
