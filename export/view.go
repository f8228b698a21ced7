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
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/penny-vault/pvfilings/data"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Render draws records as a terminal table. Multi-value fields are shown one
// value per line and link columns become terminal hyperlinks labelled with
// the accession number or document name.
func Render(records []*data.FilingRecord, cols []Column) string {
	if len(cols) == 0 {
		cols = DefaultColumns()
	}

	headers := make([]string, len(cols))
	for idx, col := range cols {
		headers[idx] = col.Header
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, row := range NewRows(records, "\n") {
		cells := make([]string, len(cols))
		for idx, col := range cols {
			val := col.Value(row)
			if col.Link {
				val = Hyperlink(val, linkLabel(col, row))
			}
			cells[idx] = val
		}
		tbl.Row(cells...)
	}

	return tbl.Render()
}

// Hyperlink wraps url in an OSC 8 escape sequence. Empty values and the
// unresolved placeholder are returned unchanged.
func Hyperlink(url, label string) string {
	if url == "" || url == data.UnresolvedDocument {
		return url
	}
	if label == "" {
		label = url
	}
	return termenv.Hyperlink(url, label)
}

func linkLabel(col Column, row *Row) string {
	if col.Key == "index_url" {
		return row.Accession
	}

	val := col.Value(row)
	if idx := strings.IndexAny(val, "?#"); idx >= 0 {
		val = val[:idx]
	}
	return path.Base(val)
}
