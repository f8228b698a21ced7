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
package document

import (
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy inspects an index page and returns the href of the primary
// document for formType
type Strategy func(doc *goquery.Document, formType string) (string, bool)

func DefaultStrategies() []Strategy {
	return []Strategy{ExactTableMatch, PartialTableMatch, LooseLinkScan}
}

type columns struct {
	document int
	kind     int
	size     int
}

var defaultColumns = columns{document: 2, kind: 3, size: 4}

type tableRow struct {
	href string
	kind string
	size uint64
}

// documentTable locates the standard document listing: the table with
// class tableFile or, failing that, the first table whose header names
// both a Document and a Type column
func documentTable(doc *goquery.Document) (*goquery.Selection, columns, bool) {
	table := doc.Find("table.tableFile").First()
	if table.Length() > 0 {
		cols, _ := headerColumns(table)
		return table, cols, true
	}

	var (
		found *goquery.Selection
		cols  columns
	)

	doc.Find("table").EachWithBreak(func(_ int, candidate *goquery.Selection) bool {
		if hdr, ok := headerColumns(candidate); ok {
			found = candidate
			cols = hdr
			return false
		}
		return true
	})

	return found, cols, found != nil
}

// headerColumns reads column positions from the table header; positions
// that are not named fall back to the standard layout
func headerColumns(table *goquery.Selection) (columns, bool) {
	cols := columns{document: -1, kind: -1, size: -1}

	table.Find("tr").First().Find("th, td").Each(func(idx int, cell *goquery.Selection) {
		switch strings.ToLower(strings.TrimSpace(cell.Text())) {
		case "document":
			cols.document = idx
		case "type":
			cols.kind = idx
		case "size":
			cols.size = idx
		}
	})

	named := cols.document >= 0 && cols.kind >= 0

	if cols.document < 0 {
		cols.document = defaultColumns.document
	}
	if cols.kind < 0 {
		cols.kind = defaultColumns.kind
	}
	if cols.size < 0 {
		cols.size = defaultColumns.size
	}

	return cols, named
}

func tableRows(table *goquery.Selection, cols columns) []tableRow {
	rows := make([]tableRow, 0)

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= cols.kind || cells.Length() <= cols.document {
			return
		}

		href, ok := cells.Eq(cols.document).Find("a[href]").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		row := tableRow{
			href: href,
			kind: strings.TrimSpace(cells.Eq(cols.kind).Text()),
		}

		if cells.Length() > cols.size {
			row.size = ParseSize(cells.Eq(cols.size).Text())
		}

		rows = append(rows, row)
	})

	return rows
}

// ExactTableMatch picks the row of the document table whose type equals
// formType. When several rows match the largest document wins.
func ExactTableMatch(doc *goquery.Document, formType string) (string, bool) {
	table, cols, ok := documentTable(doc)
	if !ok {
		return "", false
	}

	var (
		best  tableRow
		found bool
	)

	for _, row := range tableRows(table, cols) {
		if !strings.EqualFold(row.kind, formType) {
			continue
		}

		if !found || row.size > best.size {
			best = row
			found = true
		}
	}

	return best.href, found
}

// PartialTableMatch takes the first document table row whose type contains
// formType, then the first row of any table whose leading cell contains
// formType and carries a link
func PartialTableMatch(doc *goquery.Document, formType string) (string, bool) {
	target := strings.ToUpper(formType)
	if target == "" {
		return "", false
	}

	if table, cols, ok := documentTable(doc); ok {
		for _, row := range tableRows(table, cols) {
			if strings.Contains(strings.ToUpper(row.kind), target) {
				return row.href, true
			}
		}
	}

	var href string
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		first := tr.Find("td").First()
		if first.Length() == 0 || !strings.Contains(strings.ToUpper(first.Text()), target) {
			return true
		}

		if link, ok := tr.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(link) != "" {
			href = link
			return false
		}

		return true
	})

	return href, href != ""
}

// linkRank orders candidate links: html documents first, plain text and
// xml last
func linkRank(href string) int {
	clean := strings.ToLower(href)
	if idx := strings.IndexAny(clean, "?#"); idx >= 0 {
		clean = clean[:idx]
	}

	switch path.Ext(clean) {
	case ".htm", ".html":
		return 0
	case ".txt", ".xml":
		return 2
	default:
		return 1
	}
}

// LooseLinkScan considers every link whose address or text mentions
// formType
func LooseLinkScan(doc *goquery.Document, formType string) (string, bool) {
	target := strings.ToUpper(formType)
	if target == "" {
		return "", false
	}

	var (
		best     string
		bestRank = 3
	)

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		if !strings.Contains(strings.ToUpper(href), target) && !strings.Contains(strings.ToUpper(link.Text()), target) {
			return
		}

		if rank := linkRank(href); rank < bestRank {
			best = href
			bestRank = rank
		}
	})

	return best, best != ""
}
