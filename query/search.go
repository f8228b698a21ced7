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

// Package query pages through the registry's full-text search API and turns
// each hit into raw index records.
package query

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
)

const (
	DefaultSearchURL = "https://efts.sec.gov/LATEST/search-index"
)

// Fetcher retrieves a registry resource
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) ([]byte, error)
}

// Params are the filters sent with every page request
type Params struct {
	Phrase     string
	EntityName string
	Forms      []string
	Start      time.Time
	End        time.Time
}

// Page is one decoded response of the search API
type Page struct {
	From    int
	Total   int
	Hits    int
	Dropped int
	Records []data.RawIndexRecord
}

// Next returns the offset of the following page and whether one exists
func (page *Page) Next() (int, bool) {
	next := page.From + page.Hits
	return next, page.Hits > 0 && next < page.Total
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source hitSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type hitSource struct {
	Ciks         []string `json:"ciks"`
	Form         string   `json:"form"`
	FileDate     string   `json:"file_date"`
	DisplayNames []string `json:"display_names"`
	Adsh         string   `json:"adsh"`
}

type Client struct {
	fetcher Fetcher
	baseURL string
}

func NewClient(fetcher Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}

	return &Client{
		fetcher: fetcher,
		baseURL: baseURL,
	}
}

// PageURL builds the request URL for the page starting at offset from
func (client *Client) PageURL(params Params, from int) string {
	values := url.Values{}
	values.Set("q", params.Phrase)
	values.Set("dateRange", "custom")
	values.Set("startdt", params.Start.Format("2006-01-02"))
	values.Set("enddt", params.End.Format("2006-01-02"))

	if len(params.Forms) > 0 {
		values.Set("forms", strings.Join(params.Forms, ","))
	}

	if params.EntityName != "" {
		values.Set("entityName", params.EntityName)
	}

	if from > 0 {
		values.Set("from", strconv.Itoa(from))
	}

	sep := "?"
	if strings.Contains(client.baseURL, "?") {
		sep = "&"
	}

	return client.baseURL + sep + values.Encode()
}

// FetchPage requests and decodes a single page of results
func (client *Client) FetchPage(ctx context.Context, params Params, from int) (*Page, error) {
	body, err := client.fetcher.Fetch(ctx, client.PageURL(params, from), fetch.KindSearch)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(body)
	if err != nil {
		return nil, err
	}

	page.From = from
	return page, nil
}

// ParsePage decodes a search response. Each hit yields one record per filer
// id it lists; hits without a form, filed date, filer id or well-formed
// accession are dropped and counted.
func ParsePage(body []byte) (*Page, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	page := &Page{
		Total:   resp.Hits.Total.Value,
		Hits:    len(resp.Hits.Hits),
		Records: make([]data.RawIndexRecord, 0, len(resp.Hits.Hits)),
	}

	for _, hit := range resp.Hits.Hits {
		records, ok := hitRecords(hit.Source)
		if !ok {
			page.Dropped++
			continue
		}
		page.Records = append(page.Records, records...)
	}

	return page, nil
}

func hitRecords(src hitSource) ([]data.RawIndexRecord, bool) {
	acc, err := data.ParseAccession(src.Adsh)
	if err != nil || strings.TrimSpace(src.Form) == "" || strings.TrimSpace(src.FileDate) == "" || len(src.Ciks) == 0 {
		return nil, false
	}

	// listed issuers go first so they become the filing entity; insider
	// forms list the reporting owner ahead of the issuer
	order := make([]int, len(src.Ciks))
	for idx := range order {
		order[idx] = idx
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return listedRank(src.DisplayNames, a) - listedRank(src.DisplayNames, b)
	})

	records := make([]data.RawIndexRecord, 0, len(src.Ciks))
	for _, idx := range order {
		filerID := strings.TrimLeft(strings.TrimSpace(src.Ciks[idx]), "0")
		if filerID == "" {
			continue
		}

		name := ""
		if idx < len(src.DisplayNames) {
			name = DisplayName(src.DisplayNames[idx])
		}

		records = append(records, data.RawIndexRecord{
			FilerID:   filerID,
			Name:      name,
			FormType:  strings.TrimSpace(src.Form),
			FiledDate: strings.TrimSpace(src.FileDate),
			Path:      fmt.Sprintf("edgar/data/%s/%s.txt", filerID, acc),
		})
	}

	return records, len(records) > 0
}

func listedRank(displayNames []string, idx int) int {
	if idx < len(displayNames) && Ticker(displayNames[idx]) != "" {
		return 0
	}
	return 1
}

// Ticker returns the first ticker annotation of a search display name, e.g.
// "AAPL" for "Apple Inc.  (AAPL)  (CIK 0000320193)", or "" when the filer
// has none
func Ticker(raw string) string {
	for {
		open := strings.Index(raw, "(")
		if open < 0 {
			return ""
		}
		closing := strings.Index(raw[open:], ")")
		if closing < 0 {
			return ""
		}

		annotation := strings.TrimSpace(raw[open+1 : open+closing])
		raw = raw[open+closing+1:]

		if annotation == "" || strings.HasPrefix(strings.ToUpper(annotation), "CIK ") {
			continue
		}

		ticker, _, _ := strings.Cut(annotation, ",")
		return strings.TrimSpace(ticker)
	}
}

// DisplayName strips the ticker and filer id annotations the search API
// appends to entity names, e.g. "Apple Inc.  (AAPL)  (CIK 0000320193)"
func DisplayName(raw string) string {
	if idx := strings.Index(raw, " ("); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
