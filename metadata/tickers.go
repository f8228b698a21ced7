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
package metadata

import (
	"context"
	"strings"
	"sync"

	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// TickerMap maps filer ids to exchange tickers. The registry's ticker file
// is downloaded on first use and never again.
type TickerMap struct {
	url     string
	fetcher Fetcher

	once    sync.Once
	tickers map[string]string
}

func NewTickerMap(fetcher Fetcher, url string) *TickerMap {
	if url == "" {
		url = DefaultTickersURL
	}

	return &TickerMap{
		url:     url,
		fetcher: fetcher,
	}
}

// Lookup returns the ticker for filerID or an empty string
func (tickerMap *TickerMap) Lookup(ctx context.Context, filerID string) string {
	tickerMap.once.Do(func() {
		tickerMap.tickers = make(map[string]string)

		body, err := tickerMap.fetcher.Fetch(ctx, tickerMap.url, fetch.KindMetadata)
		if err != nil {
			log.Warn().Err(err).Str("URL", tickerMap.url).Msg("ticker map unavailable; ticker column will be empty")
			return
		}

		tickerMap.tickers = ParseTickers(body)
		log.Debug().Int("NumTickers", len(tickerMap.tickers)).Msg("loaded ticker map")
	})

	return tickerMap.tickers[data.PadFilerID(strings.TrimSpace(filerID))]
}

// ParseTickers reads the registry's company ticker file. When a filer has
// several tickers the first listed is kept.
func ParseTickers(body []byte) map[string]string {
	tickers := make(map[string]string)

	gjson.ParseBytes(body).ForEach(func(_, entry gjson.Result) bool {
		cik := entry.Get("cik_str")
		ticker := strings.TrimSpace(entry.Get("ticker").String())
		if !cik.Exists() || ticker == "" {
			return true
		}

		key := data.PadFilerID(cik.String())
		if _, ok := tickers[key]; !ok {
			tickers[key] = ticker
		}

		return true
	})

	return tickers
}
