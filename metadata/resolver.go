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

// Package metadata resolves descriptive attributes of a filer from the
// registry's submissions endpoint.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultSubmissionsURL = "https://data.sec.gov"
)

var (
	ErrMalformedSubmission = errors.New("submissions response is not valid json")
)

// Fetcher retrieves a registry resource
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) ([]byte, error)
}

type Options struct {
	// Enabled turns on metadata lookups; when false Resolve never touches
	// the network
	Enabled bool

	SubmissionsURL string

	// Tickers, when set, adds the filer's ticker to resolved details
	Tickers *TickerMap
}

// Resolver looks up company details once per filer id. Results, including
// failed lookups, are cached for the life of the resolver.
type Resolver struct {
	opts    Options
	fetcher Fetcher
	cache   *haxmap.Map[string, data.CompanyDetails]
}

func NewResolver(fetcher Fetcher, opts Options) *Resolver {
	if opts.SubmissionsURL == "" {
		opts.SubmissionsURL = DefaultSubmissionsURL
	}

	return &Resolver{
		opts:    opts,
		fetcher: fetcher,
		cache:   haxmap.New[string, data.CompanyDetails](),
	}
}

// SubmissionsURL returns the metadata document URL for a filer
func SubmissionsURL(root, filerID string) string {
	return fmt.Sprintf("%s/submissions/CIK%s.json", strings.TrimRight(root, "/"), data.PadFilerID(filerID))
}

// Resolve returns the details for filerID. A failed lookup returns empty
// details along with the error; later calls for the same filer return the
// cached empty details without retrying.
func (resolver *Resolver) Resolve(ctx context.Context, filerID string) (data.CompanyDetails, error) {
	filerID = strings.TrimSpace(filerID)
	if !resolver.opts.Enabled || filerID == "" {
		return resolver.withTicker(ctx, data.CompanyDetails{}, filerID), nil
	}

	key := data.PadFilerID(filerID)
	if details, ok := resolver.cache.Get(key); ok {
		return details, nil
	}

	url := SubmissionsURL(resolver.opts.SubmissionsURL, filerID)
	body, err := resolver.fetcher.Fetch(ctx, url, fetch.KindMetadata)
	if err != nil {
		details := resolver.withTicker(ctx, data.CompanyDetails{}, filerID)
		resolver.cache.Set(key, details)
		return details, err
	}

	details, err := ParseSubmission(body)
	if err != nil {
		log.Warn().Err(err).Str("URL", url).Msg("could not parse submissions response")
	}

	details = resolver.withTicker(ctx, details, filerID)
	resolver.cache.Set(key, details)
	return details, err
}

func (resolver *Resolver) withTicker(ctx context.Context, details data.CompanyDetails, filerID string) data.CompanyDetails {
	if resolver.opts.Tickers != nil && filerID != "" {
		details.Ticker = resolver.opts.Tickers.Lookup(ctx, filerID)
	}
	return details
}

// ParseSubmission extracts company details from a submissions document.
// Jurisdiction codes are expanded to their full names.
func ParseSubmission(body []byte) (data.CompanyDetails, error) {
	if !gjson.ValidBytes(body) {
		return data.CompanyDetails{}, ErrMalformedSubmission
	}

	doc := gjson.ParseBytes(body)
	details := data.CompanyDetails{
		Name: strings.TrimSpace(doc.Get("name").String()),
		Location: data.Location(
			doc.Get("addresses.business.city").String(),
			doc.Get("addresses.business.stateOrCountry").String(),
		),
	}

	for _, path := range []string{
		"stateOfIncorporation",
		"addresses.business.stateOfIncorporation",
		"stateOfIncorporationDescription",
	} {
		if code := strings.TrimSpace(doc.Get(path).String()); code != "" {
			details.Incorporation = data.Jurisdiction(code)
			break
		}
	}

	return details, nil
}
