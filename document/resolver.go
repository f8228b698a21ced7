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

// Package document identifies the primary document of a filing from its
// index page.
package document

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/rs/zerolog/log"
)

const Unresolved = data.UnresolvedDocument

// Fetcher retrieves a registry resource
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) ([]byte, error)
}

type Resolver struct {
	fetcher    Fetcher
	strategies []Strategy
}

// NewResolver returns a resolver that tries strategies in order; with no
// strategies DefaultStrategies is used
func NewResolver(fetcher Fetcher, strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	return &Resolver{
		fetcher:    fetcher,
		strategies: strategies,
	}
}

// Resolve downloads the filing index page and returns the absolute URL of
// the primary document for formType. Unresolved is returned when no
// strategy finds a link and, together with the error, when the page could
// not be fetched.
func (resolver *Resolver) Resolve(ctx context.Context, indexURL, formType string) (string, error) {
	body, err := resolver.fetcher.Fetch(ctx, indexURL, fetch.KindFilingIndex)
	if err != nil {
		return Unresolved, err
	}

	return resolver.Find(body, indexURL, formType), nil
}

// Find runs the strategies against an already downloaded index page
func (resolver *Resolver) Find(page []byte, indexURL, formType string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		log.Warn().Err(err).Str("URL", indexURL).Msg("could not parse filing index page")
		return Unresolved
	}

	target := strings.TrimSpace(formType)
	for _, strategy := range resolver.strategies {
		if href, ok := strategy(doc, target); ok {
			return absolute(indexURL, href)
		}
	}

	log.Debug().Str("URL", indexURL).Str("FormType", target).Msg("no primary document found")
	return Unresolved
}

// absolute resolves href against the index page. Links into the inline
// XBRL viewer are unwrapped to the document they display.
func absolute(indexURL, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/ix?") {
		if viewer, err := url.Parse(href); err == nil {
			if doc := viewer.Query().Get("doc"); doc != "" {
				href = doc
			}
		}
	}

	base, err := url.Parse(indexURL)
	if err != nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}
