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

// Package fetch is the only path to the filings registry. Every request
// waits on one shared limiter, carries the configured user agent, and is
// retried on transient status codes.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfilings/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Kind identifies which part of the registry a request targets
type Kind string

const (
	KindBulkIndex   Kind = "bulk-index"
	KindFilingIndex Kind = "filing-index"
	KindMetadata    Kind = "metadata"
	KindSearch      Kind = "search"
)

const (
	DefaultMinDelay   = 500 * time.Millisecond
	DefaultMaxRetries = 3
	DefaultTimeout    = 10 * time.Second
)

var contactPattern = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)

type Config struct {
	UserAgent    string
	MinDelay     time.Duration
	MaxRetries   int
	Timeout      time.Duration
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// DefaultConfig returns the registry's published rate guidance
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:    userAgent,
		MinDelay:     DefaultMinDelay,
		MaxRetries:   DefaultMaxRetries,
		Timeout:      DefaultTimeout,
		RetryWait:    500 * time.Millisecond,
		RetryMaxWait: 8 * time.Second,
	}
}

type Client struct {
	config  Config
	client  *resty.Client
	limiter *rate.Limiter
}

type kindKey struct{}

// New validates the configuration and builds a client. A missing or
// contact-less user agent is rejected here, before any request is made.
func New(config Config) (*Client, error) {
	config.UserAgent = strings.TrimSpace(config.UserAgent)
	if config.UserAgent == "" {
		return nil, ErrMissingUserAgent
	}

	if !contactPattern.MatchString(config.UserAgent) {
		return nil, ErrUserAgentContact
	}

	if config.MinDelay < 0 {
		config.MinDelay = 0
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	// rate.Every treats a zero delay as unlimited
	fetchClient := &Client{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(config.MinDelay), 1),
	}

	fetchClient.client = resty.New().
		SetTimeout(config.Timeout).
		SetHeader("User-Agent", config.UserAgent).
		SetRetryCount(config.MaxRetries).
		SetRetryWaitTime(config.RetryWait).
		SetRetryMaxWaitTime(config.RetryMaxWait).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		AddRetryCondition(retryable).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			// every attempt, retries included, spends from the same budget
			return fetchClient.limiter.Wait(req.Context())
		})

	return fetchClient, nil
}

// retryable decides whether resty should attempt the request again
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}

	if resp == nil {
		return false
	}

	var kind Kind
	if resp.Request != nil {
		kind, _ = resp.Request.Context().Value(kindKey{}).(Kind)
	}

	return retryableStatus(kind, resp.StatusCode())
}

func retryableStatus(kind Kind, statusCode int) bool {
	switch statusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case http.StatusInternalServerError:
		return kind == KindBulkIndex
	}
	return false
}

// Fetch retrieves url and returns its body. On failure the returned error
// is a *Failure.
func (fetchClient *Client) Fetch(ctx context.Context, url string, kind Kind) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	resp, err := fetchClient.client.R().
		SetContext(context.WithValue(ctx, kindKey{}, kind)).
		Get(url)

	attempts := 1
	if resp != nil && resp.Request != nil {
		attempts = resp.Request.Attempt
	}

	if err != nil {
		metrics.RequestsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fetchClient.fail(&Failure{
			Kind:        FailureNetwork,
			RequestKind: kind,
			URL:         url,
			Attempts:    attempts,
			Err:         err,
		})
	}

	statusCode := resp.StatusCode()
	metrics.RequestsTotal.WithLabelValues(string(kind), strconv.Itoa(statusCode/100)+"xx").Inc()

	if statusCode >= 200 && statusCode < 300 {
		log.Debug().Str("URL", url).Str("Kind", string(kind)).Int("StatusCode", statusCode).
			Dur("Elapsed", resp.Time()).Msg("fetched")
		return resp.Body(), nil
	}

	failure := &Failure{
		Kind:        FailureHTTPStatus,
		RequestKind: kind,
		URL:         url,
		StatusCode:  statusCode,
		Attempts:    attempts,
	}

	switch {
	case statusCode == http.StatusForbidden:
		failure.Kind = FailureAccessDenied
	case retryableStatus(kind, statusCode):
		failure.Kind = FailureTransient
	}

	return nil, fetchClient.fail(failure)
}

func (fetchClient *Client) fail(failure *Failure) *Failure {
	metrics.FailuresTotal.WithLabelValues(string(failure.RequestKind), string(failure.Kind)).Inc()

	log.Debug().Str("URL", failure.URL).Str("Kind", string(failure.RequestKind)).
		Str("Reason", string(failure.Kind)).Int("StatusCode", failure.StatusCode).
		Int("Attempts", failure.Attempts).Msg("fetch failed")

	return failure
}

// Config returns the effective configuration of the client
func (fetchClient *Client) Config() Config {
	return fetchClient.config
}
