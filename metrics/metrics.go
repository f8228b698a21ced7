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

// Package metrics provides Prometheus metrics for registry access
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts outbound requests by kind and status class
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvfilings_registry_requests_total",
			Help: "Total number of requests sent to the filings registry",
		},
		[]string{"kind", "status"},
	)

	// FailuresTotal counts requests that ended in a failure by kind and reason
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvfilings_registry_failures_total",
			Help: "Total number of registry requests that failed after retries",
		},
		[]string{"kind", "reason"},
	)

	// RequestDuration tracks request latency including retries
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pvfilings_registry_request_duration_seconds",
			Help:    "Duration of registry requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// FilingsTotal counts filings emitted by completed runs
	FilingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pvfilings_filings_total",
			Help: "Total number of filings produced by pipeline runs",
		},
	)
)
