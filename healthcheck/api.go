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
package healthcheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvfilings/data"
	"github.com/spf13/viper"
)

const (
	DefaultPingURL = "https://hc-ping.com"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

type Signal string

const (
	SignalStart   Signal = "start"
	SignalSuccess Signal = ""
	SignalFail    Signal = "fail"
)

// Monitor reports the progress of scheduled searches to healthchecks.io
type Monitor struct {
	ID      string
	BaseURL string
	client  *resty.Client
}

// NewMonitor returns a monitor for the check configured under
// healthchecks.ping_id, or nil when no check is configured
func NewMonitor() *Monitor {
	id := viper.GetString("healthchecks.ping_id")
	if id == "" {
		return nil
	}

	baseURL := viper.GetString("healthchecks.url")
	if baseURL == "" {
		baseURL = DefaultPingURL
	}

	return &Monitor{
		ID:      id,
		BaseURL: baseURL,
		client:  resty.New(),
	}
}

func (monitor *Monitor) pingURL(signal Signal) string {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(monitor.BaseURL, "/"), monitor.ID)
	if signal != SignalSuccess {
		url += "/" + string(signal)
	}
	return url
}

// Ping sends signal with an optional message body. A nil monitor does
// nothing.
func (monitor *Monitor) Ping(signal Signal, body string) error {
	if monitor == nil {
		return nil
	}

	if monitor.client == nil {
		monitor.client = resty.New()
	}

	resp, err := monitor.client.R().
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(monitor.pingURL(signal))

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}

// Finish reports the outcome of a run. Runs that skipped any day or page
// are reported as failed so the check surfaces incomplete results.
func (monitor *Monitor) Finish(summary *data.RunSummary) error {
	signal := SignalSuccess
	if summary.UnitsSkipped > 0 || summary.Stopped {
		signal = SignalFail
	}

	body := fmt.Sprintf("run %s: %d filings from %d records, %d warnings, %d of %d batches skipped",
		summary.RunID, summary.NumFilings, summary.NumRecords, summary.NumWarnings,
		summary.UnitsSkipped, summary.UnitsTotal)

	return monitor.Ping(signal, body)
}
