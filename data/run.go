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
package data

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventProgress EventKind = "progress"
	EventWarning  EventKind = "warning"
)

// Event is a structured notification emitted while a run progresses. The
// interactive layer renders these; the pipeline never blocks on them
// beyond the buffer of the channel it was given.
type Event struct {
	Kind       EventKind
	Stage      string
	URL        string
	Message    string
	StatusCode int
	Completed  int
	Total      int
	Time       time.Time
}

// RunSummary describes one pipeline run
type RunSummary struct {
	RunID     uuid.UUID
	StartTime time.Time
	EndTime   time.Time

	NumRecords   int
	NumMatched   int
	NumMalformed int
	NumFilings   int
	NumWarnings  int
	NumResolved  int

	UnitsTotal   int
	UnitsSkipped int
	Stopped      bool
}

func (summary RunSummary) Duration() time.Duration {
	return summary.EndTime.Sub(summary.StartTime)
}
