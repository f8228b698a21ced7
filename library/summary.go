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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown listing up to
// numRuns recent searches
func (myLibrary *Library) Summary(ctx context.Context, numRuns int) (string, error) {
	numFilings, err := myLibrary.NumFilings(ctx)
	if err != nil {
		return "", err
	}

	numRuns, err := myLibrary.NumRuns(ctx)
	if err != nil {
		return "", err
	}

	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	first, last, err := myLibrary.FiledRange(ctx)
	if err != nil {
		return "", err
	}

	counts, err := myLibrary.FormTypeCounts(ctx)
	if err != nil {
		return "", err
	}

	runs, err := myLibrary.Runs(ctx, numRuns)
	if err != nil {
		return "", err
	}

	return FormatSummary(SummaryInfo{
		Name:        myLibrary.Name,
		Owner:       myLibrary.Owner,
		DBUrl:       myLibrary.DBUrl,
		NumFilings:  numFilings,
		NumRuns:     numRuns,
		LastUpdated: lastUpdated,
		FirstFiled:  first,
		LastFiled:   last,
		FormTypes:   counts,
		Runs:        runs,
	}), nil
}

// SummaryInfo holds everything the summary document shows
type SummaryInfo struct {
	Name        string
	Owner       string
	DBUrl       string
	NumFilings  int
	NumRuns     int
	LastUpdated time.Time
	FirstFiled  time.Time
	LastFiled   time.Time
	FormTypes   []*FormTypeCount
	Runs        []*Run
}

// FormatSummary renders info as markdown
func FormatSummary(info SummaryInfo) string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n", info.Name))
	builder.WriteString("## Details\n\n")

	if info.Owner != "" {
		builder.WriteString(fmt.Sprintf("Owner: %s\n\n", info.Owner))
	}

	// Database connection string
	builder.WriteString(fmt.Sprintf("Database: %s\n\n", info.DBUrl))

	builder.WriteString(p.Sprintf("  * Filings: %d\n", info.NumFilings))
	builder.WriteString(p.Sprintf("  * Searches: %d\n", info.NumRuns))
	if info.NumFilings > 0 {
		builder.WriteString(fmt.Sprintf("  * Filed: %s - %s\n", info.FirstFiled.Format("Jan 2, 2006"), info.LastFiled.Format("Jan 2, 2006")))
	}
	builder.WriteString("\n")

	if info.LastUpdated.Equal(time.Time{}) {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		age := timeago.English.Format(info.LastUpdated)
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, info.LastUpdated.Local().Format("01/02/2006")))
	}

	builder.WriteString("## Form types\n\n")
	for _, count := range info.FormTypes {
		builder.WriteString(p.Sprintf("  * %s: %d\n", count.FormType, count.Count))
	}
	builder.WriteString("\n")

	builder.WriteString("## Recent searches\n\n")
	for _, run := range info.Runs {
		status := ""
		if run.Stopped {
			status = " (stopped)"
		}

		builder.WriteString(p.Sprintf("  * %s to %s %s: %d filings, %d warnings%s [%s]\n",
			run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"),
			strings.Join(run.FormTypes, ", "), run.NumFilings, run.NumWarnings, status, run.ID.String()[:6]))
	}

	return builder.String()
}
