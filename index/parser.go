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
package index

import (
	"bufio"
	"bytes"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/penny-vault/pvfilings/data"
)

const numFields = 5

// Parse returns the records in one day's master index. The sequence is
// lazy and can be ranged over any number of times; lines that do not
// contain exactly five pipe-delimited fields are skipped.
func Parse(raw []byte) iter.Seq[data.RawIndexRecord] {
	return func(yield func(data.RawIndexRecord) bool) {
		scanner := bufio.NewScanner(bytes.NewReader(raw))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			if isSeparator(scanner.Text()) {
				for scanner.Scan() {
					if rec, ok := ParseLine(scanner.Text()); ok {
						if !yield(rec) {
							return
						}
					}
				}
				return
			}
		}

		// no header block, every line is data
		scanner = bufio.NewScanner(bytes.NewReader(raw))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if rec, ok := ParseLine(scanner.Text()); ok {
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// ParseLine splits a single data line into a record
func ParseLine(line string) (data.RawIndexRecord, bool) {
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) != numFields {
		return data.RawIndexRecord{}, false
	}

	return data.RawIndexRecord{
		FilerID:   strings.TrimSpace(parts[0]),
		Name:      strings.TrimSpace(parts[1]),
		FormType:  strings.TrimSpace(parts[2]),
		FiledDate: strings.TrimSpace(parts[3]),
		Path:      strings.TrimSpace(parts[4]),
	}, true
}

func isSeparator(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) >= 3 && strings.Trim(line, "-") == ""
}

// Quarter returns the calendar quarter (1-4) of day
func Quarter(day time.Time) int {
	return (int(day.Month())-1)/3 + 1
}

// DailyURL returns the location of the master index for day
func DailyURL(archivesRoot string, day time.Time) string {
	return fmt.Sprintf("%s/daily-index/%d/QTR%d/master.%s.idx", strings.TrimRight(archivesRoot, "/"),
		day.Year(), Quarter(day), day.Format("20060102"))
}
