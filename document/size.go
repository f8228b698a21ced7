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
package document

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize converts a size cell ("1.1 MB", "12 KB", "48213") to bytes.
// Unreadable sizes count as zero.
func ParseSize(cell string) uint64 {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0
	}

	size, err := humanize.ParseBytes(cell)
	if err != nil {
		return 0
	}

	return size
}
