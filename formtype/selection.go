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

// Package formtype turns the user's form type choices into a flat
// selection and tests raw form types against it.
//
// Matching is a case-insensitive prefix test: a selection of 10-K also
// matches 10-K405, 10-KT and 10-K/A. This is intentional; amendments and
// historical variants of a form are wanted alongside the form itself.
//
// Purely numeric form types (3, 4, 5, 144) are the exception: they match
// only themselves and their amendments, so 4 selects 4 and 4/A but not
// 424B5 or 40-F.
package formtype

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmptySelection = errors.New("at least one form type must be selected")
)

// Selection is an expanded, upper-cased, duplicate free set of form type
// prefixes
type Selection struct {
	entries []string
}

// NewSelection expands group aliases in entries, adds the comma separated
// custom form types, and returns the flattened selection
func NewSelection(entries []string, custom string, groups Groups) (Selection, error) {
	expanded := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if members, ok := groups.Lookup(entry); ok {
			expanded = append(expanded, members...)
			continue
		}

		expanded = append(expanded, entry)
	}

	expanded = append(expanded, SplitCustom(custom)...)

	seen := make(map[string]struct{}, len(expanded))
	selection := Selection{entries: make([]string, 0, len(expanded))}
	for _, entry := range expanded {
		entry = strings.ToUpper(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		selection.entries = append(selection.entries, entry)
	}

	if len(selection.entries) == 0 {
		return Selection{}, ErrEmptySelection
	}

	sort.Strings(selection.entries)
	return selection, nil
}

// SplitCustom splits free text such as "10-K, 10-Q ,8-K" into form types
func SplitCustom(custom string) []string {
	parts := strings.Split(custom, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Matches reports whether rawFormType starts with any selected entry
func (selection Selection) Matches(rawFormType string) bool {
	rawFormType = strings.ToUpper(strings.TrimSpace(rawFormType))
	if rawFormType == "" {
		return false
	}

	for _, entry := range selection.entries {
		if matchesEntry(rawFormType, entry) {
			return true
		}
	}

	return false
}

func matchesEntry(rawFormType, entry string) bool {
	if !numeric(entry) {
		return strings.HasPrefix(rawFormType, entry)
	}

	return rawFormType == entry || strings.HasPrefix(rawFormType, entry+"/")
}

func numeric(entry string) bool {
	for _, ch := range entry {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return entry != ""
}

// Matches is the function form of Selection.Matches
func Matches(rawFormType string, selection Selection) bool {
	return selection.Matches(rawFormType)
}

// Entries returns a copy of the selected form types
func (selection Selection) Entries() []string {
	return append([]string(nil), selection.entries...)
}

func (selection Selection) Len() int {
	return len(selection.entries)
}

func (selection Selection) String() string {
	return strings.Join(selection.entries, ",")
}
