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
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

var (
	ErrMalformedAccession = errors.New("malformed accession number")
)

var accessionPattern = regexp.MustCompile(`^\d{10}-\d{2}-\d{6}$`)

// Accession is the registry's identifier for one filing submission in its
// hyphenated form, e.g. 0000950170-24-000123
type Accession string

// ParseAccession validates s against the fixed accession shape
func ParseAccession(s string) (Accession, error) {
	s = strings.TrimSpace(s)
	if !accessionPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrMalformedAccession, s)
	}

	return Accession(s), nil
}

// AccessionFromPath derives the accession number from the document path
// listed in a bulk index (e.g. edgar/data/320193/0000320193-24-000006.txt)
func AccessionFromPath(docPath string) (Accession, error) {
	docPath = strings.TrimSpace(docPath)
	docPath = strings.TrimSuffix(docPath, ".txt")
	return ParseAccession(path.Base(docPath))
}

// NoHyphens returns the accession with the separators removed, which is
// the form used in archive directory names
func (acc Accession) NoHyphens() string {
	return strings.ReplaceAll(string(acc), "-", "")
}

func (acc Accession) String() string {
	return string(acc)
}

// FilingKey identifies one filing. Identity is carried by the accession
// alone; FilerID records the filer under which the filing was first seen.
type FilingKey struct {
	FilerID   string
	Accession Accession
}

// ID returns the identity used when merging records
func (key FilingKey) ID() string {
	return string(key.Accession)
}

// Same reports whether both keys refer to the same filing
func (key FilingKey) Same(other FilingKey) bool {
	return key.Accession == other.Accession
}

// FilingIndexURL returns the URL of the human readable filing index page
func FilingIndexURL(archivesRoot string, key FilingKey) string {
	return fmt.Sprintf("%s/data/%s/%s/%s-index.html", strings.TrimRight(archivesRoot, "/"),
		strings.TrimLeft(key.FilerID, "0"), key.Accession.NoHyphens(), key.Accession)
}

// PadFilerID zero-pads a filer identifier to the 10 digit form used by the
// submissions API
func PadFilerID(filerID string) string {
	filerID = strings.TrimSpace(filerID)
	if len(filerID) >= 10 {
		return filerID
	}
	return strings.Repeat("0", 10-len(filerID)) + filerID
}
