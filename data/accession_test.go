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
package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfilings/data"
)

var _ = Describe("Accession", func() {
	DescribeTable("derives the accession from an index path",
		func(docPath string, expected data.Accession) {
			acc, err := data.AccessionFromPath(docPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(acc).To(Equal(expected))
		},
		Entry("standard path", "edgar/data/320193/0000320193-24-000006.txt", data.Accession("0000320193-24-000006")),
		Entry("surrounding whitespace", "  edgar/data/1/0000950170-24-000123.txt ", data.Accession("0000950170-24-000123")),
		Entry("no suffix", "edgar/data/1/0000950170-24-000123", data.Accession("0000950170-24-000123")),
	)

	It("rejects paths that do not end in an accession number", func() {
		_, err := data.AccessionFromPath("edgar/data/320193/readme.txt")
		Expect(err).To(MatchError(data.ErrMalformedAccession))
	})

	It("strips hyphens for archive directories", func() {
		Expect(data.Accession("0000950170-24-000123").NoHyphens()).To(Equal("000095017024000123"))
	})

	It("builds the filing index URL", func() {
		key := data.FilingKey{FilerID: "0000320193", Accession: "0000320193-24-000006"}
		Expect(data.FilingIndexURL("https://www.sec.gov/Archives/edgar/", key)).To(Equal(
			"https://www.sec.gov/Archives/edgar/data/320193/000032019324000006/0000320193-24-000006-index.html"))
	})

	It("treats keys with the same accession as the same filing", func() {
		a := data.FilingKey{FilerID: "1", Accession: "0000950170-24-000123"}
		b := data.FilingKey{FilerID: "2", Accession: "0000950170-24-000123"}
		c := data.FilingKey{FilerID: "1", Accession: "0000950170-24-000124"}
		Expect(a.Same(b)).To(BeTrue())
		Expect(a.Same(c)).To(BeFalse())
	})

	It("pads filer ids to ten digits", func() {
		Expect(data.PadFilerID("320193")).To(Equal("0000320193"))
		Expect(data.PadFilerID("0000320193")).To(Equal("0000320193"))
	})
})
