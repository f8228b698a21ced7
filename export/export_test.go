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
package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/export"
)

func sampleRecords() []*data.FilingRecord {
	return []*data.FilingRecord{
		{
			Key:            data.FilingKey{FilerID: "320193", Accession: "0001140361-24-000002"},
			FormType:       "4",
			FiledDate:      "2024-01-03",
			FilerIDs:       []string{"1214156", "320193"},
			Entities:       []string{"Apple Inc."},
			Persons:        []string{"COOK TIMOTHY D", "Williams Jeffrey E"},
			Locations:      []string{"CUPERTINO, California"},
			Incorporations: []string{"California"},
			IndexURL:       "https://www.sec.gov/Archives/edgar/data/320193/000114036124000002/0001140361-24-000002-index.html",
			DocumentURL:    "https://www.sec.gov/Archives/edgar/data/320193/000114036124000002/form4.htm",
		},
		{
			Key:         data.FilingKey{FilerID: "1000045", Accession: "0000950170-24-000123"},
			FormType:    "8-K",
			FiledDate:   "2024-01-03",
			FilerIDs:    []string{"1000045"},
			Entities:    []string{"NICHOLAS FINANCIAL INC"},
			IndexURL:    "https://www.sec.gov/Archives/edgar/data/1000045/000095017024000123/0000950170-24-000123-index.html",
			DocumentURL: data.UnresolvedDocument,
		},
	}
}

var _ = Describe("Columns", func() {
	It("accepts keys and headers in any case", func() {
		cols, err := export.ParseColumns([]string{"FORM_TYPE", "filing person", " document_url "})
		Expect(err).NotTo(HaveOccurred())
		Expect(cols).To(HaveLen(3))
		Expect(cols[1].Key).To(Equal("persons"))
		Expect(cols[2].Link).To(BeTrue())
	})

	It("selects every column when none are named", func() {
		cols, err := export.ParseColumns(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cols).To(HaveLen(len(export.AllColumns())))
	})

	It("rejects unknown columns", func() {
		_, err := export.ParseColumns([]string{"form_type", "shoe_size"})
		Expect(err).To(MatchError(export.ErrUnknownColumn))
	})

	It("names files after the forms and dates", func() {
		name := export.FileName([]string{"10-K", "SC 13D"},
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), ".csv")
		Expect(name).To(Equal("filings-10-k-sc-13d-2024-01-02-to-2024-01-31.csv"))
	})
})

var _ = Describe("CSV", func() {
	It("writes the selected columns with plain URLs", func() {
		cols, err := export.ParseColumns([]string{"form_type", "persons", "document_url"})
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		Expect(export.WriteCSV(&buf, sampleRecords(), cols)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(Equal([]string{
			"Form Type,Filing Person,Document",
			"4,COOK TIMOTHY D; Williams Jeffrey E,https://www.sec.gov/Archives/edgar/data/320193/000114036124000002/form4.htm",
			"8-K,,N/A",
		}))
		Expect(buf.String()).NotTo(ContainSubstring("\x1b]8;"))
	})

	It("writes every column when none are selected", func() {
		var buf bytes.Buffer
		Expect(export.WriteCSV(&buf, sampleRecords(), nil)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(Equal("Form Type,Filed Date,Accession Number,Filing Entity,Filing Person,Ticker,Location,Incorporated,CIK,Filing Index,Document"))
		Expect(lines[1]).To(ContainSubstring("1214156; 320193"))
	})

	It("writes csv and parquet files", func() {
		dir := GinkgoT().TempDir()

		csvName := filepath.Join(dir, "filings.csv")
		Expect(export.WriteCSVFile(csvName, sampleRecords(), nil)).To(Succeed())

		parquetName := filepath.Join(dir, "filings.parquet")
		Expect(export.WriteParquet(parquetName, sampleRecords())).To(Succeed())

		for _, fn := range []string{csvName, parquetName} {
			info, err := os.Stat(fn)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeNumerically(">", 0))
		}
	})
})

var _ = Describe("Render", func() {
	It("renders link columns as hyperlinks and keeps the placeholder as text", func() {
		out := export.Render(sampleRecords(), nil)
		Expect(out).To(ContainSubstring("Filing Index"))
		Expect(out).To(ContainSubstring("0001140361-24-000002"))
		Expect(out).To(ContainSubstring("form4.htm"))
		Expect(out).To(ContainSubstring("N/A"))
		Expect(out).To(ContainSubstring("COOK TIMOTHY D"))
	})

	It("leaves empty and unresolved links alone", func() {
		Expect(export.Hyperlink("", "x")).To(Equal(""))
		Expect(export.Hyperlink(data.UnresolvedDocument, "x")).To(Equal("N/A"))
		link := export.Hyperlink("https://example.test/a.htm", "a.htm")
		Expect(link).To(ContainSubstring("https://example.test/a.htm"))
		Expect(link).To(ContainSubstring("a.htm"))
	})
})
