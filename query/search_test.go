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
package query_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/query"
)

const searchPage = `{
  "hits": {
    "total": {"value": 3, "relation": "eq"},
    "hits": [
      {"_id": "0001140361-24-000002:form4.xml", "_source": {
        "ciks": ["0001214156", "0000320193"],
        "display_names": ["COOK TIMOTHY D  (CIK 0001214156)", "Apple Inc.  (AAPL)  (CIK 0000320193)"],
        "form": "4", "file_date": "2024-01-03", "adsh": "0001140361-24-000002"}},
      {"_id": "bad", "_source": {"ciks": ["0000320193"], "form": "8-K", "file_date": "2024-01-03", "adsh": "not-an-accession"}},
      {"_id": "empty", "_source": {"ciks": [], "form": "8-K", "file_date": "2024-01-03", "adsh": "0000320193-24-000009"}}
    ]
  }
}`

var _ = Describe("Search", func() {
	params := query.Params{
		Phrase:     "\"climate risk\"",
		EntityName: "Apple",
		Forms:      []string{"10-K", "8-K"},
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	It("encodes every filter in the page URL", func() {
		client := query.NewClient(nil, "https://efts.example.test/LATEST/search-index")
		pageURL := client.PageURL(params, 100)

		Expect(pageURL).To(HavePrefix("https://efts.example.test/LATEST/search-index?"))
		Expect(pageURL).To(ContainSubstring("dateRange=custom"))
		Expect(pageURL).To(ContainSubstring("startdt=2024-01-01"))
		Expect(pageURL).To(ContainSubstring("enddt=2024-01-31"))
		Expect(pageURL).To(ContainSubstring("forms=10-K%2C8-K"))
		Expect(pageURL).To(ContainSubstring("entityName=Apple"))
		Expect(pageURL).To(ContainSubstring("q=%22climate+risk%22"))
		Expect(pageURL).To(ContainSubstring("from=100"))
	})

	It("turns each hit into one record per filer id and drops malformed hits", func() {
		page, err := query.ParsePage([]byte(searchPage))
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(3))
		Expect(page.Hits).To(Equal(3))
		Expect(page.Dropped).To(Equal(2))
		Expect(page.Records).To(HaveLen(2))

		Expect(page.Records[0].FilerID).To(Equal("320193"))
		Expect(page.Records[0].Name).To(Equal("Apple Inc."))
		Expect(page.Records[0].Path).To(Equal("edgar/data/320193/0001140361-24-000002.txt"))
		Expect(page.Records[1].FilerID).To(Equal("1214156"))
		Expect(page.Records[1].Name).To(Equal("COOK TIMOTHY D"))

		key, err := page.Records[1].Key()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key.Accession)).To(Equal("0001140361-24-000002"))
	})

	It("keeps the listed order when no filer carries a ticker", func() {
		page, err := query.ParsePage([]byte(`{"hits": {"total": {"value": 1}, "hits": [
			{"_source": {"ciks": ["0001214156", "0001500000"],
				"display_names": ["COOK TIMOTHY D  (CIK 0001214156)", "Example Holdings LLC  (CIK 0001500000)"],
				"form": "4", "file_date": "2024-01-03", "adsh": "0001140361-24-000002"}}]}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Records).To(HaveLen(2))
		Expect(page.Records[0].Name).To(Equal("COOK TIMOTHY D"))
		Expect(page.Records[1].Name).To(Equal("Example Holdings LLC"))
	})

	DescribeTable("ticker annotations",
		func(raw, expected string) {
			Expect(query.Ticker(raw)).To(Equal(expected))
		},
		Entry("listed company", "Apple Inc.  (AAPL)  (CIK 0000320193)", "AAPL"),
		Entry("several share classes", "Alphabet Inc.  (GOOGL, GOOG)  (CIK 0001652044)", "GOOGL"),
		Entry("individual", "COOK TIMOTHY D  (CIK 0001214156)", ""),
		Entry("no annotations", "Apple Inc.", ""),
	)

	It("rejects a body that is not json", func() {
		_, err := query.ParsePage([]byte("<html>"))
		Expect(err).To(HaveOccurred())
	})

	It("knows when the last page was reached", func() {
		page := &query.Page{From: 0, Hits: 100, Total: 150}
		next, ok := page.Next()
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(100))

		page = &query.Page{From: 100, Hits: 50, Total: 150}
		_, ok = page.Next()
		Expect(ok).To(BeFalse())

		page = &query.Page{From: 0, Hits: 0, Total: 150}
		_, ok = page.Next()
		Expect(ok).To(BeFalse())
	})

	It("fetches pages through the search kind", func() {
		var received string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r.URL.Query().Get("from")
			_, _ = w.Write([]byte(searchPage))
		}))
		defer server.Close()

		config := fetch.DefaultConfig("pvfilings tests admin@example.com")
		config.MinDelay = time.Millisecond
		fetcher, err := fetch.New(config)
		Expect(err).NotTo(HaveOccurred())

		page, err := query.NewClient(fetcher, server.URL).FetchPage(context.Background(), params, 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(received).To(Equal("50"))
		Expect(page.From).To(Equal(50))
		Expect(page.Records).To(HaveLen(2))
	})
})
