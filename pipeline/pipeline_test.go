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
package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/formtype"
	"github.com/penny-vault/pvfilings/pipeline"
	"github.com/penny-vault/pvfilings/query"
)

const indexHeader = `Description:           Daily Index of EDGAR Dissemination Feed by Company Name
Last Data Received:    Jan 03, 2024

CIK|Company Name|Form Type|Date Filed|File Name
--------------------------------------------------------------------------------
`

const filingIndexPage = `<html><body><table class="tableFile">
<tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
<tr><td>1</td><td>10-K</td><td><a href="aapl-20231230.htm">aapl-20231230.htm</a></td><td>10-K</td><td>1.1 MB</td></tr>
</table></body></html>`

const appleSubmission = `{"name": "Apple Inc.", "stateOfIncorporation": "CA",
	"addresses": {"business": {"city": "CUPERTINO", "stateOrCountry": "CA"}}}`

// registry is a fake registry serving canned documents by path
type registry struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
	server *httptest.Server
}

func newRegistry() *registry {
	reg := &registry{
		pages:  make(map[string]string),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}

	reg.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		defer reg.mu.Unlock()

		key := r.URL.Path
		reg.hits[key]++

		if code, ok := reg.status[key]; ok {
			w.WriteHeader(code)
			return
		}

		page, ok := reg.pages[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_, _ = w.Write([]byte(page))
	}))

	return reg
}

func (reg *registry) hitCount(prefix string) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	count := 0
	for path, cnt := range reg.hits {
		if strings.HasPrefix(path, prefix) {
			count += cnt
		}
	}
	return count
}

func (reg *registry) archives() string {
	return reg.server.URL + "/Archives/edgar"
}

func newClient() *fetch.Client {
	config := fetch.DefaultConfig("pvfilings tests admin@example.com")
	config.MinDelay = time.Millisecond
	config.RetryWait = time.Millisecond
	config.RetryMaxWait = 2 * time.Millisecond
	config.MaxRetries = 1

	client, err := fetch.New(config)
	Expect(err).NotTo(HaveOccurred())
	return client
}

func selection(entries ...string) formtype.Selection {
	sel, err := formtype.NewSelection(entries, "", formtype.DefaultGroups())
	Expect(err).NotTo(HaveOccurred())
	return sel
}

func day(dd int) time.Time {
	return time.Date(2024, 1, dd, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Pipeline", func() {
	var reg *registry

	BeforeEach(func() {
		reg = newRegistry()
		for _, dd := range []string{"20240102", "20240103", "20240104"} {
			reg.pages["/Archives/edgar/daily-index/2024/QTR1/master."+dd+".idx"] = indexHeader
		}
	})

	AfterEach(func() {
		reg.server.Close()
	})

	Context("configuration", func() {
		It("requires at least one form type", func() {
			_, err := pipeline.New(newClient(), pipeline.Options{Start: day(2), End: day(4)})
			Expect(err).To(MatchError(formtype.ErrEmptySelection))
		})

		It("rejects a reversed date range", func() {
			_, err := pipeline.New(newClient(), pipeline.Options{Start: day(4), End: day(2), Selection: selection("10-K")})
			Expect(err).To(MatchError(pipeline.ErrInvalidDateRange))
		})

		It("requires a fetcher", func() {
			_, err := pipeline.New(nil, pipeline.Options{Start: day(2), End: day(4), Selection: selection("10-K")})
			Expect(err).To(MatchError(pipeline.ErrNoFetcher))
		})
	})

	It("merges a filing reported twice and filters by form type", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240103.idx"] = indexHeader +
			"320193|Apple Inc.|10-K|20240103|edgar/data/320193/0000320193-24-000001.txt\n" +
			"320193|Apple Inc.|8-K|20240103|edgar/data/320193/0000320193-24-000001.txt\n"

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:        day(2),
			End:          day(4),
			Selection:    selection("10-K"),
			ArchivesRoot: reg.archives(),
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].FormType).To(Equal("10-K"))
		Expect(rows[0].FiledDate).To(Equal("2024-01-03"))
		Expect(rows[0].Locations).To(BeEmpty())
		Expect(rows[0].Incorporations).To(BeEmpty())
		Expect(rows[0].DocumentURL).To(BeEmpty())

		Expect(summary.UnitsTotal).To(Equal(3))
		Expect(summary.NumRecords).To(Equal(2))
		Expect(summary.NumMatched).To(Equal(1))
		Expect(summary.NumFilings).To(Equal(1))
		Expect(reg.hitCount("/submissions")).To(Equal(0))
	})

	It("fetches metadata once per filer", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240102.idx"] = indexHeader +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/0000320193-24-000001.txt\n" +
			"320193|Apple Inc.|10-Q|20240102|edgar/data/320193/0000320193-24-000002.txt\n"
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240103.idx"] = indexHeader +
			"320193|Apple Inc.|10-K/A|20240103|edgar/data/320193/0000320193-24-000003.txt\n"
		reg.pages["/submissions/CIK0000320193.json"] = appleSubmission

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:          day(2),
			End:            day(4),
			Selection:      selection("10-K", "10-Q"),
			ShowDetails:    true,
			ArchivesRoot:   reg.archives(),
			SubmissionsURL: reg.server.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		rows, _ := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0].Locations).To(Equal([]string{"CUPERTINO, California"}))
		Expect(rows[0].Incorporations).To(Equal([]string{"California"}))
		Expect(reg.hitCount("/submissions")).To(Equal(1))
	})

	It("keeps the details of every filer reporting the same accession", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240103.idx"] = indexHeader +
			"1214156|COOK TIMOTHY D|4|20240103|edgar/data/1214156/0001140361-24-000002.txt\n" +
			"320193|Apple Inc.|4|20240103|edgar/data/320193/0001140361-24-000002.txt\n"
		reg.pages["/submissions/CIK0000320193.json"] = appleSubmission
		reg.pages["/submissions/CIK0001214156.json"] = `{"name": "COOK TIMOTHY D",
			"addresses": {"business": {"city": "PALO ALTO", "stateOrCountry": "CA"}}}`

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:          day(2),
			End:            day(4),
			Selection:      selection("Insider Transactions"),
			ShowDetails:    true,
			ArchivesRoot:   reg.archives(),
			SubmissionsURL: reg.server.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		rows, _ := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].FilerIDs).To(Equal([]string{"1214156", "320193"}))
		Expect(rows[0].Locations).To(Equal([]string{"CUPERTINO, California", "PALO ALTO, California"}))
		Expect(rows[0].Incorporations).To(Equal([]string{"California"}))
		Expect(reg.hitCount("/submissions")).To(Equal(2))
	})

	It("skips days that cannot be fetched and keeps going", func() {
		reg.status["/Archives/edgar/daily-index/2024/QTR1/master.20240102.idx"] = http.StatusServiceUnavailable
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240104.idx"] = indexHeader +
			"320193|Apple Inc.|10-K|20240104|edgar/data/320193/0000320193-24-000001.txt\n"

		events := make(chan data.Event, 100)
		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:        day(2),
			End:          day(4),
			Selection:    selection("10-K"),
			ArchivesRoot: reg.archives(),
			Events:       events,
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(1))
		Expect(summary.UnitsSkipped).To(Equal(1))
		Expect(summary.NumWarnings).To(Equal(1))
		close(events)

		var warnings []data.Event
		for event := range events {
			if event.Kind == data.EventWarning {
				warnings = append(warnings, event)
			}
		}
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].StatusCode).To(Equal(http.StatusServiceUnavailable))
		Expect(warnings[0].Stage).To(Equal(pipeline.StageIndex))
	})

	It("reports a refused metadata lookup once and keeps the filings", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240102.idx"] = indexHeader +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/0000320193-24-000001.txt\n"
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240103.idx"] = indexHeader +
			"320193|Apple Inc.|10-Q|20240103|edgar/data/320193/0000320193-24-000002.txt\n"
		reg.status["/submissions/CIK0000320193.json"] = http.StatusForbidden

		opts := pipeline.Options{
			Start:          day(2),
			End:            day(3),
			Selection:      selection("10-K", "10-Q"),
			ShowDetails:    true,
			ArchivesRoot:   reg.archives(),
			SubmissionsURL: reg.server.URL,
		}

		pipe, err := pipeline.New(newClient(), opts)
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(2))
		Expect(summary.NumWarnings).To(Equal(1))
		Expect(reg.hitCount("/submissions")).To(Equal(1))
	})

	It("counts malformed accessions without failing the day", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240102.idx"] = indexHeader +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/garbage.txt\n" +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/0000320193-24-000001.txt\n"

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:        day(2),
			End:          day(2),
			Selection:    selection("10-K"),
			ArchivesRoot: reg.archives(),
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(1))
		Expect(summary.NumMalformed).To(Equal(1))
	})

	It("does not look up company details for malformed records", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240102.idx"] = indexHeader +
			"1214156|COOK TIMOTHY D|10-K|20240102|edgar/data/1214156/garbage.txt\n" +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/0000320193-24-000001.txt\n"
		reg.pages["/submissions/CIK0000320193.json"] = appleSubmission

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:          day(2),
			End:            day(2),
			Selection:      selection("10-K"),
			ShowDetails:    true,
			ArchivesRoot:   reg.archives(),
			SubmissionsURL: reg.server.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(1))
		Expect(summary.NumMalformed).To(Equal(1))
		Expect(reg.hitCount("/submissions/CIK0001214156.json")).To(Equal(0))
		Expect(reg.hitCount("/submissions")).To(Equal(1))
	})

	It("resolves primary documents when asked", func() {
		reg.pages["/Archives/edgar/daily-index/2024/QTR1/master.20240102.idx"] = indexHeader +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/0000320193-24-000001.txt\n" +
			"320193|Apple Inc.|10-K|20240102|edgar/data/320193/0000320193-24-000002.txt\n"
		reg.pages["/Archives/edgar/data/320193/000032019324000001/0000320193-24-000001-index.html"] = filingIndexPage

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:        day(2),
			End:          day(2),
			Selection:    selection("10-K"),
			Documents:    true,
			ArchivesRoot: reg.archives(),
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].DocumentURL).To(Equal(reg.archives() + "/data/320193/000032019324000001/aapl-20231230.htm"))
		Expect(rows[1].DocumentURL).To(Equal(data.UnresolvedDocument))
		Expect(summary.NumResolved).To(Equal(1))
	})

	It("stops between days when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:        day(2),
			End:          day(4),
			Selection:    selection("10-K"),
			ArchivesRoot: reg.archives(),
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(ctx)
		Expect(rows).To(BeEmpty())
		Expect(summary.Stopped).To(BeTrue())
		Expect(reg.hitCount("/")).To(Equal(0))
	})

	It("reads the search API when a query is given", func() {
		reg.pages["/LATEST/search-index"] = `{"hits": {"total": {"value": 1}, "hits": [
			{"_source": {"ciks": ["0001214156", "0000320193"],
				"display_names": ["COOK TIMOTHY D  (CIK 0001214156)", "Apple Inc.  (AAPL)  (CIK 0000320193)"],
				"form": "4", "file_date": "2024-01-03", "adsh": "0001140361-24-000002"}}]}}`

		pipe, err := pipeline.New(newClient(), pipeline.Options{
			Start:        day(2),
			End:          day(4),
			Selection:    selection("Insider Transactions"),
			ArchivesRoot: reg.archives(),
			SearchURL:    reg.server.URL + "/LATEST/search-index",
			Search:       &query.Params{EntityName: "Apple"},
		})
		Expect(err).NotTo(HaveOccurred())

		rows, summary := pipe.Run(context.Background())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].FilerIDs).To(Equal([]string{"1214156", "320193"}))
		Expect(rows[0].Key.FilerID).To(Equal("320193"))
		Expect(rows[0].Entities).To(Equal([]string{"Apple Inc."}))
		Expect(rows[0].Persons).To(Equal([]string{"COOK TIMOTHY D"}))
		Expect(summary.UnitsTotal).To(Equal(1))
		Expect(reg.hitCount("/Archives")).To(Equal(0))
	})
})

var _ = Describe("Days", func() {
	It("skips weekends by default", func() {
		// Friday through Monday
		days := pipeline.Days(day(5), day(8), false)
		Expect(days).To(Equal([]time.Time{day(5), day(8)}))
	})

	It("includes weekends when asked", func() {
		Expect(pipeline.Days(day(5), day(8), true)).To(HaveLen(4))
	})

	It("returns nothing for a reversed range", func() {
		Expect(pipeline.Days(day(8), day(5), true)).To(BeEmpty())
	})
})
