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
package formtype_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfilings/formtype"
)

func mustSelect(entries ...string) formtype.Selection {
	selection, err := formtype.NewSelection(entries, "", formtype.DefaultGroups())
	Expect(err).NotTo(HaveOccurred())
	return selection
}

var _ = Describe("Selection", func() {
	DescribeTable("prefix matching",
		func(raw string, entries []string, expected bool) {
			Expect(formtype.Matches(raw, mustSelect(entries...))).To(Equal(expected))
		},
		Entry("exact", "10-K", []string{"10-K"}, true),
		Entry("historical variant", "10-K405", []string{"10-K"}, true),
		Entry("amendment", "10-K/A", []string{"10-K"}, true),
		Entry("prefix in the middle does not count", "NT 10-K", []string{"10-K"}, false),
		Entry("case is ignored", "def 14a", []string{"DEF 14A"}, true),
		Entry("selection case is ignored", "8-K", []string{"8-k"}, true),
		Entry("unrelated form", "8-K", []string{"10-K"}, false),
		Entry("empty form", "", []string{"10-K"}, false),
		Entry("numeric form", "4", []string{"4"}, true),
		Entry("numeric form amendment", "4/A", []string{"4"}, true),
		Entry("numeric form does not prefix longer numbers", "424B5", []string{"4"}, false),
		Entry("numeric form does not prefix other families", "40-F", []string{"4"}, false),
	)

	It("keeps insider transactions free of prospectuses and fund filings", func() {
		selection := mustSelect("Insider Transactions")
		for _, form := range []string{"3", "4", "5", "4/A", "5/A"} {
			Expect(selection.Matches(form)).To(BeTrue(), form)
		}
		for _, form := range []string{"424B5", "40-F", "497K", "485BPOS", "425", "305B2", "34-12H"} {
			Expect(selection.Matches(form)).To(BeFalse(), form)
		}
	})

	It("expands group aliases when the selection is built", func() {
		selection := mustSelect("non-management ownership")
		Expect(selection.Entries()).To(ConsistOf("SC 13D", "SC 13G", "SCHEDULE 13D", "SCHEDULE 13G"))
		Expect(selection.Matches("SC 13G/A")).To(BeTrue())
	})

	It("does not tolerate misspelled group names", func() {
		selection := mustSelect("Non-Managment Ownership")
		Expect(selection.Entries()).To(Equal([]string{"NON-MANAGMENT OWNERSHIP"}))
		Expect(selection.Matches("SC 13D")).To(BeFalse())
	})

	It("merges custom entries and removes duplicates", func() {
		selection, err := formtype.NewSelection([]string{"10-K", "8-K"}, " 10-q, 8-k ,,", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(selection.Entries()).To(Equal([]string{"10-K", "10-Q", "8-K"}))
	})

	It("rejects an empty selection", func() {
		_, err := formtype.NewSelection([]string{" "}, " , ", formtype.DefaultGroups())
		Expect(err).To(MatchError(formtype.ErrEmptySelection))
	})

	It("uses a configured alias table in place of the defaults", func() {
		groups := formtype.GroupsFromConfig(map[string]any{
			"ownership": []any{"SC 13D", "SC 13G"},
			"annual":    "10-K, 20-F",
		})
		Expect(groups.Names()).To(Equal([]string{"annual", "ownership"}))

		selection, err := formtype.NewSelection([]string{"Annual"}, "", groups)
		Expect(err).NotTo(HaveOccurred())
		Expect(selection.Entries()).To(Equal([]string{"10-K", "20-F"}))
	})

	It("ignores configuration values that are not tables", func() {
		Expect(formtype.GroupsFromConfig("10-K")).To(BeNil())
		Expect(formtype.GroupsFromConfig(nil)).To(BeNil())
	})
})
