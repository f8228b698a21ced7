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
package cmd

import (
	"fmt"
	"strings"

	"github.com/penny-vault/pvfilings/formtype"
	"github.com/spf13/cobra"
)

var showAllForms bool

// formtypesCmd represents the formtypes command
var formtypesCmd = &cobra.Command{
	Use:   "formtypes [group]",
	Short: "List form type groups or the members of one group",
	Long: `Form types are matched by prefix: selecting 10-K also selects 10-K405
and 10-K/A. Groups are shorthand for several form types and can be replaced
with the formtypes.groups table in the config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(renderMarkdown(formTypesDocument(formGroups(), args, showAllForms)))
	},
}

func formTypesDocument(groups formtype.Groups, args []string, all bool) string {
	builder := strings.Builder{}

	if len(args) > 0 {
		name := strings.Join(args, " ")
		members, ok := groups.Lookup(name)
		if !ok {
			builder.WriteString(fmt.Sprintf("# %s\n\nNo group named '%s'. Run `pvfilings formtypes` for the list of groups.\n", name, name))
			return builder.String()
		}

		builder.WriteString(fmt.Sprintf("# %s\n\n", name))
		for _, member := range members {
			builder.WriteString(fmt.Sprintf("- %s\n", member))
		}
		return builder.String()
	}

	builder.WriteString("# Form Type Groups\n")
	for _, name := range groups.Names() {
		members, _ := groups.Lookup(name)
		builder.WriteString(fmt.Sprintf("\n## %s\n%s\n", name, strings.Join(members, ", ")))
	}

	builder.WriteString("\n# Common Form Types\n\n")
	builder.WriteString(strings.Join(formtype.Common, ", "))
	builder.WriteString("\n")

	if all {
		builder.WriteString("\n# All Form Types\n\n")
		for _, form := range formtype.Known {
			builder.WriteString(fmt.Sprintf("- %s\n", form))
		}
	}

	return builder.String()
}

func init() {
	rootCmd.AddCommand(formtypesCmd)
	formtypesCmd.Flags().BoolVarP(&showAllForms, "all", "a", false, "list every form type known to the registry")
}
