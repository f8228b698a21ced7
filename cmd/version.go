// Copyright 2023
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

	"github.com/penny-vault/pvfilings/pkginfo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	printDeps      bool
	printShort     bool
	printUserAgent bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Long: `Print the build version. With --agent the user agent sent to EDGAR is
printed instead, which is useful for checking the contact address in the
config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		switch {
		case printUserAgent:
			contact := strings.TrimSpace(viper.GetString("user_agent"))
			if contact == "" {
				fmt.Println("user_agent is not configured")
				return
			}
			fmt.Println(pkginfo.UserAgent(contact))
			return
		case printShort:
			fmt.Println(pkginfo.ResolvedVersion())
		default:
			fmt.Println(pkginfo.BuildVersionString())
		}

		if printDeps {
			fmt.Printf("\n\n")
			fmt.Println(strings.Join(pkginfo.GetDependencyList(), "\n"))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&printDeps, "deps", "d", false, "print dependencies")
	versionCmd.Flags().BoolVarP(&printShort, "short", "s", false, "only print version number")
	versionCmd.Flags().BoolVarP(&printUserAgent, "agent", "a", false, "print the user agent sent with every request")
}
