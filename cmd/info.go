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
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvfilings/db"
	"github.com/penny-vault/pvfilings/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	infoRuns     int
	infoMarkdown bool
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the filing library",
	Long: `Summarize the filing library configured with db.url: how many filings
it holds, the filed date range, counts per form type and the most recent
searches saved with 'pvfilings search --save'.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		dbURL := viper.GetString("db.url")

		version, dirty, err := db.Version(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read library schema version")
		}

		if dirty {
			log.Warn().Uint("SchemaVersion", version).Msg("library schema is dirty; re-run 'pvfilings init'")
		}

		myLibrary, err := library.NewFromDB(ctx, dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load library info")
		}
		defer myLibrary.Close()

		summary, err := myLibrary.Summary(ctx, infoRuns)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create library summary document")
		}

		if infoMarkdown {
			fmt.Print(summary)
			return
		}

		fmt.Print(renderMarkdown(summary))
	},
}

// renderMarkdown styles a markdown document for the terminal
func renderMarkdown(doc string) string {
	r, err := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return doc
	}

	out, err := r.Render(doc)
	if err != nil {
		log.Warn().Err(err).Msg("could not render markdown, printing it unstyled")
		return doc
	}

	return out
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntVarP(&infoRuns, "runs", "n", 10, "number of recent searches to list")
	infoCmd.Flags().BoolVar(&infoMarkdown, "markdown", false, "print the summary as plain markdown")
}
