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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvfilings/backblaze"
	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/export"
	"github.com/penny-vault/pvfilings/formtype"
	"github.com/penny-vault/pvfilings/healthcheck"
	"github.com/penny-vault/pvfilings/library"
	"github.com/penny-vault/pvfilings/pipeline"
	"github.com/penny-vault/pvfilings/query"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type searchFlags struct {
	start       string
	end         string
	forms       []string
	custom      string
	phrase      string
	entity      string
	columns     []string
	output      string
	details     bool
	documents   bool
	tickers     bool
	weekends    bool
	parquet     bool
	upload      bool
	save        bool
	view        bool
	interactive bool
}

var search searchFlags

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find filings of the selected form types in a date range",
	Long: `The search sub-command walks the EDGAR daily index for every weekday in
the date range, keeps filings whose form type starts with one of the selected
form types, and merges every report of the same accession number into one row.

Form types may be literal (10-K, 8-K, SC 13D) or group names such as
"Insider Transactions"; run 'pvfilings formtypes' for the full list.

When --query or --entity is given the EDGAR full-text search API is used
instead of the daily index.

Examples:

	pvfilings search --start 2024-01-02 --end 2024-01-31 --forms 10-K,10-Q --details
	pvfilings search --forms "Insider Transactions" --entity Apple --view
	pvfilings search --interactive`,
	Run: func(cmd *cobra.Command, args []string) {
		if search.interactive {
			if err := searchWizard(&search); err != nil {
				log.Fatal().Err(err).Msg("failed to run search wizard")
			}
		}

		start, end, err := searchDates(search.start, search.end)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date")
		}

		selection, err := formtype.NewSelection(search.forms, search.custom, formGroups())
		if err != nil {
			log.Fatal().Err(err).Msg("select form types with --forms or --custom")
		}

		cols, err := export.ParseColumns(search.columns)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid column list")
		}

		client, err := newFetchClient()
		if err != nil {
			log.Fatal().Err(err).Msg("set user_agent to your name and e-mail address")
		}

		opts := pipeline.Options{
			Start:          start,
			End:            end,
			Selection:      selection,
			ShowDetails:    search.details,
			Documents:      search.documents,
			Tickers:        search.tickers,
			Weekends:       search.weekends,
			ArchivesRoot:   viper.GetString("registry.archives_url"),
			SubmissionsURL: viper.GetString("registry.submissions_url"),
			TickersURL:     viper.GetString("registry.tickers_url"),
			SearchURL:      viper.GetString("registry.search_url"),
		}

		if search.phrase != "" || search.entity != "" {
			opts.Search = &query.Params{
				Phrase:     search.phrase,
				EntityName: search.entity,
			}
		}

		events := make(chan data.Event, 256)
		opts.Events = events

		pipe, err := pipeline.New(client, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid search")
		}

		serveMetrics(viper.GetString("metrics.addr"))

		monitor := healthcheck.NewMonitor()
		if err := monitor.Ping(healthcheck.SignalStart, ""); err != nil {
			log.Warn().Err(err).Msg("healthcheck start ping failed")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			reportProgress(events)
		}()

		log.Info().Str("Start", start.Format("2006-01-02")).Str("End", end.Format("2006-01-02")).
			Str("FormTypes", selection.String()).Msg("searching filings")

		records, summary := pipe.Run(ctx)
		close(events)
		wg.Wait()

		log.Info().Str("RunTime", durafmt.Parse(summary.Duration()).LimitFirstN(2).String()).
			Int("NumFilings", summary.NumFilings).Int("NumWarnings", summary.NumWarnings).
			Int("NumResolved", summary.NumResolved).Msg("search finished")

		if search.view {
			fmt.Println(export.Render(records, cols))
		}

		outputs := writeOutputs(records, cols, selection, start, end)

		if search.upload {
			uploadOutputs(outputs)
		}

		if search.save {
			saveRun(context.WithoutCancel(ctx), summary, selection, start, end, records)
		}

		if err := monitor.Finish(summary); err != nil {
			log.Warn().Err(err).Msg("healthcheck finish ping failed")
		}
	},
}

func searchDates(startVal, endVal string) (time.Time, time.Time, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	start := today.AddDate(0, 0, -7)
	end := today

	var err error
	if startVal != "" {
		if start, err = parseDate(startVal); err != nil {
			return start, end, err
		}
	}

	if endVal != "" {
		if end, err = parseDate(endVal); err != nil {
			return start, end, err
		}
	}

	return start, end, nil
}

func reportProgress(events <-chan data.Event) {
	for event := range events {
		if event.Kind != data.EventProgress {
			continue
		}

		logger := log.Debug()
		if event.Stage != pipeline.StageDocuments || event.Completed == event.Total {
			logger = log.Info()
		}

		logger.Str("Stage", event.Stage).Str("Batch", event.Message).
			Int("Completed", event.Completed).Int("Total", event.Total).Msg("progress")
	}
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info().Str("Addr", addr).Msg("serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("Addr", addr).Msg("metrics server stopped")
		}
	}()
}

func writeOutputs(records []*data.FilingRecord, cols []export.Column, selection formtype.Selection, start, end time.Time) []string {
	csvName := search.output
	if csvName == "" {
		csvName = export.FileName(selection.Entries(), start, end, "csv")
	}

	outputs := make([]string, 0, 2)
	if err := export.WriteCSVFile(csvName, records, cols); err != nil {
		log.Error().Err(err).Msg("could not write csv export")
	} else {
		outputs = append(outputs, csvName)
	}

	if search.parquet {
		parquetName := strings.TrimSuffix(csvName, filepath.Ext(csvName)) + ".parquet"
		if err := export.WriteParquet(parquetName, records); err != nil {
			log.Error().Err(err).Msg("could not write parquet export")
		} else {
			outputs = append(outputs, parquetName)
		}
	}

	return outputs
}

func uploadOutputs(outputs []string) {
	bucket, dir, err := backblaze.Destination()
	if err != nil {
		log.Error().Err(err).Msg("skipping upload")
		return
	}

	for _, fn := range outputs {
		if err := backblaze.Upload(fn, bucket, dir); err != nil {
			log.Error().Err(err).Str("FileName", fn).Msg("upload failed")
		}
	}
}

func saveRun(ctx context.Context, summary *data.RunSummary, selection formtype.Selection, start, end time.Time, records []*data.FilingRecord) {
	myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
	if err != nil {
		log.Error().Err(err).Msg("could not connect to library; run 'pvfilings init' first")
		return
	}
	defer myLibrary.Close()

	run := library.NewRun(summary, start, end, selection.Entries())
	if err := myLibrary.SaveRun(ctx, run, records); err != nil {
		log.Error().Err(err).Msg("could not save run to library")
	}
}

// searchWizard collects search parameters interactively
func searchWizard(flags *searchFlags) error {
	groups := formGroups()

	options := make([]huh.Option[string], 0, len(groups)+len(formtype.Common))
	for _, name := range groups.Names() {
		options = append(options, huh.NewOption[string](name, name))
	}
	for _, form := range formtype.Common {
		options = append(options, huh.NewOption[string](form, form))
	}

	if flags.start == "" {
		flags.start = time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	}
	if flags.end == "" {
		flags.end = time.Now().Format("2006-01-02")
	}

	validDate := func(val string) error {
		_, err := parseDate(val)
		return err
	}

	form := huh.NewForm(
		// date range and form types
		huh.NewGroup(
			huh.NewInput().
				Title("Start date (YYYY-MM-DD)").
				Value(&flags.start).
				Validate(validDate),
			huh.NewInput().
				Title("End date (YYYY-MM-DD)").
				Value(&flags.end).
				Validate(validDate),
			huh.NewMultiSelect[string]().
				Title("Which form types are you interested in?").
				Options(options...).
				Value(&flags.forms),
			huh.NewInput().
				Title("Additional form types (comma separated)").
				Value(&flags.custom),
		),

		// optional filters and enrichment
		huh.NewGroup(
			huh.NewInput().
				Title("Only filings mentioning this phrase (optional)").
				Value(&flags.phrase),
			huh.NewInput().
				Title("Only filings by this company or person (optional)").
				Value(&flags.entity),
			huh.NewConfirm().
				Title("Look up location and state of incorporation?").
				Value(&flags.details),
			huh.NewConfirm().
				Title("Find the primary document of each filing?").
				Value(&flags.documents),
			huh.NewConfirm().
				Title("Show results in the terminal?").
				Value(&flags.view),
		),
	)

	return form.Run()
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&search.start, "start", "", "first filed date to search (YYYY-MM-DD, default 7 days ago)")
	searchCmd.Flags().StringVar(&search.end, "end", "", "last filed date to search (YYYY-MM-DD, default today)")
	searchCmd.Flags().StringSliceVarP(&search.forms, "forms", "f", nil, "form types or form type groups to include")
	searchCmd.Flags().StringVar(&search.custom, "custom", "", "additional comma separated form types")
	searchCmd.Flags().StringVarP(&search.phrase, "query", "q", "", "only filings containing this phrase (uses full-text search)")
	searchCmd.Flags().StringVar(&search.entity, "entity", "", "only filings by this entity (uses full-text search)")
	searchCmd.Flags().StringSliceVar(&search.columns, "columns", nil, "columns to export (default all)")
	searchCmd.Flags().StringVarP(&search.output, "output", "o", "", "csv file to write (default is named after the search)")
	searchCmd.Flags().BoolVar(&search.details, "details", false, "look up filer location and incorporation")
	searchCmd.Flags().BoolVar(&search.documents, "documents", false, "resolve the primary document of every filing")
	searchCmd.Flags().BoolVar(&search.tickers, "tickers", false, "add exchange tickers")
	searchCmd.Flags().BoolVar(&search.weekends, "weekends", false, "also request indexes for Saturdays and Sundays")
	searchCmd.Flags().BoolVar(&search.parquet, "parquet", false, "also write a parquet file")
	searchCmd.Flags().BoolVar(&search.upload, "upload", false, "upload exports to backblaze")
	searchCmd.Flags().BoolVar(&search.save, "save", false, "save results to the filing library")
	searchCmd.Flags().BoolVar(&search.view, "view", false, "print results as a table")
	searchCmd.Flags().BoolVarP(&search.interactive, "interactive", "i", false, "collect search parameters with a wizard")

	searchCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")
	if err := viper.BindPFlag("metrics.addr", searchCmd.Flags().Lookup("metrics-addr")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for metrics.addr failed")
	}
}
