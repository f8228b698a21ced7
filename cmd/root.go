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
	"os"
	"strings"

	"github.com/penny-vault/pvfilings/data"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/metadata"
	"github.com/penny-vault/pvfilings/pipeline"
	"github.com/penny-vault/pvfilings/query"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvfilings",
	Short: "pvfilings finds, merges and enriches SEC EDGAR filings",
	Long: `pvfilings is a command line utility for building tables of regulatory
filings published by SEC EDGAR. Give it a date range and the form types you
care about and it will:

	* walk the daily bulk index (or the full-text search API)
	* merge every report of the same filing into one row
	* look up each filer's legal name, location and state of incorporation
	* locate the primary document of every filing

Results can be viewed in the terminal, exported as CSV or Parquet, uploaded
to Backblaze B2, and saved to a PostgreSQL filing library.

EDGAR requires every request to identify its sender; set user_agent in the
config file (or PVFILINGS_USER_AGENT) to a name and e-mail address.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			log.Warn().Str("LogLevel", logLevel).Msg("unknown log level, using info")
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvfilings.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.PersistentFlags().String("user-agent", "", "identifying user agent with a contact e-mail address")
	if err := viper.BindPFlag("user_agent", rootCmd.PersistentFlags().Lookup("user-agent")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for user_agent failed")
	}

	rootCmd.PersistentFlags().String("db-url", "", "filing library database connection string")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db.url failed")
	}

	viper.SetDefault("fetch.min_delay", fetch.DefaultMinDelay)
	viper.SetDefault("fetch.max_retries", fetch.DefaultMaxRetries)
	viper.SetDefault("fetch.timeout", fetch.DefaultTimeout)
	viper.SetDefault("registry.archives_url", pipeline.DefaultArchivesRoot)
	viper.SetDefault("registry.submissions_url", metadata.DefaultSubmissionsURL)
	viper.SetDefault("registry.search_url", query.DefaultSearchURL)
	viper.SetDefault("registry.tickers_url", metadata.DefaultTickersURL)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvfilings" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvfilings")
	}

	viper.SetEnvPrefix("pvfilings")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}

	if codes := viper.GetStringMapString("jurisdictions"); len(codes) > 0 {
		data.RegisterJurisdictions(codes)
	}
}
