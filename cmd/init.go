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
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvfilings/db"
	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/library"
	"github.com/penny-vault/pvfilings/pkginfo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type dbSettings struct {
	URL string `toml:"url"`
}

type fetchSettings struct {
	MinDelay   string `toml:"min_delay"`
	MaxRetries int    `toml:"max_retries"`
	Timeout    string `toml:"timeout"`
}

type configSettings struct {
	UserAgent string        `toml:"user_agent"`
	Fetch     fetchSettings `toml:"fetch"`
	DB        dbSettings    `toml:"db,omitempty"`
}

var skipLibrary bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the config file and optionally set up a filing library",
	Long: `init asks for the contact details EDGAR requires in every request and,
unless --no-library is given, the PostgreSQL database used to store search
results. The database schema is created and the settings are written to
$HOME/.pvfilings.toml.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := &library.Library{}
		contact := ""

		groups := []*huh.Group{
			// contact details sent with every request
			huh.NewGroup(
				huh.NewInput().
					Title("Your name and e-mail address (sent to EDGAR as the user agent):").
					Value(&contact).
					Validate(func(val string) error {
						_, err := fetch.New(fetch.DefaultConfig(pkginfo.UserAgent(val)))
						return err
					}),
			),
		}

		if !skipLibrary {
			groups = append(groups,
				// Gather details about the library and who owns it
				huh.NewGroup(
					huh.NewInput().
						Title("Give the library a name:").
						Value(&myLibrary.Name),

					huh.NewInput().
						Title("Who owns the library?").
						Value(&myLibrary.Owner),
				),

				// Get details about the database
				huh.NewGroup(
					huh.NewInput().
						Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
						Value(&myLibrary.DBUrl).
						Validate(func(dsn string) error {
							_, err := pgx.ParseConfig(dsn)
							return err
						}),
				),
			)
		}

		err := huh.NewForm(groups...).Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		if !skipLibrary {
			initLibrary(ctx, myLibrary)
		}

		settings := configSettings{
			UserAgent: strings.TrimSpace(contact),
			Fetch: fetchSettings{
				MinDelay:   fetch.DefaultMinDelay.String(),
				MaxRetries: fetch.DefaultMaxRetries,
				Timeout:    fetch.DefaultTimeout.String(),
			},
			DB: dbSettings{URL: myLibrary.DBUrl},
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvfilings.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		configData, err := toml.Marshal(settings)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvfilings has been initialized")
	},
}

func initLibrary(ctx context.Context, myLibrary *library.Library) {
	log.Info().Msg("creating database tables")

	err := db.Migrate(myLibrary.DBUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("error running database migration")
	}

	log.Info().Msg("database tables created")
	log.Info().Msg("Saving library name and owner to database")

	// save library name and owner to database
	if err := myLibrary.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer myLibrary.Close()

	err = myLibrary.SaveDB(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("error saving library settings to database")
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&skipLibrary, "no-library", false, "only write contact details, do not set up a database")
}
