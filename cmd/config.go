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
	"strings"
	"time"

	"github.com/penny-vault/pvfilings/fetch"
	"github.com/penny-vault/pvfilings/formtype"
	"github.com/penny-vault/pvfilings/pkginfo"
	"github.com/spf13/viper"
)

// newFetchClient builds the registry client from configuration
func newFetchClient() (*fetch.Client, error) {
	userAgent := strings.TrimSpace(viper.GetString("user_agent"))
	if userAgent != "" {
		userAgent = pkginfo.UserAgent(userAgent)
	}

	config := fetch.DefaultConfig(userAgent)
	config.MinDelay = viper.GetDuration("fetch.min_delay")
	config.MaxRetries = viper.GetInt("fetch.max_retries")
	config.Timeout = viper.GetDuration("fetch.timeout")

	return fetch.New(config)
}

// formGroups returns the configured group alias table or the built-in one
func formGroups() formtype.Groups {
	if groups := formtype.GroupsFromConfig(viper.Get("formtypes.groups")); groups != nil {
		return groups
	}
	return formtype.DefaultGroups()
}

func parseDate(val string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(val))
}
