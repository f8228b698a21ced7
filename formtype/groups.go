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
package formtype

import (
	"sort"
	"strings"
)

// Groups maps a group alias to the literal form types it stands for.
// Lookups ignore case but are otherwise exact.
type Groups map[string][]string

// DefaultGroups returns the built-in alias table. Deployments can replace
// it through configuration since the registry's groupings change over time.
func DefaultGroups() Groups {
	return Groups{
		"Annual Reports":           {"10-K", "10-KSB", "20-F", "40-F"},
		"Quarterly Reports":        {"10-Q", "10-QSB"},
		"Current Reports":          {"8-K", "6-K"},
		"Proxy Statements":         {"DEF 14A", "DEFA14A", "DEFM14A", "PRE 14A"},
		"Registration Statements":  {"S-1", "S-3", "S-4", "S-8", "F-1", "F-3", "F-4"},
		"Insider Transactions":     {"3", "4", "5"},
		"Non-Management Ownership": {"SC 13D", "SC 13G", "SCHEDULE 13D", "SCHEDULE 13G"},
		"Institutional Holdings":   {"13F-HR", "13F-NT"},
		"Tender Offers":            {"SC TO-C", "SC TO-I", "SC TO-T", "SC 14D9"},
	}
}

// Lookup returns the members of the group called name
func (groups Groups) Lookup(name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	for groupName, members := range groups {
		if strings.EqualFold(groupName, name) {
			return append([]string(nil), members...), true
		}
	}
	return nil, false
}

// Names returns the group aliases in sorted order
func (groups Groups) Names() []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupsFromConfig converts a configuration value (as returned by
// viper.Get) into a group table. Unusable values yield nil.
func GroupsFromConfig(raw any) Groups {
	table, ok := raw.(map[string]any)
	if !ok || len(table) == 0 {
		return nil
	}

	groups := make(Groups, len(table))
	for name, val := range table {
		switch members := val.(type) {
		case []any:
			for _, member := range members {
				if str, ok := member.(string); ok && strings.TrimSpace(str) != "" {
					groups[name] = append(groups[name], strings.TrimSpace(str))
				}
			}
		case []string:
			groups[name] = append(groups[name], members...)
		case string:
			groups[name] = SplitCustom(members)
		}
	}

	if len(groups) == 0 {
		return nil
	}

	return groups
}
