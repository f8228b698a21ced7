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
package data

import (
	"strings"
	"sync"
)

// jurisdictions maps the registry's state and country codes to full names
var jurisdictions = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "District of Columbia",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
	"PR": "Puerto Rico",
	"GU": "Guam",
	"VI": "U.S. Virgin Islands",

	// Canadian provinces
	"A0": "Alberta, Canada",
	"A1": "British Columbia, Canada",
	"A2": "Manitoba, Canada",
	"A3": "New Brunswick, Canada",
	"A4": "Newfoundland, Canada",
	"A5": "Nova Scotia, Canada",
	"A6": "Ontario, Canada",
	"A7": "Prince Edward Island, Canada",
	"A8": "Quebec, Canada",
	"A9": "Saskatchewan, Canada",
	"B0": "Yukon, Canada",
	"Z4": "Canada (Federal Level)",

	// countries
	"D0": "Bermuda",
	"D8": "British Virgin Islands",
	"E9": "Cayman Islands",
	"F4": "China",
	"I0": "France",
	"2M": "Germany",
	"K3": "Hong Kong",
	"L2": "Ireland",
	"L3": "Israel",
	"M0": "Japan",
	"N4": "Netherlands",
	"U0": "Singapore",
	"V8": "Switzerland",
	"X0": "United Kingdom",
}

var jurisdictionsMu sync.RWMutex

// Jurisdiction maps a state or country code to its full name. Unknown codes
// are returned unchanged.
func Jurisdiction(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	jurisdictionsMu.RLock()
	defer jurisdictionsMu.RUnlock()

	if name, ok := jurisdictions[strings.ToUpper(code)]; ok {
		return name
	}

	return code
}

// RegisterJurisdictions adds or overrides entries in the code table
func RegisterJurisdictions(codes map[string]string) {
	jurisdictionsMu.Lock()
	defer jurisdictionsMu.Unlock()

	for code, name := range codes {
		jurisdictions[strings.ToUpper(strings.TrimSpace(code))] = name
	}
}

// Location joins a city with the full name of its jurisdiction code
func Location(city, code string) string {
	city = strings.TrimSpace(city)
	state := Jurisdiction(code)

	switch {
	case city == "":
		return state
	case state == "":
		return city
	default:
		return city + ", " + state
	}
}
