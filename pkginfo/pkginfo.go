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
// Package pkginfo reports build information and the product token sent to
// the filings registry.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	BuildDate  string
	CommitHash string
	Version    string
)

// ResolvedVersion is Version when set by the linker, otherwise the module
// version recorded by the go tool, otherwise "dev"
func ResolvedVersion() string {
	if Version != "" {
		return Version
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if ver := buildInfo.Main.Version; ver != "" && ver != "(devel)" {
			return ver
		}
	}

	return "dev"
}

// UserAgent identifies this program to the filings registry. contact must
// name a person or mailbox the registry can reach.
func UserAgent(contact string) string {
	return strings.TrimSpace(fmt.Sprintf("pvfilings/%s %s", ResolvedVersion(), strings.TrimSpace(contact)))
}

// BuildVersionString returns a version info string suitable for printing on the command line
func BuildVersionString() string {
	return fmt.Sprintf(`pvfilings %s %s/%s

Build Date: %s
Commit: %s
Built with: %s`, ResolvedVersion(), runtime.GOOS, runtime.GOARCH, BuildDate, CommitHash, runtime.Version())
}

// GetDependencyList returns every module linked into this program as
// `path="version"`, noting replaced modules
func GetDependencyList() []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return nil
	}

	deps := make([]string, 0, len(buildInfo.Deps))
	for _, dep := range buildInfo.Deps {
		entry := fmt.Sprintf("%s=%q", dep.Path, dep.Version)
		if dep.Replace != nil {
			entry += fmt.Sprintf(" => %s=%q", dep.Replace.Path, dep.Replace.Version)
		}
		deps = append(deps, entry)
	}

	sort.Strings(deps)
	return deps
}
