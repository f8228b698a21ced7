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
package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrMissingUserAgent = errors.New("a user agent identifying the requester is required")
	ErrUserAgentContact = errors.New("user agent must include a contact e-mail address")

	ErrTransient    = errors.New("registry unavailable after retries")
	ErrAccessDenied = errors.New("registry denied access")
	ErrStatus       = errors.New("registry returned an invalid status code")
	ErrNetwork      = errors.New("network error")
)

// FailureKind classifies why a fetch did not produce a body
type FailureKind string

const (
	FailureTransient    FailureKind = "transient"
	FailureAccessDenied FailureKind = "access-denied"
	FailureHTTPStatus   FailureKind = "http-status"
	FailureNetwork      FailureKind = "network"
)

// Failure is returned by Client.Fetch for every unsuccessful request. None
// of the kinds are fatal to a run; callers decide whether to skip and warn.
type Failure struct {
	Kind        FailureKind
	RequestKind Kind
	URL         string
	StatusCode  int
	Attempts    int
	Err         error
}

func (failure *Failure) Error() string {
	switch failure.Kind {
	case FailureNetwork:
		return fmt.Sprintf("%s %s: %v", failure.RequestKind, failure.URL, failure.Err)
	default:
		return fmt.Sprintf("%s %s: %s (%d)", failure.RequestKind, failure.URL, failure.sentinel(), failure.StatusCode)
	}
}

func (failure *Failure) Unwrap() error {
	return failure.Err
}

// Is matches the failure against the package sentinel for its kind
func (failure *Failure) Is(target error) bool {
	return target == failure.sentinel()
}

func (failure *Failure) sentinel() error {
	switch failure.Kind {
	case FailureTransient:
		return ErrTransient
	case FailureAccessDenied:
		return ErrAccessDenied
	case FailureNetwork:
		return ErrNetwork
	default:
		return ErrStatus
	}
}

// AsFailure extracts a *Failure from err
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
