// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"errors"
	"fmt"
)

// Source failure taxonomy
var (
	// ErrQuotaExceeded indicates the local quota pre-check denied a request.
	// No network call was made.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTransientNetwork indicates a connection, DNS or timeout failure.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrRemoteProtocol indicates a non-2xx response from a remote service.
	ErrRemoteProtocol = errors.New("remote protocol error")

	// ErrMalformedResponse indicates a payload that did not parse into the
	// expected native schema. It matches ErrRemoteProtocol under errors.Is.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrRemoteProtocol)

	// ErrSourceUnavailable indicates the source has been switched off.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotInitialized indicates the local archive has no reporters loaded.
	ErrNotInitialized = errors.New("archive not initialized")

	// ErrUnknownSource indicates a source ID outside local, remoteA, remoteB.
	ErrUnknownSource = errors.New("unknown source")

	// ErrCaseNotFound is returned by caller-facing lookups that need a case
	// to exist. Adapters report a missing case as nil, nil instead.
	ErrCaseNotFound = errors.New("case not found")
)

// Validation errors
var (
	ErrInvalidQuery     = errors.New("invalid search query")
	ErrEmptyQuery       = errors.New("query text cannot be empty")
	ErrInvalidLimit     = errors.New("limit cannot be negative")
	ErrInvalidDate      = errors.New("date must be YYYY or YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("date_min is after date_max")

	ErrInvalidRecord = errors.New("invalid case record")
	ErrEmptyID       = errors.New("record id cannot be empty")
	ErrEmptyName     = errors.New("record name cannot be empty")
)
