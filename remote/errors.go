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

package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/caselaw/core"
)

// ErrInvalidBaseURL is returned when a client base URL is not absolute.
var ErrInvalidBaseURL = errors.New("base URL must be absolute http(s)")

// Kind classifies a remote failure.
type Kind int

const (
	// KindNetwork covers connection, DNS and timeout failures.
	KindNetwork Kind = iota
	// KindStatus is a non-2xx response.
	KindStatus
	// KindMalformed is a 2xx response that did not decode.
	KindMalformed
	// KindQuota is a local quota denial. No request was sent.
	KindQuota
	// KindUnavailable is a breaker refusal. No request was sent.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindQuota:
		return "quota"
	case KindUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// sentinel maps each kind onto the core taxonomy.
func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return core.ErrTransientNetwork
	case KindStatus:
		return core.ErrRemoteProtocol
	case KindMalformed:
		return core.ErrMalformedResponse
	case KindQuota:
		return core.ErrQuotaExceeded
	case KindUnavailable:
		return core.ErrSourceUnavailable
	}
	return nil
}

// Error is a classified failure from one remote source. errors.Is matches
// it against the core sentinel for its Kind; ErrMalformedResponse also
// matches core.ErrRemoteProtocol.
type Error struct {
	Source     core.SourceID
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s %d %s", msg, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the taxonomy sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && errors.Is(s, target)
}

// IsAuth reports whether the service rejected our credentials.
func (e *Error) IsAuth() bool {
	return e.Kind == KindStatus &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// IsRateLimited reports whether the service answered 429.
func (e *Error) IsRateLimited() bool {
	return e.Kind == KindStatus && e.StatusCode == http.StatusTooManyRequests
}

// IsAuthError reports whether err is an auth-class remote failure.
func IsAuthError(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.IsAuth()
}
