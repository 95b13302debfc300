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
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Rate-limit response headers.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// epochCutoff separates Unix-timestamp reset values from delta seconds.
const epochCutoff = 1_000_000_000

// RateLimit is the service-reported state of the caller's quota.
type RateLimit struct {
	// Remaining is -1 when the header was absent or unparsable.
	Remaining int
	// ResetAt is zero when unknown.
	ResetAt time.Time
}

// Known reports whether any rate-limit header was present.
func (r RateLimit) Known() bool {
	return r.Remaining >= 0 || !r.ResetAt.IsZero()
}

// ParseRateLimit reads X-RateLimit-Remaining and X-RateLimit-Reset.
// The reset value is accepted either as a Unix timestamp or as seconds
// from now.
func ParseRateLimit(h http.Header, now time.Time) RateLimit {
	rl := RateLimit{Remaining: -1}
	if v := strings.TrimSpace(h.Get(HeaderRemaining)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			rl.Remaining = n
		}
	}
	if v := strings.TrimSpace(h.Get(HeaderReset)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			if n >= epochCutoff {
				rl.ResetAt = time.Unix(n, 0)
			} else {
				rl.ResetAt = now.Add(time.Duration(n) * time.Second)
			}
		}
	}
	return rl
}

// RetryAfter reads Retry-After as delta seconds or an HTTP date. It returns
// the zero time when the header is absent.
func RetryAfter(h http.Header, now time.Time) time.Time {
	v := strings.TrimSpace(h.Get(HeaderRetryAfter))
	if v == "" {
		return time.Time{}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return now.Add(time.Duration(n) * time.Second)
	}
	if t, err := http.ParseTime(v); err == nil {
		return t
	}
	return time.Time{}
}
