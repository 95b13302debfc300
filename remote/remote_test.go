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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/quota"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		is   []error
		not  []error
	}{
		{"network", &Error{Kind: KindNetwork}, []error{core.ErrTransientNetwork}, []error{core.ErrRemoteProtocol}},
		{"status", &Error{Kind: KindStatus, StatusCode: 500}, []error{core.ErrRemoteProtocol}, []error{core.ErrMalformedResponse}},
		{"malformed", &Error{Kind: KindMalformed}, []error{core.ErrMalformedResponse, core.ErrRemoteProtocol}, nil},
		{"quota", &Error{Kind: KindQuota}, []error{core.ErrQuotaExceeded}, []error{core.ErrTransientNetwork}},
		{"unavailable", &Error{Kind: KindUnavailable}, []error{core.ErrSourceUnavailable}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.err
			for _, target := range tt.is {
				assert.ErrorIs(t, err, target)
			}
			for _, target := range tt.not {
				assert.NotErrorIs(t, err, target)
			}
		})
	}

	wrapped := &Error{Kind: KindNetwork, Err: context.DeadlineExceeded}
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)

	assert.True(t, (&Error{Kind: KindStatus, StatusCode: 401}).IsAuth())
	assert.True(t, (&Error{Kind: KindStatus, StatusCode: 403}).IsAuth())
	assert.False(t, (&Error{Kind: KindStatus, StatusCode: 500}).IsAuth())
	assert.True(t, (&Error{Kind: KindStatus, StatusCode: 429}).IsRateLimited())
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Source: core.SourceRemoteA, Kind: KindStatus, StatusCode: 503, Err: errors.New("down")}
	assert.Equal(t, "remoteA: status 503 Service Unavailable: down", e.Error())
}

func TestBreakerTransitions(t *testing.T) {
	auth := &Error{Kind: KindStatus, StatusCode: http.StatusUnauthorized}
	transient := &Error{Kind: KindNetwork}

	b := NewBreaker()
	assert.Equal(t, StateAvailable, b.State())

	b.Record(transient)
	b.Record(&Error{Kind: KindStatus, StatusCode: 503})
	assert.Equal(t, StateAvailable, b.State())

	b.Record(auth)
	assert.Equal(t, StateDegraded, b.State())
	assert.True(t, b.Allow())

	b.Record(nil)
	assert.Equal(t, StateAvailable, b.State())

	b.Record(auth)
	b.Record(transient)
	b.Record(auth)
	assert.Equal(t, StateUnavailable, b.State())
	assert.False(t, b.Available())
	assert.False(t, b.Allow())
}

func TestBreakerReprobe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(WithReprobeAfter(time.Minute), WithBreakerClock(clock.now))
	auth := &Error{Kind: KindStatus, StatusCode: http.StatusForbidden}

	b.Record(auth)
	b.Record(auth)
	require.Equal(t, StateUnavailable, b.State())
	assert.False(t, b.Allow())

	clock.advance(time.Minute)
	assert.True(t, b.Available())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "only one trial call")

	b.Record(auth)
	assert.Equal(t, StateUnavailable, b.State())
	assert.False(t, b.Allow())

	clock.advance(time.Minute)
	require.True(t, b.Allow())
	b.Record(nil)
	assert.Equal(t, StateAvailable, b.State())
}

func TestBreakerRelease(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(WithReprobeAfter(time.Minute), WithBreakerClock(clock.now))
	auth := &Error{Kind: KindStatus, StatusCode: http.StatusUnauthorized}
	b.Record(auth)
	b.Record(auth)

	clock.advance(time.Minute)
	require.True(t, b.Allow())
	b.Release()
	assert.Equal(t, StateUnavailable, b.State())
	assert.True(t, b.Available())
	assert.True(t, b.Allow(), "released slot can be claimed again")
}

func TestParseRateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	h := http.Header{}
	assert.False(t, ParseRateLimit(h, now).Known())

	h.Set(HeaderRemaining, "42")
	h.Set(HeaderReset, "1700003600")
	rl := ParseRateLimit(h, now)
	assert.Equal(t, 42, rl.Remaining)
	assert.Equal(t, time.Unix(1_700_003_600, 0), rl.ResetAt)

	h.Set(HeaderReset, "60")
	assert.Equal(t, now.Add(time.Minute), ParseRateLimit(h, now).ResetAt)

	h.Set(HeaderRemaining, "junk")
	assert.Equal(t, -1, ParseRateLimit(h, now).Remaining)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h := http.Header{}
	assert.True(t, RetryAfter(h, now).IsZero())

	h.Set(HeaderRetryAfter, "120")
	assert.Equal(t, now.Add(2*time.Minute), RetryAfter(h, now))

	h.Set(HeaderRetryAfter, "Wed, 01 Jan 2025 01:00:00 GMT")
	assert.WithinDuration(t, now.Add(time.Hour), RetryAfter(h, now), 0)
}

func newTracker(t *testing.T, limit int) *quota.Tracker {
	t.Helper()
	tr := quota.NewTracker()
	require.NoError(t, tr.Register(core.SourceRemoteA, quota.Limits{Limit: limit, Window: time.Hour}, false))
	return tr
}

func TestClientGetJSON(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v4/search/", r.URL.Path)
		assert.Equal(t, "x", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 3}`))
	}))
	defer srv.Close()

	c, err := NewClient(core.SourceRemoteA, srv.URL+"/api/v4/", WithAuth("Token", "secret"))
	require.NoError(t, err)
	assert.True(t, c.Authenticated())

	var out struct{ Count int }
	require.NoError(t, c.GetJSON(context.Background(), c.Endpoint("search/", map[string][]string{"q": {"x"}}), &out))
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, "Token secret", gotAuth)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(core.SourceRemoteA, "/api")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
	_, err = NewClient(core.SourceRemoteA, "ftp://example.com")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestClientQuotaDenialSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(core.SourceRemoteA, srv.URL, WithQuota(newTracker(t, 1)))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, c.GetJSON(context.Background(), c.Endpoint("a", nil), &out))
	err = c.GetJSON(context.Background(), c.Endpoint("a", nil), &out)
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientQuotaDenialKeepsReprobe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tracker := quota.NewTracker(quota.WithClock(clock.now))
	require.NoError(t, tracker.Register(core.SourceRemoteA, quota.Limits{Limit: 2, Window: time.Hour}, false))
	breaker := NewBreaker(WithReprobeAfter(time.Minute), WithBreakerClock(clock.now))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(core.SourceRemoteA, srv.URL, WithQuota(tracker), WithBreaker(breaker), WithClock(clock.now))
	require.NoError(t, err)

	var out map[string]any
	for range 2 {
		err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
		require.True(t, IsAuthError(err))
	}
	require.Equal(t, StateUnavailable, breaker.State())

	clock.advance(2 * time.Minute)
	err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Equal(t, int32(2), hits.Load())
	assert.True(t, breaker.Available(), "quota denial must not consume the trial call")

	clock.advance(time.Hour)
	require.NoError(t, c.GetJSON(context.Background(), c.Endpoint("x", nil), &out))
	assert.Equal(t, StateAvailable, breaker.State())
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{"server error", http.StatusBadGateway, "bad gateway", core.ErrRemoteProtocol},
		{"malformed", http.StatusOK, "{not json", core.ErrMalformedResponse},
		{"not found", http.StatusNotFound, "", core.ErrRemoteProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(core.SourceRemoteA, srv.URL)
			require.NoError(t, err)
			var out map[string]any
			err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
			assert.ErrorIs(t, err, tt.is)
			assert.Equal(t, StateAvailable, c.Breaker().State())
		})
	}
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c, err := NewClient(core.SourceRemoteA, srv.URL)
	require.NoError(t, err)

	var out map[string]any
	err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.True(t, IsNotFound(err))
}

func TestClientAuthFailuresOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(core.SourceRemoteA, srv.URL)
	require.NoError(t, err)

	var out map[string]any
	for range 2 {
		err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
		assert.True(t, IsAuthError(err))
	}
	assert.Equal(t, StateUnavailable, c.Breaker().State())
	assert.False(t, c.Status().Available)

	err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientRateLimitFeedback(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tracker := quota.NewTracker(quota.WithClock(clock.now))
	require.NoError(t, tracker.Register(core.SourceRemoteB, quota.Limits{Limit: 500, Window: 24 * time.Hour}, false))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRemaining, "10")
		w.Header().Set(HeaderReset, "3600")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(core.SourceRemoteB, srv.URL, WithQuota(tracker), WithClock(clock.now))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, c.GetJSON(context.Background(), c.Endpoint("cases/", nil), &out))

	remaining, err := tracker.Remaining(core.SourceRemoteB)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
	assert.Equal(t, 10, c.Status().QuotaRemaining)
}

func TestClientTooManyRequestsExhaustsQuota(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tracker := quota.NewTracker(quota.WithClock(clock.now))
	require.NoError(t, tracker.Register(core.SourceRemoteA, quota.Limits{Limit: 100, Window: time.Hour}, false))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set(HeaderRetryAfter, "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(core.SourceRemoteA, srv.URL, WithQuota(tracker), WithClock(clock.now))
	require.NoError(t, err)

	var out map[string]any
	err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.ErrorIs(t, err, core.ErrRemoteProtocol)
	assert.Equal(t, StateAvailable, c.Breaker().State())

	err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)

	clock.advance(31 * time.Second)
	_ = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(core.SourceRemoteA, url)
	require.NoError(t, err)
	var out map[string]any
	err = c.GetJSON(context.Background(), c.Endpoint("x", nil), &out)
	assert.ErrorIs(t, err, core.ErrTransientNetwork)
}

func TestEndpoint(t *testing.T) {
	c, err := NewClient(core.SourceRemoteB, "https://api.case.law/v1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.case.law/v1/cases/", c.Endpoint("cases/", nil))
	assert.Equal(t, "https://api.case.law/v1/cases/5/?full_case=true",
		c.Endpoint("/cases/5/", map[string][]string{"full_case": {"true"}}))
}
