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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/quota"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 30 * time.Second

// maxErrorBody is how much of a non-2xx body is kept in the error.
const maxErrorBody = 512

// Client issues metered GET requests to one remote JSON service.
// Client is safe for concurrent use.
type Client struct {
	source        core.SourceID
	base          *url.URL
	httpClient    *http.Client
	quota         *quota.Tracker
	breaker       *Breaker
	limiter       *rate.Limiter
	header        http.Header
	authenticated bool
	userAgent     string
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc != nil {
			c.httpClient = hc
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithQuota meters requests through tracker. The client's source must be
// registered on it.
func WithQuota(tracker *quota.Tracker) Option {
	return func(c *Client) error {
		c.quota = tracker
		return nil
	}
}

// WithBreaker replaces the default breaker, which never re-probes.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) error {
		if b != nil {
			c.breaker = b
		}
		return nil
	}
}

// WithRateLimit paces requests to rps per second with the given burst.
// This is independent of the quota window.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 {
			return nil
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		return nil
	}
}

// WithAuth sends "Authorization: <scheme> <token>" on every request. An
// empty token leaves the client anonymous.
func WithAuth(scheme, token string) Option {
	return func(c *Client) error {
		if token == "" {
			return nil
		}
		c.header.Set("Authorization", scheme+" "+token)
		c.authenticated = true
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithClock injects the time source used for rate-limit headers.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// NewClient creates a client for source rooted at baseURL.
func NewClient(source core.SourceID, baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		source:     source,
		base:       base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		breaker:    NewBreaker(),
		header:     make(http.Header),
		userAgent:  "caselaw/1.0",
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Source returns the source this client serves.
func (c *Client) Source() core.SourceID { return c.source }

// Authenticated reports whether a credential is sent.
func (c *Client) Authenticated() bool { return c.authenticated }

// Breaker returns the client's breaker.
func (c *Client) Breaker() *Breaker { return c.breaker }

// Quota returns the tracker metering this client, if any.
func (c *Client) Quota() *quota.Tracker { return c.quota }

// Endpoint resolves path against the base URL and attaches query.
func (c *Client) Endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// GetJSON fetches rawURL and decodes the body into into. Every failure is
// returned as *Error.
func (c *Client) GetJSON(ctx context.Context, rawURL string, into any) error {
	if !c.breaker.Allow() {
		return &Error{Source: c.source, Kind: KindUnavailable, Err: errors.New("circuit open")}
	}
	if c.quota != nil && !c.quota.TryConsume(c.source) {
		c.breaker.Release()
		return &Error{Source: c.source, Kind: KindQuota}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(&Error{Source: c.source, Kind: KindNetwork, Err: err})
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return c.fail(&Error{Source: c.source, Kind: KindNetwork, Err: err})
	}
	for k, vs := range c.header {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(&Error{Source: c.source, Kind: KindNetwork, Err: err})
	}
	defer resp.Body.Close()

	c.observe(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e := &Error{Source: c.source, Kind: KindStatus, StatusCode: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			e.Err = errors.New(msg)
		}
		if resp.StatusCode == http.StatusNotFound {
			// The service answered and accepted our credentials.
			c.breaker.Record(nil)
			return e
		}
		c.logger.Warn("remote request failed", "source", c.source, "status", resp.StatusCode)
		return c.fail(e)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(&Error{Source: c.source, Kind: KindNetwork, Err: err})
	}
	if err := json.Unmarshal(data, into); err != nil {
		return c.fail(&Error{Source: c.source, Kind: KindMalformed, Err: err})
	}
	c.breaker.Record(nil)
	return nil
}

func (c *Client) fail(e *Error) error {
	c.breaker.Record(e)
	c.logger.Debug("remote error", "source", c.source, "kind", e.Kind.String(), "err", e)
	return e
}

// observe feeds rate-limit headers back into the quota window.
func (c *Client) observe(resp *http.Response) {
	if c.quota == nil {
		return
	}
	now := c.now()
	rl := ParseRateLimit(resp.Header, now)
	if rl.Known() {
		c.quota.Observe(c.source, rl.Remaining, rl.ResetAt)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return
	}
	until := RetryAfter(resp.Header, now)
	if until.IsZero() {
		until = rl.ResetAt
	}
	if until.IsZero() {
		until = now.Add(time.Minute)
	}
	c.quota.Exhaust(c.source, until)
}

// Status reports the client's breaker and quota state.
func (c *Client) Status() core.SourceStatus {
	st := core.SourceStatus{
		Source:         c.source,
		Available:      c.breaker.Available(),
		State:          c.breaker.State().String(),
		QuotaRemaining: -1,
		Authenticated:  c.authenticated,
	}
	if c.quota != nil {
		if n, err := c.quota.Remaining(c.source); err == nil {
			st.QuotaRemaining = n
		}
	}
	return st
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == KindStatus && re.StatusCode == http.StatusNotFound
}
