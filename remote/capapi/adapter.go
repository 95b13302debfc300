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

package capapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/normalize"
	"github.com/poiesic/caselaw/payload"
	"github.com/poiesic/caselaw/quota"
	"github.com/poiesic/caselaw/remote"
)

const (
	// DefaultBaseURL is the public v1 API root.
	DefaultBaseURL = "https://api.case.law/v1/"
	// DefaultMaxPages bounds cursor pagination per search.
	DefaultMaxPages = 3
	// MaxPageSize is the largest page the service returns.
	MaxPageSize = 100
)

// ErrInvalidMaxPages is returned when the page budget is not positive.
var ErrInvalidMaxPages = errors.New("max pages must be greater than 0")

type config struct {
	baseURL    string
	apiKey     string
	tracker    *quota.Tracker
	maxPages   int
	fullCase   bool
	clientOpts []remote.Option
	logger     *slog.Logger
}

// Option configures an Adapter.
type Option func(*config) error

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *config) error {
		c.baseURL = u
		return nil
	}
}

// WithAPIKey sets the API key. An empty key stays anonymous.
func WithAPIKey(key string) Option {
	return func(c *config) error {
		c.apiKey = key
		return nil
	}
}

// WithQuota registers the adapter's window on a shared tracker. Without it
// the adapter owns a private tracker.
func WithQuota(t *quota.Tracker) Option {
	return func(c *config) error {
		c.tracker = t
		return nil
	}
}

// WithMaxPages sets the cursor page budget per search.
func WithMaxPages(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return ErrInvalidMaxPages
		}
		c.maxPages = n
		return nil
	}
}

// WithFullCase requests case bodies with search results. Lookups always
// request them.
func WithFullCase(enabled bool) Option {
	return func(c *config) error {
		c.fullCase = enabled
		return nil
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) error {
		c.clientOpts = append(c.clientOpts, remote.WithHTTPClient(hc))
		return nil
	}
}

// WithBreaker replaces the default breaker.
func WithBreaker(b *remote.Breaker) Option {
	return func(c *config) error {
		c.clientOpts = append(c.clientOpts, remote.WithBreaker(b))
		return nil
	}
}

// WithRateLimit paces requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *config) error {
		c.clientOpts = append(c.clientOpts, remote.WithRateLimit(rps, 1))
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// Adapter searches and fetches CAP cases.
type Adapter struct {
	client   *remote.Client
	maxPages int
	fullCase bool
	logger   *slog.Logger
}

// New creates an adapter.
func New(opts ...Option) (*Adapter, error) {
	cfg := &config{
		baseURL:  DefaultBaseURL,
		maxPages: DefaultMaxPages,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.tracker == nil {
		cfg.tracker = quota.NewTracker()
	}
	authenticated := cfg.apiKey != ""
	if err := cfg.tracker.Register(core.SourceRemoteB, quota.RemoteBTier.For(authenticated), authenticated); err != nil {
		return nil, err
	}

	clientOpts := append([]remote.Option{
		remote.WithQuota(cfg.tracker),
		remote.WithAuth("Token", cfg.apiKey),
		remote.WithLogger(cfg.logger),
	}, cfg.clientOpts...)
	client, err := remote.NewClient(core.SourceRemoteB, cfg.baseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client:   client,
		maxPages: cfg.maxPages,
		fullCase: cfg.fullCase,
		logger:   cfg.logger,
	}, nil
}

// ID returns core.SourceRemoteB.
func (a *Adapter) ID() core.SourceID { return core.SourceRemoteB }

// Available reports whether the breaker admits calls.
func (a *Adapter) Available() bool { return a.client.Breaker().Available() }

// Status reports breaker and quota state.
func (a *Adapter) Status() core.SourceStatus { return a.client.Status() }

// Search queries /cases/ and follows the cursor until limit cases are
// collected. Results keep the service's order.
func (a *Adapter) Search(ctx context.Context, q *core.SearchQuery, limit int) (core.ResultPage, error) {
	if limit <= 0 {
		limit = q.EffectiveLimit()
	}

	params := url.Values{}
	params.Set("search", q.Query)
	params.Set("page_size", strconv.Itoa(min(limit, MaxPageSize)))
	params.Set("full_case", strconv.FormatBool(a.fullCase))
	if q.Jurisdiction != "" {
		params.Set("jurisdiction", q.Jurisdiction)
	}
	if q.DateMin != "" {
		params.Set("decision_date_min", q.DateMin)
	}
	if q.DateMax != "" {
		params.Set("decision_date_max", q.DateMax)
	}

	var page core.ResultPage
	next := a.client.Endpoint("cases/", params)
	for n := 0; n < a.maxPages && next != "" && len(page.Results) < limit; n++ {
		var cp payload.CAPPage
		if err := a.client.GetJSON(ctx, next, &cp); err != nil {
			if n == 0 {
				return core.ResultPage{}, err
			}
			a.logger.Warn("stopping pagination", "source", core.SourceRemoteB, "page", n+1, "err", err)
			break
		}
		if n == 0 {
			page.Total = cp.Count
		}
		for _, c := range cp.Results {
			page.Results = append(page.Results, normalize.RemoteB(payload.RemoteB{Case: c}))
		}
		next = ""
		if cp.Next != nil {
			next = *cp.Next
		}
	}

	if len(page.Results) > limit {
		page.Results = page.Results[:limit]
	}
	return page, nil
}

// GetByID fetches a full case. A missing case is nil, nil.
func (a *Adapter) GetByID(ctx context.Context, id string) (*core.UnifiedResult, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, nil
	}
	params := url.Values{"full_case": {"true"}}

	var c payload.CAPCase
	if err := a.client.GetJSON(ctx, a.client.Endpoint("cases/"+id+"/", params), &c); err != nil {
		if remote.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	res := normalize.RemoteB(payload.RemoteB{Case: c})
	return &res, nil
}

// GetByCitation filters /cases/ by cite and returns the first case that
// carries it.
func (a *Adapter) GetByCitation(ctx context.Context, cite string) (*core.UnifiedResult, error) {
	cite = strings.TrimSpace(cite)
	if cite == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("cite", cite)
	params.Set("page_size", "5")
	params.Set("full_case", "true")

	var cp payload.CAPPage
	if err := a.client.GetJSON(ctx, a.client.Endpoint("cases/", params), &cp); err != nil {
		if remote.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, c := range cp.Results {
		res := normalize.RemoteB(payload.RemoteB{Case: c})
		if res.Record.HasCitation(cite) {
			return &res, nil
		}
	}
	return nil, nil
}
