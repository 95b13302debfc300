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

package courtlistener

import (
	"context"
	"errors"
	"fmt"
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
	// DefaultBaseURL is the public v4 API root.
	DefaultBaseURL = "https://www.courtlistener.com/api/rest/v4/"
	// DefaultMaxPages bounds cursor pagination per search.
	DefaultMaxPages = 3
)

// ErrInvalidMaxPages is returned when the page budget is not positive.
var ErrInvalidMaxPages = errors.New("max pages must be greater than 0")

type config struct {
	baseURL     string
	token       string
	tracker     *quota.Tracker
	maxPages    int
	withOpinion bool
	clientOpts  []remote.Option
	logger      *slog.Logger
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

// WithToken sets the API token. An empty token stays anonymous.
func WithToken(token string) Option {
	return func(c *config) error {
		c.token = token
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
// Default is DefaultMaxPages.
func WithMaxPages(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return ErrInvalidMaxPages
		}
		c.maxPages = n
		return nil
	}
}

// WithOpinionText controls whether GetByID also fetches the lead opinion.
// Default is true.
func WithOpinionText(enabled bool) Option {
	return func(c *config) error {
		c.withOpinion = enabled
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

// Adapter searches and fetches opinion clusters.
type Adapter struct {
	client      *remote.Client
	maxPages    int
	withOpinion bool
	logger      *slog.Logger
}

// New creates an adapter.
func New(opts ...Option) (*Adapter, error) {
	cfg := &config{
		baseURL:     DefaultBaseURL,
		maxPages:    DefaultMaxPages,
		withOpinion: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.tracker == nil {
		cfg.tracker = quota.NewTracker()
	}
	authenticated := cfg.token != ""
	if err := cfg.tracker.Register(core.SourceRemoteA, quota.RemoteATier.For(authenticated), authenticated); err != nil {
		return nil, err
	}

	clientOpts := append([]remote.Option{
		remote.WithQuota(cfg.tracker),
		remote.WithAuth("Token", cfg.token),
		remote.WithLogger(cfg.logger),
	}, cfg.clientOpts...)
	client, err := remote.NewClient(core.SourceRemoteA, cfg.baseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client:      client,
		maxPages:    cfg.maxPages,
		withOpinion: cfg.withOpinion,
		logger:      cfg.logger,
	}, nil
}

// ID returns core.SourceRemoteA.
func (a *Adapter) ID() core.SourceID { return core.SourceRemoteA }

// Available reports whether the breaker admits calls.
func (a *Adapter) Available() bool { return a.client.Breaker().Available() }

// Status reports breaker and quota state.
func (a *Adapter) Status() core.SourceStatus { return a.client.Status() }

// Search runs an opinion search, following the result cursor until limit
// hits are collected. A failure after the first page ends pagination and
// keeps what was already fetched.
func (a *Adapter) Search(ctx context.Context, q *core.SearchQuery, limit int) (core.ResultPage, error) {
	if limit <= 0 {
		limit = q.EffectiveLimit()
	}

	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("type", "o")
	params.Set("order_by", "score desc")
	if q.Jurisdiction != "" {
		params.Set("court", q.Jurisdiction)
	}
	if q.DateMin != "" {
		params.Set("filed_after", lowerDate(q.DateMin))
	}
	if q.DateMax != "" {
		params.Set("filed_before", upperDate(q.DateMax))
	}

	var page core.ResultPage
	next := a.client.Endpoint("search/", params)
	for n := 0; n < a.maxPages && next != "" && len(page.Results) < limit; n++ {
		var sp payload.CLSearchPage
		if err := a.client.GetJSON(ctx, next, &sp); err != nil {
			if n == 0 {
				return core.ResultPage{}, err
			}
			a.logger.Warn("stopping pagination", "source", core.SourceRemoteA, "page", n+1, "err", err)
			break
		}
		if n == 0 {
			page.Total = sp.Count
		}
		for i := range sp.Results {
			page.Results = append(page.Results, normalize.RemoteA(payload.RemoteA{Hit: &sp.Results[i]}))
		}
		next = ""
		if sp.Next != nil {
			next = *sp.Next
		}
	}

	if len(page.Results) > limit {
		page.Results = page.Results[:limit]
	}
	return page, nil
}

// GetByID fetches a cluster, or the cluster of an "opinion:<id>" reference.
// A missing record is nil, nil.
func (a *Adapter) GetByID(ctx context.Context, id string) (*core.UnifiedResult, error) {
	if ref, ok := strings.CutPrefix(id, normalize.OpinionRefPrefix); ok {
		return a.byOpinion(ctx, ref)
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, nil
	}

	var cl payload.CLCluster
	if err := a.client.GetJSON(ctx, a.client.Endpoint("clusters/"+id+"/", nil), &cl); err != nil {
		return notFound(err)
	}

	raw := payload.RemoteA{Cluster: &cl}
	if a.withOpinion && len(cl.SubOpinions) > 0 {
		op, err := a.opinion(ctx, cl.SubOpinions[0])
		if err != nil {
			a.logger.Warn("cluster opinion unavailable", "cluster", cl.ID, "err", err)
		} else {
			raw.Opinion = op
		}
	}
	res := normalize.RemoteA(raw)
	return &res, nil
}

func (a *Adapter) byOpinion(ctx context.Context, ref string) (*core.UnifiedResult, error) {
	if _, err := strconv.ParseInt(ref, 10, 64); err != nil {
		return nil, nil
	}
	op, err := a.opinion(ctx, a.client.Endpoint("opinions/"+ref+"/", nil))
	if err != nil {
		return notFound(err)
	}
	clusterID, ok := payload.IDFromResourceURL(op.Cluster)
	if !ok {
		return nil, &remote.Error{Source: core.SourceRemoteA, Kind: remote.KindMalformed,
			Err: fmt.Errorf("opinion %s has no cluster reference", ref)}
	}

	var cl payload.CLCluster
	if err := a.client.GetJSON(ctx, a.client.Endpoint("clusters/"+strconv.FormatInt(clusterID, 10)+"/", nil), &cl); err != nil {
		return notFound(err)
	}
	res := normalize.RemoteA(payload.RemoteA{Cluster: &cl, Opinion: op})
	return &res, nil
}

func (a *Adapter) opinion(ctx context.Context, resourceURL string) (*payload.CLOpinion, error) {
	var op payload.CLOpinion
	if err := a.client.GetJSON(ctx, resourceURL, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// GetByCitation searches for cite and returns the first hit carrying it.
func (a *Adapter) GetByCitation(ctx context.Context, cite string) (*core.UnifiedResult, error) {
	cite = strings.TrimSpace(cite)
	if cite == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("type", "o")
	params.Set("citation", cite)

	var sp payload.CLSearchPage
	if err := a.client.GetJSON(ctx, a.client.Endpoint("search/", params), &sp); err != nil {
		return notFound(err)
	}
	for i := range sp.Results {
		res := normalize.RemoteA(payload.RemoteA{Hit: &sp.Results[i]})
		if res.Record.HasCitation(cite) {
			return &res, nil
		}
	}
	return nil, nil
}

func notFound(err error) (*core.UnifiedResult, error) {
	if remote.IsNotFound(err) {
		return nil, nil
	}
	return nil, err
}

// lowerDate expands a bare year to its first day.
func lowerDate(d string) string {
	if len(d) == 4 {
		return d + "-01-01"
	}
	return d
}

// upperDate expands a bare year to its last day.
func upperDate(d string) string {
	if len(d) == 4 {
		return d + "-12-31"
	}
	return d
}
