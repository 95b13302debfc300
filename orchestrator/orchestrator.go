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

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/poiesic/caselaw/cache"
	"github.com/poiesic/caselaw/core"
)

// Orchestrator walks the configured adapters for each search.
// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	adapters      map[core.SourceID]Adapter
	order         []core.SourceID
	cache         cache.Store
	monitor       Monitor
	timeout       time.Duration
	preferOffline bool
	flights       singleflight.Group
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithCache stores successful responses in store.
func WithCache(store cache.Store) Option {
	return func(o *Orchestrator) error {
		o.cache = store
		return nil
	}
}

// WithMonitor installs search hooks.
func WithMonitor(m Monitor) Option {
	return func(o *Orchestrator) error {
		if m != nil {
			o.monitor = m
		}
		return nil
	}
}

// WithTimeout bounds every search. Zero means only the caller's context
// applies.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative: %s", d)
		}
		o.timeout = d
		return nil
	}
}

// WithPreferOffline sets the early-exit default for queries that do not
// set it. Default is true.
func WithPreferOffline(enabled bool) Option {
	return func(o *Orchestrator) error {
		o.preferOffline = enabled
		return nil
	}
}

// WithOrder overrides the default priority order. Every ID must name a
// configured adapter.
func WithOrder(order ...core.SourceID) Option {
	return func(o *Orchestrator) error {
		for _, id := range order {
			if _, ok := o.adapters[id]; !ok {
				return fmt.Errorf("%w: %s", core.ErrUnknownSource, id)
			}
		}
		o.order = dedupe(order)
		return nil
	}
}

// New creates an orchestrator over adapters. The default order is local,
// remoteA, remoteB restricted to the adapters given, followed by any others
// in the order supplied.
func New(adapters []Adapter, opts ...Option) (*Orchestrator, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}

	o := &Orchestrator{
		adapters:      make(map[core.SourceID]Adapter, len(adapters)),
		monitor:       &noopMonitor{},
		preferOffline: true,
		logger:        slog.Default(),
	}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		if _, dup := o.adapters[a.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, a.ID())
		}
		o.adapters[a.ID()] = a
	}
	if len(o.adapters) == 0 {
		return nil, ErrNoAdapters
	}

	for _, id := range core.DefaultOrder() {
		if _, ok := o.adapters[id]; ok {
			o.order = append(o.order, id)
		}
	}
	for _, a := range adapters {
		if a != nil && !slices.Contains(o.order, a.ID()) {
			o.order = append(o.order, a.ID())
		}
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Order returns the default priority order.
func (o *Orchestrator) Order() []core.SourceID {
	return slices.Clone(o.order)
}

// step is one entry of a resolved walk. A non-nil err means the source is
// reported without being invoked.
type step struct {
	id  core.SourceID
	err error
}

func (o *Orchestrator) resolve(sources []core.SourceID) []step {
	if len(sources) == 0 {
		steps := make([]step, len(o.order))
		for i, id := range o.order {
			steps[i] = step{id: id}
		}
		return steps
	}

	var steps []step
	for _, id := range dedupe(sources) {
		switch {
		case !id.Valid():
			steps = append(steps, step{id: id, err: fmt.Errorf("%w: %q", core.ErrUnknownSource, id)})
		case o.adapters[id] == nil:
			steps = append(steps, step{id: id, err: fmt.Errorf("%w: not configured", core.ErrSourceUnavailable)})
		default:
			steps = append(steps, step{id: id})
		}
	}
	return steps
}

// canonical returns q with defaults applied, so equivalent queries share a
// cache key.
func (o *Orchestrator) canonical(q *core.SearchQuery) *core.SearchQuery {
	c := *q
	c.Limit = q.EffectiveLimit()
	prefer := o.preferOffline
	if q.PreferOffline != nil {
		prefer = *q.PreferOffline
	}
	c.PreferOffline = &prefer
	c.Sources = dedupe(q.Sources)
	return &c
}

// Search runs q across the adapters. It never fails: every adapter problem
// is reported in the response's diagnostics.
func (o *Orchestrator) Search(ctx context.Context, q *core.SearchQuery) *core.SearchResponse {
	if err := core.ValidateQuery(q); err != nil {
		var sources []core.SourceID
		if q != nil {
			sources = q.Sources
		}
		return o.rejected(sources, err)
	}

	canon := o.canonical(q)
	key := cache.Key(canon)

	if o.cache != nil {
		if resp, ok := o.cache.Get(key); ok {
			resp.RequestID = uuid.New()
			resp.Cached = true
			o.monitor.CacheHit(resp.RequestID)
			o.logger.Debug("search served from cache", "query", canon.Query, "requestID", resp.RequestID)
			return resp
		}
	}

	v, _, shared := o.flights.Do(key, func() (any, error) {
		return o.execute(ctx, canon, key), nil
	})
	resp := v.(*core.SearchResponse)
	if shared {
		cp := resp.Clone()
		cp.RequestID = uuid.New()
		return cp
	}
	return resp
}

func (o *Orchestrator) rejected(sources []core.SourceID, err error) *core.SearchResponse {
	resp := &core.SearchResponse{RequestID: uuid.New(), Results: []core.UnifiedResult{}}
	for _, s := range o.resolve(sources) {
		d := core.SourceDiagnostic{Source: s.id, Error: err.Error()}
		if s.err != nil {
			d.Error = s.err.Error()
		} else {
			d.Available = o.adapters[s.id].Available()
		}
		resp.Sources = append(resp.Sources, d)
	}
	o.logger.Warn("rejected search query", "err", err)
	return resp
}

func (o *Orchestrator) execute(ctx context.Context, q *core.SearchQuery, key string) *core.SearchResponse {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp := &core.SearchResponse{RequestID: uuid.New()}
	o.monitor.Start(resp.RequestID, q)

	limit := q.Limit
	earlyExit := *q.PreferOffline
	steps := o.resolve(q.Sources)

	var (
		collected []core.UnifiedResult
		succeeded bool
		timedOut  bool
	)
	for i, s := range steps {
		if s.err != nil {
			resp.Sources = append(resp.Sources, core.SourceDiagnostic{Source: s.id, Error: s.err.Error()})
			continue
		}
		a := o.adapters[s.id]

		if ctx.Err() != nil {
			timedOut = true
			resp.Sources = append(resp.Sources, o.skipped(steps[i:], core.DiagTimeout)...)
			break
		}
		if earlyExit && len(collected) >= limit {
			resp.Sources = append(resp.Sources, o.skipped(steps[i:], core.DiagLimitSatisfied)...)
			break
		}
		if !a.Available() {
			d := core.SourceDiagnostic{Source: s.id, Error: core.DiagSourceUnavailable}
			resp.Sources = append(resp.Sources, d)
			o.monitor.AdapterFinished(resp.RequestID, d)
			continue
		}

		start := time.Now()
		page, err := a.Search(ctx, q, limit)
		d := core.SourceDiagnostic{Source: s.id, Attempted: true, Duration: time.Since(start)}
		if err != nil {
			d.Error = err.Error()
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				timedOut = true
			}
			o.logger.Warn("source search failed", "source", s.id, "err", err)
		} else {
			d.Succeeded = true
			d.Available = true
			d.ResultCount = len(page.Results)
			d.TotalAvailable = page.Total
			collected = append(collected, page.Results...)
			succeeded = true
		}
		resp.Sources = append(resp.Sources, d)
		o.monitor.AdapterFinished(resp.RequestID, d)
	}

	resp.Results = o.dedup(resp.RequestID, collected)
	resp.TotalCount = len(resp.Results)
	if len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}

	if o.cache != nil && succeeded && !timedOut {
		o.cache.Set(key, resp)
	}
	o.monitor.Finish(resp)
	o.logger.Debug("search finished", "query", q.Query, "requestID", resp.RequestID,
		"results", len(resp.Results), "total", resp.TotalCount)
	return resp
}

// skipped reports every remaining configured step as not attempted.
func (o *Orchestrator) skipped(steps []step, reason string) []core.SourceDiagnostic {
	out := make([]core.SourceDiagnostic, 0, len(steps))
	for _, s := range steps {
		d := core.SourceDiagnostic{Source: s.id, Error: reason}
		if s.err != nil {
			d.Error = s.err.Error()
		} else {
			d.Available = o.adapters[s.id].Available()
		}
		out = append(out, d)
	}
	return out
}

func (o *Orchestrator) dedup(requestID uuid.UUID, results []core.UnifiedResult) []core.UnifiedResult {
	out := make([]core.UnifiedResult, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		k := r.DedupKey()
		if _, dup := seen[k]; dup {
			o.monitor.DuplicateDropped(requestID, r)
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dedupe(ids []core.SourceID) []core.SourceID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]core.SourceID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
