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

package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/normalize"
	"github.com/poiesic/caselaw/payload"
	"github.com/poiesic/caselaw/quota"
	"github.com/poiesic/caselaw/storage"
)

// Adapter serves searches and lookups from the local archive.
type Adapter struct {
	repo      storage.CaseRepository
	quota     *quota.Tracker
	available atomic.Bool
	logger    *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithQuota meters searches through tracker, which must have the local
// source registered.
func WithQuota(tracker *quota.Tracker) Option {
	return func(a *Adapter) error {
		a.quota = tracker
		return nil
	}
}

// NewAdapter creates an adapter over repo. Call Refresh once the archive is
// loaded; until then the adapter reports itself unavailable.
func NewAdapter(repo storage.CaseRepository, opts ...Option) (*Adapter, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	a := &Adapter{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// ID returns core.SourceLocal.
func (a *Adapter) ID() core.SourceID { return core.SourceLocal }

// Refresh re-reads the reporters manifest and updates availability.
func (a *Adapter) Refresh(ctx context.Context) error {
	reporters, err := a.repo.Reporters(ctx)
	if err != nil {
		a.available.Store(false)
		return fmt.Errorf("reading reporters manifest: %w", err)
	}
	a.available.Store(len(reporters) > 0)
	if len(reporters) == 0 {
		a.logger.Warn("local archive has no reporters loaded")
	}
	return nil
}

// Available reports whether a loaded archive is present.
func (a *Adapter) Available() bool {
	return a.available.Load()
}

type scored struct {
	local payload.Local
	score core.RelevanceScore
}

// Search scores every case passing the query's filters against its terms
// and returns the best limit matches. An unloaded archive yields an empty
// page.
func (a *Adapter) Search(ctx context.Context, q *core.SearchQuery, limit int) (core.ResultPage, error) {
	if !a.Available() {
		return core.ResultPage{}, nil
	}
	if a.quota != nil && !a.quota.TryConsume(core.SourceLocal) {
		return core.ResultPage{}, core.ErrQuotaExceeded
	}
	if limit <= 0 {
		limit = q.EffectiveLimit()
	}

	terms := core.SplitTerms(q.Query)
	if len(terms) == 0 {
		return core.ResultPage{}, nil
	}

	var matches []scored
	err := a.repo.Scan(ctx, func(l *payload.Local) error {
		if !matchesJurisdiction(&l.Case, q.Jurisdiction) {
			return nil
		}
		if !core.InDateRange(l.Case.DecisionDate, q.DateMin, q.DateMax) {
			return nil
		}
		s := Score(&l.Case, terms)
		if len(s.MatchedTerms) == 0 {
			return nil
		}
		matches = append(matches, scored{local: *l, score: s})
		return nil
	})
	if err != nil {
		return core.ResultPage{}, fmt.Errorf("scanning archive: %w", err)
	}

	slices.SortStableFunc(matches, func(x, y scored) int {
		switch {
		case x.score.Score > y.score.Score:
			return -1
		case x.score.Score < y.score.Score:
			return 1
		}
		return 0
	})

	page := core.ResultPage{Total: len(matches)}
	for _, m := range matches[:min(limit, len(matches))] {
		score := m.score
		page.Results = append(page.Results, normalize.Local(m.local, &score))
	}
	a.logger.Debug("archive search", "query", q.Query, "matches", page.Total, "returned", len(page.Results))
	return page, nil
}

// GetByCitation returns the case stored under cite, or nil when none is.
func (a *Adapter) GetByCitation(ctx context.Context, cite string) (*core.UnifiedResult, error) {
	if !a.Available() {
		return nil, nil
	}
	l, err := a.repo.FindByCitation(ctx, cite)
	return a.found(l, err)
}

// GetByID returns the case with the given archive ID, or nil when absent.
func (a *Adapter) GetByID(ctx context.Context, id string) (*core.UnifiedResult, error) {
	if !a.Available() {
		return nil, nil
	}
	l, err := a.repo.GetCase(ctx, id)
	return a.found(l, err)
}

func (a *Adapter) found(l *payload.Local, err error) (*core.UnifiedResult, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res := normalize.Local(*l, nil)
	return &res, nil
}

// Status reports availability. The archive is unmetered unless a quota
// tracker says otherwise.
func (a *Adapter) Status() core.SourceStatus {
	st := core.SourceStatus{
		Source:         core.SourceLocal,
		Available:      a.Available(),
		State:          "unavailable",
		QuotaRemaining: -1,
	}
	if st.Available {
		st.State = "available"
	}
	if a.quota != nil {
		if n, err := a.quota.Remaining(core.SourceLocal); err == nil {
			st.QuotaRemaining = n
		}
	}
	return st
}

func matchesJurisdiction(c *payload.CAPCase, want string) bool {
	if want == "" {
		return true
	}
	j := c.Jurisdiction
	if j == nil {
		return false
	}
	return strings.EqualFold(j.Slug, want) ||
		strings.EqualFold(j.Name, want) ||
		strings.EqualFold(j.NameLong, want)
}
