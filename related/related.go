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

// Package related finds cases connected to a given case.
//
// A case that lists outbound citations is expanded one hop: each reference
// is resolved by source ID when it carries one, otherwise by citation.
// A case without references falls back to a search for its first party
// name within the same jurisdiction. The walk never goes past one hop.
package related

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/caselaw/core"
)

// ErrResolverRequired is returned when a nil resolver is provided.
var ErrResolverRequired = errors.New("resolver is required")

// caseSeparator splits a case name into parties: " v. ", " vs. " or " v ",
// in any case. The earliest match wins.
var caseSeparator = regexp.MustCompile(`(?i) (?:v\.|vs\.|v) `)

// Resolver looks cases up across sources. *orchestrator.Orchestrator
// satisfies it.
type Resolver interface {
	GetByID(ctx context.Context, source core.SourceID, id string) (*core.UnifiedResult, error)
	GetCaseByCitation(ctx context.Context, cite string) *core.UnifiedResult
	Search(ctx context.Context, q *core.SearchQuery) *core.SearchResponse
}

// Walker expands a case into related cases.
type Walker struct {
	resolver Resolver
	logger   *slog.Logger
}

// Option configures a Walker.
type Option func(*Walker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWalker creates a walker over resolver.
func NewWalker(resolver Resolver, opts ...Option) (*Walker, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	w := &Walker{resolver: resolver, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// FindRelated returns up to limit cases related to rec, never including rec
// itself or the same case twice.
func (w *Walker) FindRelated(ctx context.Context, rec *core.CaseRecord, limit int) []core.UnifiedResult {
	if rec == nil {
		return []core.UnifiedResult{}
	}
	if limit <= 0 {
		limit = core.DefaultLimit
	}
	if len(rec.CitesTo) > 0 {
		return w.cited(ctx, rec, limit)
	}
	return w.similar(ctx, rec, limit)
}

// collector accumulates distinct results that are not the origin case.
type collector struct {
	origin *core.CaseRecord
	seen   map[string]struct{}
	out    []core.UnifiedResult
}

func newCollector(origin *core.CaseRecord) *collector {
	c := &collector{origin: origin, seen: make(map[string]struct{})}
	c.seen[origin.DedupKey()] = struct{}{}
	return c
}

func (c *collector) add(r core.UnifiedResult) bool {
	if r.Record.Source == c.origin.Source && r.Record.ID == c.origin.ID {
		return false
	}
	k := r.DedupKey()
	if _, dup := c.seen[k]; dup {
		return false
	}
	c.seen[k] = struct{}{}
	c.out = append(c.out, r)
	return true
}

func (c *collector) results() []core.UnifiedResult {
	if c.out == nil {
		return []core.UnifiedResult{}
	}
	return c.out
}

func (w *Walker) cited(ctx context.Context, rec *core.CaseRecord, limit int) []core.UnifiedResult {
	c := newCollector(rec)
	for _, ref := range rec.CitesTo {
		if len(c.out) >= limit || ctx.Err() != nil {
			break
		}
		res := w.resolve(ctx, rec, ref)
		if res == nil {
			w.logger.Debug("unresolved citation reference", "from", rec.ID, "cite", ref.Cite, "ids", ref.CaseIDs)
			continue
		}
		c.add(*res)
	}
	return c.results()
}

func (w *Walker) resolve(ctx context.Context, rec *core.CaseRecord, ref core.CaseReference) *core.UnifiedResult {
	source := ref.Source
	if source == "" {
		source = rec.Source
	}
	for _, id := range ref.CaseIDs {
		res, err := w.resolver.GetByID(ctx, source, id)
		if err != nil {
			w.logger.Warn("reference lookup failed", "source", source, "id", id, "err", err)
			continue
		}
		if res != nil {
			return res
		}
	}
	if ref.Cite != "" {
		return w.resolver.GetCaseByCitation(ctx, ref.Cite)
	}
	return nil
}

func (w *Walker) similar(ctx context.Context, rec *core.CaseRecord, limit int) []core.UnifiedResult {
	party := FirstParty(rec.Name)
	if party == "" {
		party = FirstParty(rec.NameAbbreviation)
	}
	if party == "" {
		return []core.UnifiedResult{}
	}

	jurisdiction := rec.JurisdictionSlug
	if jurisdiction == "" {
		jurisdiction = rec.Jurisdiction
	}
	// One extra so dropping the origin still fills the limit.
	resp := w.resolver.Search(ctx, &core.SearchQuery{
		Query:        party,
		Jurisdiction: jurisdiction,
		Limit:        limit + 1,
	})

	c := newCollector(rec)
	for _, r := range resp.Results {
		if len(c.out) >= limit {
			break
		}
		c.add(r)
	}
	return c.results()
}

// FirstParty returns the part of a case name before the first case
// separator, or the whole trimmed name when there is none.
func FirstParty(name string) string {
	if loc := caseSeparator.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), ","))
}
