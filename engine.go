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

// Package caselaw searches court opinions across a local bulk archive and
// remote case law services through one query interface.
package caselaw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/caselaw/archive"
	"github.com/poiesic/caselaw/bulk"
	"github.com/poiesic/caselaw/cache"
	"github.com/poiesic/caselaw/config"
	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/metrics"
	"github.com/poiesic/caselaw/orchestrator"
	"github.com/poiesic/caselaw/quota"
	"github.com/poiesic/caselaw/related"
	"github.com/poiesic/caselaw/remote/capapi"
	"github.com/poiesic/caselaw/remote/courtlistener"
	"github.com/poiesic/caselaw/storage"
	"github.com/poiesic/caselaw/storage/badger"
)

// Engine owns the case index, the source adapters and the orchestrator
// that queries them one at a time in priority order.
type Engine struct {
	backend  *badger.Backend
	repo     storage.CaseRepository
	archive  *archive.Adapter
	quota    *quota.Tracker
	cache    cache.Store
	orch     *orchestrator.Orchestrator
	walker   *related.Walker
	registry *prometheus.Registry
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions) error

type engineOptions struct {
	dataRoot  string
	s3        bulk.S3Config
	indexPath string
	poolSize  int
	reload    bool
	progress  io.Writer

	courtListener    bool
	courtListenerOpt []courtlistener.Option
	cap              bool
	capOpt           []capapi.Option

	cacheBackend  string
	cacheTTL      time.Duration
	cacheCapacity int

	timeout       time.Duration
	preferOffline bool

	registry *prometheus.Registry
	logger   *slog.Logger
}

// WithDataRoot loads the bulk export at root (a directory or s3:// URL) into
// the index at start-up.
func WithDataRoot(root string, s3 bulk.S3Config) Option {
	return func(o *engineOptions) error {
		o.dataRoot = root
		o.s3 = s3
		return nil
	}
}

// WithIndexPath keeps the case index and badger cache on disk at path.
// Default is an in-memory index.
func WithIndexPath(path string) Option {
	return func(o *engineOptions) error {
		o.indexPath = path
		return nil
	}
}

// WithPoolSize bounds concurrent volume reads during the archive load.
func WithPoolSize(n int) Option {
	return func(o *engineOptions) error {
		if n < 0 {
			return archive.ErrInvalidPoolSize
		}
		o.poolSize = n
		return nil
	}
}

// WithReload reloads the data root even when the on-disk index already
// holds an archive.
func WithReload(enabled bool) Option {
	return func(o *engineOptions) error {
		o.reload = enabled
		return nil
	}
}

// WithProgress writes archive load progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *engineOptions) error {
		o.progress = w
		return nil
	}
}

// WithCourtListener enables the CourtListener adapter with opts.
// Enabled by default.
func WithCourtListener(opts ...courtlistener.Option) Option {
	return func(o *engineOptions) error {
		o.courtListener = true
		o.courtListenerOpt = append(o.courtListenerOpt, opts...)
		return nil
	}
}

// WithoutCourtListener disables the CourtListener adapter.
func WithoutCourtListener() Option {
	return func(o *engineOptions) error {
		o.courtListener = false
		return nil
	}
}

// WithCAP enables the Caselaw Access Project adapter with opts.
// Enabled by default.
func WithCAP(opts ...capapi.Option) Option {
	return func(o *engineOptions) error {
		o.cap = true
		o.capOpt = append(o.capOpt, opts...)
		return nil
	}
}

// WithoutCAP disables the Caselaw Access Project adapter.
func WithoutCAP() Option {
	return func(o *engineOptions) error {
		o.cap = false
		return nil
	}
}

// WithCache selects the query cache: config.CacheMemory, config.CacheBadger
// or config.CacheNone. A capacity of 0 leaves the memory cache unbounded.
func WithCache(backend string, ttl time.Duration, capacity int) Option {
	return func(o *engineOptions) error {
		switch backend {
		case config.CacheMemory, config.CacheBadger, config.CacheNone:
		default:
			return fmt.Errorf("unknown cache backend %q", backend)
		}
		o.cacheBackend = backend
		o.cacheTTL = ttl
		o.cacheCapacity = capacity
		return nil
	}
}

// WithSearchTimeout bounds each search.
func WithSearchTimeout(d time.Duration) Option {
	return func(o *engineOptions) error {
		o.timeout = d
		return nil
	}
}

// WithPreferOffline sets whether searches stop once the limit is met.
// Default is true.
func WithPreferOffline(enabled bool) Option {
	return func(o *engineOptions) error {
		o.preferOffline = enabled
		return nil
	}
}

// WithRegistry registers engine metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *engineOptions) error {
		o.registry = reg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// OptionsFromConfig translates cfg into engine options.
func OptionsFromConfig(cfg *config.Config) []Option {
	opts := []Option{
		WithIndexPath(cfg.Archive.IndexPath),
		WithPoolSize(cfg.Archive.PoolSize),
		WithCache(cfg.Cache.Backend, cfg.Cache.TTL, cfg.Cache.Capacity),
		WithSearchTimeout(cfg.Search.Timeout),
		WithPreferOffline(cfg.Search.PreferOffline),
	}
	if cfg.Archive.DataRoot != "" {
		opts = append(opts, WithDataRoot(cfg.Archive.DataRoot, cfg.Archive.S3()))
	}

	if cl := cfg.CourtListener; cl.Enabled {
		clOpts := []courtlistener.Option{
			courtlistener.WithBaseURL(cl.BaseURL),
			courtlistener.WithToken(cl.Token),
			courtlistener.WithMaxPages(cl.MaxPages),
		}
		if cl.RequestsPerSecond > 0 {
			clOpts = append(clOpts, courtlistener.WithRateLimit(cl.RequestsPerSecond))
		}
		opts = append(opts, WithCourtListener(clOpts...))
	} else {
		opts = append(opts, WithoutCourtListener())
	}

	if c := cfg.CAP; c.Enabled {
		capOpts := []capapi.Option{
			capapi.WithBaseURL(c.BaseURL),
			capapi.WithAPIKey(c.APIKey),
			capapi.WithMaxPages(c.MaxPages),
			capapi.WithFullCase(c.FullCase),
		}
		if c.RequestsPerSecond > 0 {
			capOpts = append(capOpts, capapi.WithRateLimit(c.RequestsPerSecond))
		}
		opts = append(opts, WithCAP(capOpts...))
	} else {
		opts = append(opts, WithoutCAP())
	}
	return opts
}

// New opens the index, loads the archive and opens the cache concurrently,
// then wires the adapters into an orchestrator. A missing or unreadable
// archive leaves the local source unavailable rather than failing start-up.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	o := &engineOptions{
		courtListener: true,
		cap:           true,
		cacheBackend:  config.CacheMemory,
		cacheTTL:      cache.DefaultTTL,
		preferOffline: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(collectors.NewGoCollector())
	}

	backend, err := badger.OpenBackend(o.indexPath, o.indexPath == "", badger.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	repo, err := badger.NewCaseRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	e := &Engine{
		backend:  backend,
		repo:     repo,
		quota:    quota.NewTracker(),
		registry: o.registry,
		logger:   o.logger,
	}
	if err := e.init(ctx, o); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(ctx context.Context, o *engineOptions) error {
	if err := e.quota.Register(core.SourceLocal, quota.LocalTier.For(false), false); err != nil {
		return err
	}
	local, err := archive.NewAdapter(e.repo, archive.WithLogger(e.logger), archive.WithQuota(e.quota))
	if err != nil {
		return err
	}
	e.archive = local

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.loadArchive(gctx, o)
	})
	g.Go(func() error {
		store, err := e.openCache(o)
		e.cache = store
		return err
	})

	adapters := []orchestrator.Adapter{local}
	if o.courtListener {
		a, err := courtlistener.New(append([]courtlistener.Option{
			courtlistener.WithQuota(e.quota),
			courtlistener.WithLogger(e.logger),
		}, o.courtListenerOpt...)...)
		if err != nil {
			g.Wait()
			return fmt.Errorf("courtlistener adapter: %w", err)
		}
		adapters = append(adapters, a)
	}
	if o.cap {
		a, err := capapi.New(append([]capapi.Option{
			capapi.WithQuota(e.quota),
			capapi.WithLogger(e.logger),
		}, o.capOpt...)...)
		if err != nil {
			g.Wait()
			return fmt.Errorf("cap adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if err := g.Wait(); err != nil {
		return err
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(e.logger),
		orchestrator.WithMonitor(metrics.New(e.registry)),
		orchestrator.WithTimeout(o.timeout),
		orchestrator.WithPreferOffline(o.preferOffline),
	}
	if e.cache != nil {
		orchOpts = append(orchOpts, orchestrator.WithCache(e.cache))
	}
	e.orch, err = orchestrator.New(adapters, orchOpts...)
	if err != nil {
		return err
	}

	e.walker, err = related.NewWalker(e.orch, related.WithLogger(e.logger))
	return err
}

// loadArchive fills the index from the data root when one is configured and
// the index is empty (or a reload was requested), then refreshes the local
// adapter. Only context errors are fatal.
func (e *Engine) loadArchive(ctx context.Context, o *engineOptions) error {
	if o.dataRoot != "" && (o.reload || !e.hasArchive(ctx)) {
		if err := e.importFrom(ctx, o); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("local archive unavailable", "root", o.dataRoot, "err", err)
		}
	}
	if err := e.archive.Refresh(ctx); err != nil {
		e.logger.Warn("local archive unavailable", "err", err)
	}
	return ctx.Err()
}

func (e *Engine) hasArchive(ctx context.Context) bool {
	reporters, err := e.repo.Reporters(ctx)
	return err == nil && len(reporters) > 0
}

func (e *Engine) importFrom(ctx context.Context, o *engineOptions) error {
	reader, err := bulk.NewReader(ctx, o.dataRoot, o.s3)
	if err != nil {
		return err
	}
	loaderOpts := []archive.LoaderOption{
		archive.WithLoaderLogger(e.logger),
		archive.WithProgress(o.progress),
	}
	if o.poolSize > 0 {
		loaderOpts = append(loaderOpts, archive.WithPoolSize(o.poolSize))
	}
	loader, err := archive.NewLoader(reader, e.repo, loaderOpts...)
	if err != nil {
		return err
	}
	_, err = loader.Load(ctx)
	return err
}

func (e *Engine) openCache(o *engineOptions) (cache.Store, error) {
	switch o.cacheBackend {
	case config.CacheNone:
		return nil, nil
	case config.CacheBadger:
		return cache.NewBadgerStore(e.backend, o.cacheTTL, e.logger)
	default:
		return cache.NewMemoryStore(cache.WithTTL(o.cacheTTL), cache.WithCapacity(o.cacheCapacity)), nil
	}
}

// Close releases the index. It is safe to call on a partially built engine.
func (e *Engine) Close() error {
	var errs []error
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Error("error closing case repository", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil && !e.backend.IsClosed() {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Search runs q across the configured sources.
func (e *Engine) Search(ctx context.Context, q *core.SearchQuery) *core.SearchResponse {
	return e.orch.Search(ctx, q)
}

// GetCaseByCitation returns the first source's case for cite, or nil.
func (e *Engine) GetCaseByCitation(ctx context.Context, cite string) *core.UnifiedResult {
	return e.orch.GetCaseByCitation(ctx, cite)
}

// GetByID fetches one case from source. A missing case is nil, nil.
func (e *Engine) GetByID(ctx context.Context, source core.SourceID, id string) (*core.UnifiedResult, error) {
	return e.orch.GetByID(ctx, source, id)
}

// FindRelated loads the case source/id and returns up to limit related
// cases. core.ErrCaseNotFound is returned when the case does not exist.
func (e *Engine) FindRelated(ctx context.Context, source core.SourceID, id string, limit int) ([]core.UnifiedResult, error) {
	res, err := e.orch.GetByID(ctx, source, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s/%s", core.ErrCaseNotFound, source, id)
	}
	return e.walker.FindRelated(ctx, &res.Record, limit), nil
}

// SourceStatus reports every configured source in priority order.
func (e *Engine) SourceStatus() []core.SourceStatus {
	return e.orch.SourceStatus()
}

// Gatherer exposes the engine's metrics for a /metrics endpoint.
func (e *Engine) Gatherer() prometheus.Gatherer {
	return e.registry
}

// CacheLen returns the number of cached responses, or 0 without a cache.
func (e *Engine) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}
