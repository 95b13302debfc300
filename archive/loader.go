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
	"io"
	"log/slog"
	"path"
	"runtime"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/caselaw/bulk"
	"github.com/poiesic/caselaw/payload"
	"github.com/poiesic/caselaw/storage"
)

const (
	// ManifestName is the reporters manifest at the data root.
	ManifestName = "ReportersMetadata.json"
	// VolumeFile is the per-volume case file.
	VolumeFile = "Cases.json"

	defaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
)

// LoadStats summarizes a load.
type LoadStats struct {
	Reporters     int
	Volumes       int
	FailedVolumes int
	Cases         int
	Duration      time.Duration
}

// Loader copies a bulk export into a case repository.
type Loader struct {
	reader      bulk.Reader
	repo        storage.CaseRepository
	poolSize    int
	maxAttempts int
	baseDelay   time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithPoolSize sets the number of volumes read concurrently.
// Default is runtime.NumCPU().
func WithPoolSize(size int) LoaderOption {
	return func(l *Loader) error {
		if size < 1 {
			return ErrInvalidPoolSize
		}
		l.poolSize = size
		return nil
	}
}

// WithRetry sets read retry attempts and the initial backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) LoaderOption {
	return func(l *Loader) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		l.maxAttempts = maxAttempts
		l.baseDelay = baseDelay
		return nil
	}
}

// WithProgress reports per-volume progress to w (typically os.Stderr).
func WithProgress(w io.Writer) LoaderOption {
	return func(l *Loader) error {
		l.progress = w
		return nil
	}
}

// WithLoaderLogger sets a custom logger.
// Default is slog.Default().
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a loader reading from reader into repo.
func NewLoader(reader bulk.Reader, repo storage.CaseRepository, opts ...LoaderOption) (*Loader, error) {
	if reader == nil {
		return nil, ErrReaderRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}

	l := &Loader{
		reader:      reader,
		repo:        repo,
		poolSize:    poolSize,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// VolumePath returns the data-root relative path of a volume's case file.
func VolumePath(r payload.ReporterManifest, volume string) string {
	return path.Join(r.Jurisdiction.Slug, r.Slug, volume, VolumeFile)
}

// Load reads the manifest and every listed volume. Per-volume failures are
// counted, not returned; Load fails only when the manifest is unusable, the
// context ends, or the manifest cannot be stored.
func (l *Loader) Load(ctx context.Context) (LoadStats, error) {
	start := time.Now()
	var stats LoadStats

	reporters, err := l.readManifest(ctx)
	if err != nil {
		return stats, err
	}
	stats.Reporters = len(reporters)
	for _, r := range reporters {
		stats.Volumes += len(r.Volumes)
	}

	pool, err := ants.NewPool(l.poolSize)
	if err != nil {
		return stats, err
	}
	defer pool.Release()

	prog := newProgress(l.progress, stats.Volumes, max(1, stats.Volumes/100))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	record := func(cases int, failed bool) {
		mu.Lock()
		stats.Cases += cases
		if failed {
			stats.FailedVolumes++
		}
		mu.Unlock()
		prog.volume(cases, failed)
	}

submit:
	for _, r := range reporters {
		for _, vol := range r.Volumes {
			if ctx.Err() != nil {
				break submit
			}
			wg.Add(1)
			err := pool.Submit(func() {
				defer wg.Done()
				n, err := l.loadVolume(ctx, r, vol)
				if err != nil {
					l.logger.Warn("skipping volume", "path", VolumePath(r, vol), "err", err)
				}
				record(n, err != nil)
			})
			if err != nil {
				wg.Done()
				l.logger.Error("failed to submit volume", "path", VolumePath(r, vol), "err", err)
				record(0, true)
			}
		}
	}
	wg.Wait()
	prog.finish()

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := l.repo.PutReporters(ctx, reporters); err != nil {
		return stats, fmt.Errorf("storing reporters manifest: %w", err)
	}

	l.logger.Info("archive loaded",
		"root", l.reader.Root(),
		"reporters", stats.Reporters,
		"volumes", stats.Volumes,
		"failed", stats.FailedVolumes,
		"cases", stats.Cases,
		"duration", stats.Duration)
	return stats, nil
}

func (l *Loader) readManifest(ctx context.Context) ([]payload.ReporterManifest, error) {
	var reporters []payload.ReporterManifest
	err := l.readJSON(ctx, ManifestName, &reporters)
	if errors.Is(err, bulk.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrManifestMissing, l.reader.Root())
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ManifestName, err)
	}
	return reporters, nil
}

func (l *Loader) loadVolume(ctx context.Context, r payload.ReporterManifest, vol string) (int, error) {
	var cases []payload.CAPCase
	if err := l.readJSON(ctx, VolumePath(r, vol), &cases); err != nil {
		return 0, err
	}
	if len(cases) == 0 {
		return 0, nil
	}

	locals := make([]payload.Local, len(cases))
	for i, c := range cases {
		locals[i] = payload.Local{Case: c, Reporter: r.Slug, Volume: vol}
	}
	if err := l.repo.AddCases(ctx, locals...); err != nil {
		return 0, fmt.Errorf("storing cases: %w", err)
	}
	return len(locals), nil
}

// readJSON opens and decodes name, retrying read failures. Missing files and
// undecodable content are not retried.
func (l *Loader) readJSON(ctx context.Context, name string, into any) error {
	return RetryWithBackoff(ctx, l.logger, func() error {
		rc, err := l.reader.Open(ctx, name)
		if err != nil {
			if errors.Is(err, bulk.ErrNotExist) {
				return Permanent(err)
			}
			return err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, into); err != nil {
			return Permanent(fmt.Errorf("decoding %s: %w", name, err))
		}
		return nil
	}, l.maxAttempts, l.baseDelay)
}
