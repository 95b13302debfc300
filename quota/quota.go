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

// Package quota tracks per-source request windows so that metered remote
// services are never called once their published limit is reached.
//
// Each registered source owns an independent window guarded by its own
// mutex; the registry lock is only held long enough to look a window up.
package quota

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/poiesic/caselaw/core"
)

var (
	ErrNotRegistered = errors.New("source not registered")
	ErrInvalidWindow = errors.New("window must be positive for a limited source")
)

// Limits is one tier of a source's quota. Limit <= 0 means unmetered.
type Limits struct {
	Limit  int
	Window time.Duration
}

// Unlimited reports whether l imposes no cap.
func (l Limits) Unlimited() bool {
	return l.Limit <= 0
}

// Tier pairs the anonymous and credentialed limits a service publishes.
type Tier struct {
	Anonymous     Limits
	Authenticated Limits
}

// For picks the limits for the given credential state.
func (t Tier) For(authenticated bool) Limits {
	if authenticated {
		return t.Authenticated
	}
	return t.Anonymous
}

// Published defaults.
var (
	LocalTier = Tier{}

	// RemoteATier is the CourtListener-style hourly cap.
	RemoteATier = Tier{
		Anonymous:     Limits{Limit: 100, Window: time.Hour},
		Authenticated: Limits{Limit: 5000, Window: time.Hour},
	}

	// RemoteBTier is the CAP-style daily cap. The service does not publish a
	// separate credentialed tier, so both tiers share it.
	RemoteBTier = Tier{
		Anonymous:     Limits{Limit: 500, Window: 24 * time.Hour},
		Authenticated: Limits{Limit: 500, Window: 24 * time.Hour},
	}
)

// Clock returns the current time.
type Clock func() time.Time

type window struct {
	mu            sync.Mutex
	limits        Limits
	authenticated bool
	start         time.Time
	count         int
	// blockedUntil is set from remote feedback; requests before it are denied
	// regardless of the local count.
	blockedUntil time.Time
}

// Tracker holds one window per source.
type Tracker struct {
	mu      sync.RWMutex
	windows map[core.SourceID]*window
	now     Clock
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects a time source.
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.now = c
		}
	}
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		windows: make(map[core.SourceID]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register installs (or replaces) the window for id.
func (t *Tracker) Register(id core.SourceID, limits Limits, authenticated bool) error {
	if !limits.Unlimited() && limits.Window <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidWindow, id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows[id] = &window{
		limits:        limits,
		authenticated: authenticated,
		start:         t.now(),
	}
	return nil
}

func (t *Tracker) lookup(id core.SourceID) (*window, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.windows[id]
	return w, ok
}

// roll resets the window when it has expired. Callers hold w.mu.
func (w *window) roll(now time.Time) {
	if now.Sub(w.start) > w.limits.Window {
		w.start = now
		w.count = 0
	}
}

// TryConsume counts one request against id and reports whether it is
// allowed. A denied request is not counted. Unregistered sources are denied.
func (t *Tracker) TryConsume(id core.SourceID) bool {
	w, ok := t.lookup(id)
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.limits.Unlimited() {
		return true
	}

	now := t.now()
	if now.Before(w.blockedUntil) {
		return false
	}
	w.roll(now)
	if w.count >= w.limits.Limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns the requests left in the current window, or -1 for an
// unmetered source.
func (t *Tracker) Remaining(id core.SourceID) (int, error) {
	w, ok := t.lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.limits.Unlimited() {
		return -1, nil
	}
	now := t.now()
	if now.Before(w.blockedUntil) {
		return 0, nil
	}
	w.roll(now)
	return w.limits.Limit - w.count, nil
}

// State returns a snapshot of id's window.
func (t *Tracker) State(id core.SourceID) (core.QuotaState, error) {
	w, ok := t.lookup(id)
	if !ok {
		return core.QuotaState{}, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.limits.Unlimited() {
		w.roll(t.now())
	}
	return core.QuotaState{
		WindowStart:   w.start,
		RequestCount:  w.count,
		Limit:         w.limits.Limit,
		Window:        w.limits.Window,
		Authenticated: w.authenticated,
	}, nil
}

// Observe reconciles id's window with rate-limit state reported by the
// remote service. The local count is raised to limit-remaining (never
// lowered), and a non-zero resetAt re-anchors the window so it expires then.
func (t *Tracker) Observe(id core.SourceID, remaining int, resetAt time.Time) {
	w, ok := t.lookup(id)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.limits.Unlimited() || remaining < 0 {
		return
	}
	if !resetAt.IsZero() {
		w.start = resetAt.Add(-w.limits.Window)
	}
	if used := w.limits.Limit - remaining; used > w.count {
		w.count = used
	}
	if remaining == 0 && !resetAt.IsZero() {
		w.blockedUntil = resetAt
	}
}

// Exhaust denies every request for id until the given time. Used when the
// service answers 429.
func (t *Tracker) Exhaust(id core.SourceID, until time.Time) {
	w, ok := t.lookup(id)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if until.After(w.blockedUntil) {
		w.blockedUntil = until
	}
}
