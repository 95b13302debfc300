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
	"sync"
	"time"
)

// BreakerState is the availability of a remote source.
type BreakerState int

const (
	// StateAvailable admits every call.
	StateAvailable BreakerState = iota
	// StateDegraded follows one auth failure. Calls are still admitted.
	StateDegraded
	// StateUnavailable follows a second consecutive auth failure.
	StateUnavailable
)

func (s BreakerState) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateDegraded:
		return "degraded"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Breaker switches a source off after repeated auth failures. Transient
// failures (network, 5xx, 429) never change its state; any success closes
// it again.
//
// With a positive re-probe interval an open breaker admits a single trial
// call once the interval has passed. Without one it stays open for the
// life of the process.
type Breaker struct {
	mu           sync.Mutex
	state        BreakerState
	authFailures int
	openedAt     time.Time
	probing      bool
	reprobeAfter time.Duration
	now          func() time.Time
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithReprobeAfter enables trial calls on an open breaker.
func WithReprobeAfter(d time.Duration) BreakerOption {
	return func(b *Breaker) { b.reprobeAfter = d }
}

// WithBreakerClock injects a time source.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBreaker creates a closed breaker.
func NewBreaker(opts ...BreakerOption) *Breaker {
	b := &Breaker{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Available reports whether a call would be admitted, without claiming the
// trial slot.
func (b *Breaker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != StateUnavailable || b.probeDue()
}

// Allow admits a call. On an open breaker it claims the trial slot when a
// re-probe is due.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateUnavailable {
		return true
	}
	if b.probeDue() {
		b.probing = true
		return true
	}
	return false
}

// Release returns an unused trial slot claimed by Allow. Use it when an
// admitted call is abandoned before reaching the service.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

// must be called with lock held
func (b *Breaker) probeDue() bool {
	return b.reprobeAfter > 0 && !b.probing && b.now().Sub(b.openedAt) >= b.reprobeAfter
}

// Record feeds the outcome of an admitted call back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.probing
	b.probing = false

	if err == nil {
		b.state = StateAvailable
		b.authFailures = 0
		return
	}
	if !IsAuthError(err) {
		if wasProbe {
			b.openedAt = b.now()
		}
		return
	}

	b.authFailures++
	if b.authFailures >= 2 || b.state == StateUnavailable {
		b.state = StateUnavailable
		b.openedAt = b.now()
		return
	}
	b.state = StateDegraded
}
