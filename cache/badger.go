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

package cache

import (
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/storage/badger"
)

// BadgerStore persists responses in a badger backend. Entries expire through
// badger's TTL, so a restart keeps fresh entries.
type BadgerStore struct {
	backend *badger.Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// NewBadgerStore creates a store on backend. A ttl <= 0 uses DefaultTTL.
func NewBadgerStore(backend *badger.Backend, ttl time.Duration, logger *slog.Logger) (*BadgerStore, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{backend: backend, ttl: ttl, logger: logger}, nil
}

// Get loads and decodes the entry under key. Read and decode failures are
// logged and reported as misses.
func (s *BadgerStore) Get(key string) (*core.SearchResponse, bool) {
	data, err := s.backend.Get(badger.MakeCacheKey(key))
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var resp core.SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn("dropping undecodable cache entry", "key", key, "err", err)
		return nil, false
	}
	return &resp, true
}

// Set encodes resp and stores it with the store's TTL.
func (s *BadgerStore) Set(key string, resp *core.SearchResponse) {
	if resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("cache encode failed", "key", key, "err", err)
		return
	}
	if err := s.backend.SetWithTTL(badger.MakeCacheKey(key), data, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
	}
}

// Len counts live entries.
func (s *BadgerStore) Len() int {
	n, err := s.backend.CountPrefix([]byte(badger.CachePrefix))
	if err != nil {
		s.logger.Warn("cache count failed", "err", err)
		return 0
	}
	return n
}

var _ Store = (*BadgerStore)(nil)
