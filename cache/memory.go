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
	"container/list"
	"sync"
	"time"

	"github.com/poiesic/caselaw/core"
)

type entry struct {
	key    string
	resp   *core.SearchResponse
	stored time.Time
}

// MemoryStore is an in-process TTL cache with optional LRU eviction.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List // front is most recently used
	items    map[string]*list.Element
	now      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL sets entry lifetime. Default is DefaultTTL.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCapacity bounds the number of entries; the least recently used entry
// is evicted first. Zero means unbounded.
func WithCapacity(n int) MemoryOption {
	return func(m *MemoryStore) {
		if n >= 0 {
			m.capacity = n
		}
	}
}

// WithClock injects a time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		ttl:   DefaultTTL,
		order: list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the entry under key. Entries older than the TTL are
// misses and are dropped.
func (m *MemoryStore) Get(key string) (*core.SearchResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if m.now().Sub(e.stored) > m.ttl {
		m.remove(el)
		return nil, false
	}
	m.order.MoveToFront(el)
	return e.resp.Clone(), true
}

// Set stores a copy of resp under key.
func (m *MemoryStore) Set(key string, resp *core.SearchResponse) {
	if resp == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry)
		e.resp = resp.Clone()
		e.stored = now
		m.order.MoveToFront(el)
		return
	}

	m.items[key] = m.order.PushFront(&entry{key: key, resp: resp.Clone(), stored: now})
	for m.capacity > 0 && m.order.Len() > m.capacity {
		m.remove(m.order.Back())
	}
}

// Len returns the number of entries, including expired ones not yet
// touched.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Purge drops every expired entry and returns how many were removed.
func (m *MemoryStore) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if now.Sub(el.Value.(*entry).stored) > m.ttl {
			m.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

// must be called with lock held
func (m *MemoryStore) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*entry).key)
}

var _ Store = (*MemoryStore)(nil)
