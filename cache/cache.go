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

// Package cache stores orchestrated search responses keyed by a digest of
// the query.
//
// MemoryStore keeps entries in process with a TTL and an optional LRU
// capacity bound. BadgerStore persists them in a badger backend, relying on
// badger's entry TTL for expiry. Both return copies, so callers may mark a
// returned response as cached without touching the stored entry.
package cache

import (
	"time"

	"github.com/poiesic/caselaw/core"
)

// DefaultTTL is how long a response stays fresh.
const DefaultTTL = 30 * time.Minute

// Store is a query-response cache. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns a copy of the response stored under key.
	Get(key string) (*core.SearchResponse, bool)
	// Set stores a copy of resp under key.
	Set(key string, resp *core.SearchResponse)
	// Len returns the number of live entries.
	Len() int
}
