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

// Package storage defines the case index the local archive searches over.
//
// The index holds bulk-archive cases in their native CAP shape
// (payload.Local) so that results can carry the untouched source payload.
// Two secondary lookups are maintained alongside the primary records: case ID
// and normalized citation string.
//
// # Constructor Return Type Pattern
//
// Public constructors return the CaseRepository interface:
//
//	repo, err := badger.NewCaseRepository(backend) // storage.CaseRepository
//
// # Usage
//
// Tests and ephemeral runs use an in-memory index:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	defer repo.Close()
//
// Persistent runs point the backend at a directory built by `caselaw import`.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the archive loader writes
// volumes from a worker pool.
package storage
