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

// Package archive is the local source: a read-only bulk export of CAP cases
// loaded into a storage.CaseRepository and searched with a term-relevance
// scorer.
//
// # Layout
//
// The data root holds a reporters manifest and one Cases.json per volume:
//
//	<root>/ReportersMetadata.json
//	<root>/<jurisdiction>/<reporter>/<volume>/Cases.json
//
// # Loading
//
// Loader reads volumes on an ants worker pool. Reads are retried with
// exponential backoff; a volume that still fails, or does not parse, is
// logged and counted in LoadStats without aborting the load. The manifest
// is written last, so an interrupted load leaves the archive unavailable.
//
// # Scoring
//
// Query text is split into lower-cased terms longer than two characters.
// For each term a case earns 10 if its name contains the term, 5 if its head
// matter does, plus one per occurrence in the opinion text (at most 10 per
// term). Cases decided in 2010 or later are multiplied by 1.2, and those from
// 2015 or later by a further 1.1. Cases matching no term are dropped.
//
// # Usage
//
//	repo, backend, _ := badger.NewMemoryRepository()
//	reader, _ := bulk.NewDirReader("/data/cap")
//	loader, _ := archive.NewLoader(reader, repo)
//	stats, err := loader.Load(ctx)
//
//	adapter, _ := archive.NewAdapter(repo)
//	_ = adapter.Refresh(ctx)
//	page, err := adapter.Search(ctx, &core.SearchQuery{Query: "trade secret"}, 20)
package archive
