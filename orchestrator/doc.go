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

// Package orchestrator runs one search across every configured source and
// reconciles the answers into a single response.
//
// Sources are walked sequentially in priority order (local archive first,
// then the metered remote services). With the prefer-offline flag set, the
// walk stops as soon as the accumulated results satisfy the limit, so
// remote quota is spent only when the archive falls short. Every source in
// the resolved order gets a SourceDiagnostic, including those skipped for
// timeout, early exit, or unavailability. Results are deduplicated by
// normalized first citation, first occurrence winning, which favors the
// higher-priority source.
//
// Search never returns an error. A search that fails everywhere returns an
// empty result list whose diagnostics explain why.
package orchestrator
