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

package orchestrator

import (
	"github.com/google/uuid"

	"github.com/poiesic/caselaw/core"
)

// Monitor provides hooks to observe searches.
// Implementations must be safe for concurrent use.
type Monitor interface {
	Start(requestID uuid.UUID, q *core.SearchQuery)
	CacheHit(requestID uuid.UUID)
	AdapterFinished(requestID uuid.UUID, diag core.SourceDiagnostic)
	DuplicateDropped(requestID uuid.UUID, dropped core.UnifiedResult)
	Finish(resp *core.SearchResponse)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ uuid.UUID, _ *core.SearchQuery) {}
func (n *noopMonitor) CacheHit(_ uuid.UUID) {}
func (n *noopMonitor) AdapterFinished(_ uuid.UUID, _ core.SourceDiagnostic) {}
func (n *noopMonitor) DuplicateDropped(_ uuid.UUID, _ core.UnifiedResult) {}
func (n *noopMonitor) Finish(_ *core.SearchResponse) {}
