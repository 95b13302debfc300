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
	"context"

	"github.com/poiesic/caselaw/core"
)

// Adapter is one searchable source. Lookups that find nothing return
// nil, nil.
type Adapter interface {
	ID() core.SourceID
	// Available reports whether the source would accept a call now.
	Available() bool
	Search(ctx context.Context, q *core.SearchQuery, limit int) (core.ResultPage, error)
	GetByID(ctx context.Context, id string) (*core.UnifiedResult, error)
	GetByCitation(ctx context.Context, cite string) (*core.UnifiedResult, error)
	Status() core.SourceStatus
}
