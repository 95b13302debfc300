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
	"fmt"
	"strings"

	"github.com/poiesic/caselaw/core"
)

// Adapter returns the adapter registered for id.
func (o *Orchestrator) Adapter(id core.SourceID) (Adapter, bool) {
	a, ok := o.adapters[id]
	return a, ok
}

// GetCaseByCitation asks each available adapter in priority order and
// returns the first match, or nil. Adapter failures are logged and the walk
// moves on.
func (o *Orchestrator) GetCaseByCitation(ctx context.Context, cite string) *core.UnifiedResult {
	if strings.TrimSpace(cite) == "" {
		return nil
	}
	for _, id := range o.order {
		if ctx.Err() != nil {
			return nil
		}
		a := o.adapters[id]
		if !a.Available() {
			continue
		}
		res, err := a.GetByCitation(ctx, cite)
		if err != nil {
			o.logger.Warn("citation lookup failed", "source", id, "cite", cite, "err", err)
			continue
		}
		if res != nil {
			return res
		}
	}
	return nil
}

// GetByID fetches a record from one source. A missing record is nil, nil.
func (o *Orchestrator) GetByID(ctx context.Context, source core.SourceID, id string) (*core.UnifiedResult, error) {
	a, ok := o.adapters[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSource, source)
	}
	if !a.Available() {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceUnavailable, source)
	}
	return a.GetByID(ctx, id)
}

// SourceStatus reports every adapter in priority order.
func (o *Orchestrator) SourceStatus() []core.SourceStatus {
	out := make([]core.SourceStatus, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.adapters[id].Status())
	}
	return out
}
