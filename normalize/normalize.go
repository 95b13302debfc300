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

// Package normalize maps source-native payloads onto core.UnifiedResult.
//
// Every function here is pure. Each result carries a display name, the first
// citation (or core.NoCitation), decision date, court, jurisdiction and a
// markup-free snippet, plus the payload it was built from.
package normalize

import (
	"fmt"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
)

// Result dispatches on the payload variant. Relevance is never known here;
// local results built through Result carry no score.
func Result(raw payload.Raw) (core.UnifiedResult, error) {
	switch r := raw.(type) {
	case payload.Local:
		return Local(r, nil), nil
	case payload.RemoteA:
		return RemoteA(r), nil
	case payload.RemoteB:
		return RemoteB(r), nil
	case nil:
		return core.UnifiedResult{}, fmt.Errorf("%w: nil payload", payload.ErrUnknownKind)
	default:
		return core.UnifiedResult{}, fmt.Errorf("%w: %T", payload.ErrUnknownKind, raw)
	}
}
