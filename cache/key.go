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
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
	json "github.com/goccy/go-json"

	"github.com/poiesic/caselaw/core"
)

// Key derives the cache key for q: a BLAKE2b-256 hex digest of its JSON
// form after whitespace in the query text is collapsed and the limit is
// defaulted, so equivalent queries share a key.
func Key(q *core.SearchQuery) string {
	canon := *q
	canon.Query = strings.Join(strings.Fields(q.Query), " ")
	canon.Limit = q.EffectiveLimit()

	// SearchQuery holds only strings, ints and slices of them.
	data, _ := json.Marshal(&canon)
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
