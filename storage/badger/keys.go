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

package badger

import (
	"encoding/binary"

	"github.com/poiesic/caselaw/core"
)

// Key prefixes for different data types
const (
	casePrefix   = "case:"
	caseIDPrefix = "caseid:"
	citePrefix   = "cite:"
	reportersKey = "meta:reporters"
	caseSeqKey   = "meta:caseseq"

	// CachePrefix namespaces query-cache entries sharing a backend.
	CachePrefix = "qcache:"
)

// makeCaseKey generates the primary key for a case.
// Format: prefix + big-endian sequence, so iteration follows insertion order.
func makeCaseKey(seq uint64) []byte {
	buf := make([]byte, len(casePrefix)+8)
	offset := copy(buf, casePrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeCaseIDKey maps an archive case ID to its sequence.
func makeCaseIDKey(id string) []byte {
	return []byte(caseIDPrefix + id)
}

// makeCiteKey maps a normalized citation to a sequence.
func makeCiteKey(cite string) []byte {
	return []byte(citePrefix + core.NormalizeCitation(cite))
}

// MakeCacheKey namespaces a query-cache digest.
func MakeCacheKey(digest string) []byte {
	return []byte(CachePrefix + digest)
}
