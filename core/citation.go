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

package core

import "strings"

// NormalizeCitation lower-cases s, trims it and collapses every internal
// whitespace run to a single space. This is exact-string normalization only;
// "539 U.S. 558" and "539 US 558" remain distinct.
func NormalizeCitation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CitationsEqual compares two citation strings after normalization.
func CitationsEqual(a, b string) bool {
	na := NormalizeCitation(a)
	return na != "" && na == NormalizeCitation(b)
}

// SplitTerms tokenizes free text into the lower-cased, deduplicated terms
// longer than two characters that the relevance scorer matches on.
func SplitTerms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'.,;:!?()[]{}`)
		if len(f) <= 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
