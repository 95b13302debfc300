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

import (
	"fmt"
	"strings"
	"time"
)

// ValidateQuery validates a SearchQuery.
//
// Validation rules:
//   - Query must contain non-whitespace text
//   - Limit must not be negative (0 means DefaultLimit)
//   - DateMin and DateMax, when set, must be YYYY or YYYY-MM-DD
//   - DateMin must not be after DateMax
//
// NOT validated:
//   - Sources (unknown IDs are reported per source by the orchestrator)
func ValidateQuery(q *SearchQuery) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}

	if q.Limit < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrInvalidLimit)
	}

	for _, d := range []string{q.DateMin, q.DateMax} {
		if d != "" && !IsValidDate(d) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidDate, d)
		}
	}

	if q.DateMin != "" && q.DateMax != "" && q.DateMin > q.DateMax {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrInvalidDateRange)
	}

	return nil
}

// ValidateRecord validates a CaseRecord before it is stored.
func ValidateRecord(r *CaseRecord) error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if r.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if !r.Source.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrUnknownSource, r.Source)
	}

	if r.Name == "" && r.NameAbbreviation == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}

	return nil
}

// IsValidDate accepts a bare year or a full calendar date.
func IsValidDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	_, err := time.Parse("2006", s)
	return err == nil
}

// InDateRange reports whether date falls within [lo, hi]. Empty bounds are
// open. Dates compare as ISO strings; a bare-year hi bound covers that whole
// year.
func InDateRange(date, lo, hi string) bool {
	if lo != "" && date < lo {
		return false
	}
	if hi == "" {
		return true
	}
	if len(hi) == 4 {
		return date[:min(len(date), 4)] <= hi
	}
	return date <= hi
}
