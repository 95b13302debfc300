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

package storage

import (
	"context"

	"github.com/poiesic/caselaw/payload"
)

// CaseRepository stores the read-mostly bulk archive.
// Implementations must be thread-safe and support concurrent access.
type CaseRepository interface {
	// PutReporters replaces the reporters manifest.
	PutReporters(ctx context.Context, reporters []payload.ReporterManifest) error

	// Reporters returns the stored manifest. An empty slice means the archive
	// has not been loaded.
	Reporters(ctx context.Context) ([]payload.ReporterManifest, error)

	// AddCases stores cases in the given order. A case whose ID is already
	// present replaces the stored copy in place.
	AddCases(ctx context.Context, cases ...payload.Local) error

	// GetCase retrieves a case by its archive ID.
	// Returns ErrNotFound if the case doesn't exist.
	GetCase(ctx context.Context, id string) (*payload.Local, error)

	// FindByCitation retrieves the first case stored under a citation,
	// comparing normalized citation strings.
	// Returns ErrNotFound if no case carries the citation.
	FindByCitation(ctx context.Context, cite string) (*payload.Local, error)

	// Scan calls fn for every case in insertion order. Returning ErrStopScan
	// ends the scan early with a nil error.
	Scan(ctx context.Context, fn func(c *payload.Local) error) error

	// Count returns the number of stored cases.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the repository. The backend is
	// closed separately.
	Close() error
}
