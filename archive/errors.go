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

package archive

import "errors"

var (
	// ErrRepositoryRequired is returned when a nil case repository is provided.
	ErrRepositoryRequired = errors.New("case repository is required")

	// ErrReaderRequired is returned when a nil bulk reader is provided.
	ErrReaderRequired = errors.New("bulk reader is required")

	// ErrInvalidMaxAttempts is returned when retry attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrInvalidPoolSize is returned when the worker pool size is not positive.
	ErrInvalidPoolSize = errors.New("pool size must be greater than 0")

	// ErrManifestMissing is returned when the data root has no reporters manifest.
	ErrManifestMissing = errors.New("reporters manifest not found")
)
