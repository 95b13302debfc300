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

import "errors"

var (
	// ErrNoAdapters is returned when no source adapter is configured.
	ErrNoAdapters = errors.New("at least one source adapter is required")

	// ErrDuplicateAdapter is returned when two adapters share a source ID.
	ErrDuplicateAdapter = errors.New("duplicate source adapter")
)
