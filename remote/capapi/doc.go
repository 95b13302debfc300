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

// Package capapi is the adapter for a Caselaw Access Project style /cases/
// API (remote source B).
//
// The service reports its quota in X-RateLimit-Remaining and
// X-RateLimit-Reset; the shared remote client feeds both back into the
// adapter's quota window after every response.
package capapi
