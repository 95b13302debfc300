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

// Package remote holds the HTTP plumbing shared by the remote source
// adapters: a metered JSON client, failure classification onto the core
// error taxonomy, rate-limit header parsing, and an auth-failure circuit
// breaker.
//
// Every request passes through the same gates in order: the breaker, the
// source's quota window, and an optional client-side pacing limiter. A
// request refused by any gate never reaches the network.
package remote
