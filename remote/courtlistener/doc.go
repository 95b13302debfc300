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

// Package courtlistener is the adapter for a CourtListener-style REST API
// (remote source A).
//
// Searches go to /search/?type=o and follow the "next" cursor until the
// limit is met or the page budget runs out. Lookups by ID fetch the cluster
// and its lead opinion; IDs prefixed with "opinion:" name an opinion and are
// resolved to its cluster. Requests carry "Authorization: Token <token>"
// when a token is configured, which also selects the authenticated quota
// tier.
package courtlistener
