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

// Package core holds the canonical case-law model shared by every source
// adapter, the citation normalization rule used for cross-source identity,
// and the error taxonomy adapters report through.
//
// A CaseRecord's ID is only unique within its Source. Two records from
// different sources describe the same case when their DedupKey values match,
// which compares normalized citation strings:
//
//	core.NormalizeCitation(" 539  U.S.  558 ") == "539 u.s. 558"
//
// Errors fall into five classes: quota exhaustion, transient network
// failure, remote protocol failure (malformed payloads are a subclass),
// unavailable sources, and NotFound. NotFound is never an error value;
// lookups return nil with a nil error.
package core
