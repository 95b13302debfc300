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

// Package payload defines the source-native record shapes returned by each
// case-law source.
//
// Every unified result carries its original payload so that downstream
// display code can reach fields the canonical model does not cover. The
// payload is a closed union (Raw) with exactly three members:
//
//   - Local: a case from the bulk archive (CAP bulk export format)
//   - RemoteA: a CourtListener search hit and/or cluster detail
//   - RemoteB: a case from the Caselaw Access Project API
//
// Only the normalize package inspects these shapes. Adapters decode into them
// and the orchestrator passes them through untouched.
package payload
