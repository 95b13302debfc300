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

// Package bulk opens files from a bulk case-law export, either unpacked on
// local disk or mirrored into an S3 bucket.
//
// Names are slash-separated paths relative to the data root, e.g.
// "ReportersMetadata.json" or "ill/ill-app/1/Cases.json".
package bulk
