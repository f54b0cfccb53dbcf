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

// Package index provides an exact nearest-neighbour index over fixed
// dimension vectors.
//
// Flat compares a query against every stored vector using squared
// Euclidean distance, the metric of a FAISS IndexFlatL2. Results are
// ordered by ascending distance with ties broken by insertion order, so
// repeated searches over the same index are deterministic. A Flat is
// immutable after construction and safe for concurrent searches.
package index
