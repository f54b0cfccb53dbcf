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

// Package search answers questions against a corpus snapshot.
//
// A query runs strictly in sequence:
//   - the query text is embedded and the nearest documents form a small pool
//   - Rank orders the pool by document date, most recent first, optionally
//     keeping only documents from one exact date
//   - Decide either selects a document or, when the pool spans several
//     dates and the caller gave none, asks the caller to pick a date
//   - the selected document's text is handed to the answer extractor
//
// Similarity only decides pool membership. Once a document is in the pool,
// recency decides order. Every per-query failure is reported as a
// core.Outcome; Searcher never returns an error from a query.
package search
