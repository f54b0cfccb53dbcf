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

// Package corpus builds and holds the immutable document snapshot that
// queries run against.
//
// A Snapshot pairs a Store of dated, embedded documents with the similarity
// index over their vectors. Build produces a Snapshot from raw extracted
// text in one pass: date extraction, batch embedding, dimension checks and
// index construction. Any error aborts the build; a partially built
// snapshot is never returned.
//
// Holder publishes the current Snapshot to concurrent readers. Replacing it
// is a single atomic pointer swap, so a query that captured the old
// snapshot finishes against it undisturbed.
package corpus
