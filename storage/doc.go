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

// Package storage defines the persistent cache used during ingestion.
//
// OCR is slow and embedding calls cost money, so both results are cached
// across runs. The corpus itself is never persisted: every start rebuilds
// the snapshot, and the cache only short-circuits the expensive steps.
//
// # Keys
//
// Text entries are keyed by (extraction mode, content id of the file bytes).
// Vector entries are keyed by (embedding model, content id of the text).
// Changing the model or the extraction mode therefore never returns stale
// data.
//
// # Usage
//
//	cache, err := badger.OpenCache("/var/cache/circulars")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
// Use in tests with in-memory storage:
//
//	cache, err := badger.NewMemoryCache()
//
// # Thread Safety
//
// All implementations must be safe for concurrent use; the ingestion
// pipeline reads and writes from its worker pool.
package storage
