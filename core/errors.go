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

package core

import "errors"

// Client input errors. These are reported to the caller without any
// processing having taken place.
var (
	// ErrInvalidQuery indicates a QueryRequest failed validation.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyQuery indicates the query text is empty or blank.
	ErrEmptyQuery = errors.New("no query provided")

	// ErrMalformedDate indicates a date string is not a valid YYYY-MM-DD calendar date.
	ErrMalformedDate = errors.New("malformed date, expected YYYY-MM-DD")

	// ErrNoContext indicates question generation was given no text, either
	// uploaded or from the corpus.
	ErrNoContext = errors.New("no input context provided")
)

// Ingestion errors. These are fatal when building a corpus snapshot.
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyFilename indicates the document filename is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyCorpus indicates a corpus was built from zero documents.
	ErrEmptyCorpus = errors.New("corpus requires at least one document")

	// ErrDimensionMismatch indicates a vector does not have the corpus dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyEmbedding indicates an embedder returned a zero-length vector.
	ErrEmptyEmbedding = errors.New("embedding is empty")

	// ErrEmbeddingCount indicates an embedder returned a different number of vectors than texts.
	ErrEmbeddingCount = errors.New("embedding count mismatch")

	// ErrDuplicateDocument indicates two documents in one corpus share an ID.
	ErrDuplicateDocument = errors.New("duplicate document")
)

// ErrCapability wraps failures of external capabilities (embedding, answer
// extraction) observed while handling a query.
var ErrCapability = errors.New("capability failed")
