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

import (
	"fmt"
	"strings"
)

// ValidateRawDocument validates a RawDocument before ingestion.
//
// Validation rules:
//   - Filename must not be empty
//
// Empty text is allowed: scanned pages can OCR to nothing and still
// participate in the corpus as an undated document.
func ValidateRawDocument(raw *RawDocument) error {
	if raw == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(raw.Filename) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}
	return nil
}

// ValidateDocument validates a fully built Document against the corpus
// dimension.
func ValidateDocument(doc *Document, dimension int) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Filename) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}
	if len(doc.Vector) == 0 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, doc.Filename, ErrEmptyEmbedding)
	}
	if len(doc.Vector) != dimension {
		return fmt.Errorf("%w: %s has %d, corpus has %d", ErrDimensionMismatch, doc.Filename, len(doc.Vector), dimension)
	}
	return nil
}

// ValidateQueryRequest rejects requests that must not reach any capability.
func ValidateQueryRequest(req QueryRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}
	if req.UserDate != nil && !req.UserDate.Known() {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrMalformedDate)
	}
	return nil
}
