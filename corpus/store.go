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

package corpus

import (
	"fmt"
	"slices"

	"github.com/poiesic/circulars/core"
)

// Store is the read-only set of documents in a snapshot.
type Store struct {
	docs []*core.Document
	byID map[core.ID]*core.Document
}

// NewStore indexes docs by ID. Documents must be valid for dimension and
// carry unique IDs.
func NewStore(docs []*core.Document, dimension int) (*Store, error) {
	if len(docs) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	byID := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		if err := core.ValidateDocument(doc, dimension); err != nil {
			return nil, err
		}
		if prev, ok := byID[doc.Id]; ok {
			return nil, fmt.Errorf("%w: %s and %s share id %d", core.ErrDuplicateDocument, prev.Filename, doc.Filename, doc.Id)
		}
		byID[doc.Id] = doc
	}

	return &Store{
		docs: slices.Clone(docs),
		byID: byID,
	}, nil
}

// Get returns the document with the given ID.
func (s *Store) Get(id core.ID) (*core.Document, bool) {
	doc, ok := s.byID[id]
	return doc, ok
}

// Len returns the number of documents.
func (s *Store) Len() int {
	return len(s.docs)
}

// Documents returns the documents in ingestion order. The slice is a copy;
// the documents are shared and must not be modified.
func (s *Store) Documents() []*core.Document {
	return slices.Clone(s.docs)
}
