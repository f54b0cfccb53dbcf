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
	"errors"
	"sync/atomic"
	"time"

	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/index"
)

// ErrNilSnapshot is returned when a nil snapshot is published.
var ErrNilSnapshot = errors.New("snapshot is nil")

// Snapshot is an immutable corpus: documents plus their similarity index.
type Snapshot struct {
	Store     *Store
	Index     index.Index
	Dimension int
	BuiltAt   time.Time
}

// NewSnapshot indexes already embedded documents. The first document's
// vector fixes the dimension.
func NewSnapshot(docs []*core.Document, builtAt time.Time) (*Snapshot, error) {
	if len(docs) == 0 {
		return nil, core.ErrEmptyCorpus
	}
	dimension := len(docs[0].Vector)

	store, err := NewStore(docs, dimension)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, len(docs))
	vectors := make([][]float32, len(docs))
	for i, doc := range docs {
		ids[i] = doc.Id
		vectors[i] = doc.Vector
	}
	idx, err := index.NewFlat(ids, vectors)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Store:     store,
		Index:     idx,
		Dimension: dimension,
		BuiltAt:   builtAt,
	}, nil
}

// Lookup resolves a document ID within the snapshot.
func (s *Snapshot) Lookup(id core.ID) (*core.Document, bool) {
	return s.Store.Get(id)
}

// Holder publishes the current snapshot to concurrent readers.
// The zero value holds no snapshot.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a Holder publishing snap, which may be nil.
func NewHolder(snap *Snapshot) *Holder {
	h := &Holder{}
	if snap != nil {
		h.current.Store(snap)
	}
	return h
}

// Load returns the current snapshot, or nil if none was published.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Swap publishes snap and returns the snapshot it replaced.
func (h *Holder) Swap(snap *Snapshot) (*Snapshot, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	return h.current.Swap(snap), nil
}
