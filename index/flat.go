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

package index

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/circulars/core"
)

// Index is a read-only similarity index.
type Index interface {
	// Search returns up to k hits ordered by ascending distance.
	Search(query []float32, k int) ([]core.Hit, error)
	// Dimension is the vector length every query must have.
	Dimension() int
	// Len is the number of indexed vectors.
	Len() int
}

// Flat is an exhaustive squared-L2 index.
type Flat struct {
	ids  []core.ID
	data []float32 // row-major, Len()*dim values
	dim  int
}

var _ Index = (*Flat)(nil)

// NewFlat builds an index over vectors, assigning ids[i] to vectors[i].
// The first vector fixes the dimension; vectors are copied.
func NewFlat(ids []core.ID, vectors [][]float32) (*Flat, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids, %d vectors", ErrLengthMismatch, len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector 0 is empty", ErrDimensionMismatch)
	}

	data := make([]float32, 0, dim*len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		if !finite(v) {
			return nil, fmt.Errorf("%w: vector %d", ErrNonFiniteVector, i)
		}
		data = append(data, v...)
	}

	return &Flat{
		ids:  slices.Clone(ids),
		data: data,
		dim:  dim,
	}, nil
}

// Dimension returns the vector length of the index.
func (f *Flat) Dimension() int {
	return f.dim
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	return len(f.ids)
}

// Search returns the min(k, Len()) nearest vectors to query.
func (f *Flat) Search(query []float32, k int) ([]core.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if !finite(query) {
		return nil, ErrNonFiniteVector
	}

	type scored struct {
		pos  int
		dist float64
	}
	all := make([]scored, len(f.ids))
	for i := range f.ids {
		all[i] = scored{pos: i, dist: squaredL2(query, f.data[i*f.dim:(i+1)*f.dim])}
	}

	// Stable sort keeps insertion order among equal distances
	slices.SortStableFunc(all, func(a, b scored) int {
		return cmp.Compare(a.dist, b.dist)
	})

	k = min(k, len(all))
	hits := make([]core.Hit, k)
	for i := 0; i < k; i++ {
		hits[i] = core.Hit{
			DocumentId: f.ids[all[i].pos],
			Distance:   float32(all[i].dist),
		}
	}
	return hits, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func finite(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
