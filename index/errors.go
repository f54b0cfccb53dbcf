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
	"errors"

	"github.com/poiesic/circulars/core"
)

var (
	// ErrInvalidK is returned when a search asks for fewer than one result.
	ErrInvalidK = errors.New("k must be at least 1")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index dimension.
	ErrDimensionMismatch = core.ErrDimensionMismatch

	// ErrEmptyIndex is returned when an index is built with no vectors.
	ErrEmptyIndex = errors.New("index requires at least one vector")

	// ErrLengthMismatch is returned when ids and vectors differ in count.
	ErrLengthMismatch = errors.New("ids and vectors differ in length")

	// ErrNonFiniteVector is returned for vectors containing NaN or Inf.
	ErrNonFiniteVector = errors.New("vector contains NaN or Inf")
)
