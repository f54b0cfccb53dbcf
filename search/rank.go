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

package search

import (
	"fmt"
	"slices"

	"github.com/poiesic/circulars/core"
)

// Lookup resolves a document ID, as corpus.Snapshot.Lookup does.
type Lookup func(core.ID) (*core.Document, bool)

// Rank turns index hits into candidates ordered by date, most recent first.
// Equal dates keep hit order. When userDate is non-nil only candidates
// dated exactly userDate are kept, and the result may be empty.
func Rank(hits []core.Hit, lookup Lookup, userDate *core.CalendarDate) ([]core.Candidate, error) {
	candidates := make([]core.Candidate, 0, len(hits))
	for _, hit := range hits {
		doc, ok := lookup(hit.DocumentId)
		if !ok || doc == nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownDocument, hit.DocumentId)
		}
		if userDate != nil && !doc.Date.Equal(*userDate) {
			continue
		}
		candidates = append(candidates, core.Candidate{
			Document: doc,
			Distance: hit.Distance,
			Date:     doc.Date,
		})
	}

	slices.SortStableFunc(candidates, func(a, b core.Candidate) int {
		return b.Date.Compare(a.Date)
	})
	return candidates, nil
}
