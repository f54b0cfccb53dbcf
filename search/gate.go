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
	"slices"

	"github.com/poiesic/circulars/core"
)

// DecisionKind is the gate's verdict on a candidate list.
type DecisionKind int

const (
	// DecisionNotFound means there was nothing to choose from.
	DecisionNotFound DecisionKind = iota + 1
	// DecisionSelect means Selected should be answered from.
	DecisionSelect
	// DecisionClarify means the caller must choose one of Dates.
	DecisionClarify
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionNotFound:
		return "not_found"
	case DecisionSelect:
		return "select"
	case DecisionClarify:
		return "clarify"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Decide.
type Decision struct {
	Kind     DecisionKind
	Selected core.Candidate      // DecisionSelect only
	Dates    []core.CalendarDate // DecisionClarify only, distinct, most recent first
}

// Decide picks the candidate to answer from, or asks for a date.
//
// Candidates must already be ordered by Rank. With a user date the first
// candidate is selected. Without one, candidates spanning two or more
// distinct dates produce DecisionClarify; a single date selects the first.
func Decide(candidates []core.Candidate, userDateSupplied bool) Decision {
	if len(candidates) == 0 {
		return Decision{Kind: DecisionNotFound}
	}
	if userDateSupplied {
		return Decision{Kind: DecisionSelect, Selected: candidates[0]}
	}

	if dates := distinctDates(candidates); len(dates) > 1 {
		return Decision{Kind: DecisionClarify, Dates: dates}
	}
	return Decision{Kind: DecisionSelect, Selected: candidates[0]}
}

func distinctDates(candidates []core.Candidate) []core.CalendarDate {
	dates := make([]core.CalendarDate, len(candidates))
	for i, c := range candidates {
		dates[i] = c.Date
	}
	slices.SortFunc(dates, func(a, b core.CalendarDate) int {
		return b.Compare(a)
	})
	return slices.CompactFunc(dates, core.CalendarDate.Equal)
}
