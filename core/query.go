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

import "strings"

// QueryRequest is a single question against the corpus, optionally pinned
// to a document date.
type QueryRequest struct {
	Text     string
	UserDate *CalendarDate // nil when the caller did not specify a date
}

// NewQueryRequest builds a request from wire values. An empty isoDate means
// no date was supplied.
func NewQueryRequest(text, isoDate string) (QueryRequest, error) {
	req := QueryRequest{Text: text}
	if strings.TrimSpace(isoDate) != "" {
		date, err := ParseISODate(isoDate)
		if err != nil {
			return QueryRequest{}, err
		}
		req.UserDate = &date
	}
	return req, nil
}

// OutcomeKind discriminates the Outcome variants.
type OutcomeKind int

const (
	// OutcomeAnswered means an answer was extracted from a selected document.
	OutcomeAnswered OutcomeKind = iota + 1
	// OutcomeNeedsClarification means candidates span several dates and the
	// caller must resubmit with one of them.
	OutcomeNeedsClarification
	// OutcomeNotFound means no candidate document survived.
	OutcomeNotFound
	// OutcomeFailed means the request was rejected or a capability failed.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAnswered:
		return "answered"
	case OutcomeNeedsClarification:
		return "needs_clarification"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one QueryRequest. Only the fields
// belonging to Kind are populated.
type Outcome struct {
	Kind OutcomeKind

	// Answered
	Answer   string
	Filename string
	Date     CalendarDate

	// NeedsClarification: distinct candidate dates, most recent first
	AvailableDates []CalendarDate

	// NotFound: true when an explicit date filter emptied the candidate set
	ForDate bool

	// Failed
	Err error
}

// Answered builds an OutcomeAnswered.
func Answered(answer, filename string, date CalendarDate) Outcome {
	return Outcome{Kind: OutcomeAnswered, Answer: answer, Filename: filename, Date: date}
}

// NeedsClarification builds an OutcomeNeedsClarification.
func NeedsClarification(dates []CalendarDate) Outcome {
	return Outcome{Kind: OutcomeNeedsClarification, AvailableDates: dates}
}

// NotFound builds a generic OutcomeNotFound.
func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

// NotFoundForDate builds the OutcomeNotFound reported when no candidate
// carries the requested date.
func NotFoundForDate() Outcome {
	return Outcome{Kind: OutcomeNotFound, ForDate: true}
}

// Failed builds an OutcomeFailed.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}

// Reason returns the failure message for OutcomeFailed, or "".
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// DateStrings returns AvailableDates formatted as YYYY-MM-DD.
func (o Outcome) DateStrings() []string {
	out := make([]string, len(o.AvailableDates))
	for i, d := range o.AvailableDates {
		out[i] = d.String()
	}
	return out
}

// QAPair is a generated question with the answer extracted for it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
