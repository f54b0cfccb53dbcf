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

package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/circulars/core"
)

// ErrNoPatterns is returned when an Extractor is configured without patterns.
var ErrNoPatterns = errors.New("at least one date pattern is required")

// ErrNoLayouts is returned when an Extractor is configured without layouts.
var ErrNoLayouts = errors.New("at least one date layout is required")

// DefaultPatterns are tried in order. Numeric dates win over written ones.
var DefaultPatterns = []string{
	`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`,
	`[A-Za-z]+\s+\d{1,2},?\s+\d{4}`,
}

// DefaultLayouts are tried in order against each pattern match.
var DefaultLayouts = []string{
	"2/1/2006",
	"1/2/2006",
	"2-1-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Match describes where a date was found.
type Match struct {
	Date   core.CalendarDate
	Text   string // the matched substring
	Layout string // the layout that parsed it
}

// Extractor finds dates in free text. It is immutable and safe for
// concurrent use.
type Extractor struct {
	patterns []*regexp.Regexp
	layouts  []string
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithPatterns replaces the default patterns. Each pattern's whole match is
// handed to the layouts.
func WithPatterns(patterns ...string) Option {
	return func(e *Extractor) error {
		if len(patterns) == 0 {
			return ErrNoPatterns
		}
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("invalid date pattern %q: %w", p, err)
			}
			compiled = append(compiled, re)
		}
		e.patterns = compiled
		return nil
	}
}

// WithLayouts replaces the default layouts. Layouts use the time package's
// reference date notation.
func WithLayouts(layouts ...string) Option {
	return func(e *Extractor) error {
		if len(layouts) == 0 {
			return ErrNoLayouts
		}
		e.layouts = append([]string(nil), layouts...)
		return nil
	}
}

// NewExtractor creates an Extractor with the default patterns and layouts,
// then applies opts.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{layouts: append([]string(nil), DefaultLayouts...)}
	for _, p := range DefaultPatterns {
		e.patterns = append(e.patterns, regexp.MustCompile(p))
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

var defaultExtractor, _ = NewExtractor()

// Default returns the shared Extractor with the default configuration.
func Default() *Extractor {
	return defaultExtractor
}

// Extract returns the first date found in text, or core.UnknownDate.
func (e *Extractor) Extract(text string) core.CalendarDate {
	m, ok := e.Find(text)
	if !ok {
		return core.UnknownDate
	}
	return m.Date
}

// Find is like Extract but also reports what matched.
func (e *Extractor) Find(text string) (Match, bool) {
	for _, re := range e.patterns {
		found := re.FindString(text)
		if found == "" {
			continue
		}
		// time.Parse only skips runs of ' '; the written pattern also
		// admits tabs and newlines between its parts
		candidate := strings.Join(strings.Fields(found), " ")
		for _, layout := range e.layouts {
			t, err := time.Parse(layout, candidate)
			if err != nil || t.Year() < 1 {
				continue
			}
			return Match{Date: core.DateOf(t), Text: found, Layout: layout}, true
		}
	}
	return Match{Date: core.UnknownDate}, false
}

// Extract runs the default Extractor over text.
func Extract(text string) core.CalendarDate {
	return defaultExtractor.Extract(text)
}
