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
	"time"
)

// ISODateLayout is the wire format for calendar dates.
const ISODateLayout = "2006-01-02"

// MinDate is the chronologically earliest representable calendar date.
// Undated documents compare as MinDate.
var MinDate = time.Time{}

// UnknownDate marks a document whose text carried no parseable date.
var UnknownDate = CalendarDate{}

// CalendarDate is a day-granular date in UTC.
// The zero value is UnknownDate, which orders as MinDate but remains
// distinguishable from a genuinely parsed date via Known.
type CalendarDate struct {
	t     time.Time
	known bool
}

// NewCalendarDate returns the known date year-month-day.
// Out-of-range values are normalized the way time.Date normalizes them.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{
		t:     time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		known: true,
	}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return NewCalendarDate(y, m, d)
}

// ParseISODate parses a zero-padded YYYY-MM-DD string; "2023-1-10" is
// rejected.
func ParseISODate(s string) (CalendarDate, error) {
	t, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return UnknownDate, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return DateOf(t), nil
}

// Known reports whether the date was actually parsed from something.
func (d CalendarDate) Known() bool {
	return d.known
}

// Time returns midnight UTC of the date, or MinDate when unknown.
func (d CalendarDate) Time() time.Time {
	if !d.known {
		return MinDate
	}
	return d.t
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o. Unknown dates compare as MinDate.
func (d CalendarDate) Compare(o CalendarDate) int {
	return d.Time().Compare(o.Time())
}

// Equal reports whether d and o fall on the same day.
func (d CalendarDate) Equal(o CalendarDate) bool {
	return d.Compare(o) == 0
}

// After reports whether d is strictly later than o.
func (d CalendarDate) After(o CalendarDate) bool {
	return d.Compare(o) > 0
}

// String formats the date as YYYY-MM-DD. Unknown dates render as MinDate.
func (d CalendarDate) String() string {
	return d.Time().Format(ISODateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *CalendarDate) UnmarshalText(text []byte) error {
	parsed, err := ParseISODate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
