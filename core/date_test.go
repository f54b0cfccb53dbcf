package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseISODate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CalendarDate
		wantErr bool
	}{
		{
			name:  "valid date",
			input: "2023-01-10",
			want:  NewCalendarDate(2023, time.January, 10),
		},
		{
			name:  "surrounding whitespace",
			input: " 2023-06-01 ",
			want:  NewCalendarDate(2023, time.June, 1),
		},
		{
			name:    "day first",
			input:   "10-01-2023",
			wantErr: true,
		},
		{
			name:    "unpadded month",
			input:   "2023-1-10",
			wantErr: true,
		},
		{
			name:    "impossible day",
			input:   "2023-02-30",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseISODate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedDate) {
					t.Errorf("ParseISODate() error = %v, want %v", err, ErrMalformedDate)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseISODate() error = %v", err)
			}
			if !got.Equal(tt.want) || !got.Known() {
				t.Errorf("ParseISODate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalendarDate_Unknown(t *testing.T) {
	var zero CalendarDate

	if zero.Known() {
		t.Error("zero CalendarDate should be unknown")
	}
	if !zero.Time().Equal(MinDate) {
		t.Errorf("unknown date Time() = %v, want MinDate", zero.Time())
	}
	if zero.String() != "0001-01-01" {
		t.Errorf("unknown date String() = %q", zero.String())
	}

	oldest := NewCalendarDate(1900, time.January, 1)
	if !oldest.After(UnknownDate) {
		t.Error("any known date should sort after UnknownDate")
	}
	if UnknownDate.Compare(oldest) != -1 {
		t.Errorf("UnknownDate.Compare() = %d, want -1", UnknownDate.Compare(oldest))
	}
}

func TestCalendarDate_Compare(t *testing.T) {
	a := NewCalendarDate(2023, time.January, 10)
	b := NewCalendarDate(2023, time.June, 1)

	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare() ordering broken")
	}
	if !DateOf(time.Date(2023, time.January, 10, 23, 59, 0, 0, time.UTC)).Equal(a) {
		t.Errorf("DateOf() should truncate to the day")
	}
}

func TestCalendarDate_JSON(t *testing.T) {
	type payload struct {
		Date CalendarDate `json:"date"`
	}

	data, err := json.Marshal(payload{Date: NewCalendarDate(2023, time.June, 1)})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"date":"2023-06-01"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded.Date.Equal(NewCalendarDate(2023, time.June, 1)) {
		t.Errorf("Unmarshal() = %v", decoded.Date)
	}

	if err := json.Unmarshal([]byte(`{"date":"June 1"}`), &decoded); !errors.Is(err, ErrMalformedDate) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrMalformedDate)
	}
}
