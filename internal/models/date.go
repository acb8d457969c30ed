package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the stored and displayed due date format.
const DateLayout = "2006-01-02"

// inputLayout also accepts a month or day without its leading zero.
const inputLayout = "2006-1-2"

// Date is a calendar date without time of day. The zero value means "no date".
type Date struct {
	t   time.Time
	set bool
}

// ParseDate parses a YYYY-MM-DD string. "2024-1-5" is accepted as well and
// formats as "2024-01-05".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(inputLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t: t, set: true}, nil
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), set: true}
}

func (d Date) IsZero() bool {
	return !d.set
}

// String returns the ISO form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Display is String with "None" for a missing date.
func (d Date) Display() string {
	if d.IsZero() {
		return "None"
	}
	return d.String()
}

func (d Date) Time() time.Time {
	return d.t
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null, "" (both meaning no date) or YYYY-MM-DD.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("due date must be a string or null: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}
