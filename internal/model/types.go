package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and input format of due dates.
const DateLayout = "2006-01-02"

// ID is an identifier assigned by the remote authority. The client treats it
// as opaque and never generates one. It remembers whether the server sent it
// as a JSON number or a JSON string and writes it back the same way.
type ID struct {
	text string
	num  bool
}

// StringID returns an id written on the wire as a JSON string.
func StringID(s string) ID { return ID{text: s} }

// NumericID returns an id written on the wire as a JSON number. s must be a
// valid JSON number literal.
func NumericID(s string) ID { return ID{text: s, num: true} }

func (id ID) String() string { return id.text }

func (id ID) IsZero() bool { return id.text == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case id.text == "":
		return []byte("null"), nil
	case id.num:
		return []byte(id.text), nil
	}
	return json.Marshal(id.text)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*id = ID{}
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = StringID(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid id %s", s)
		}
		*id = NumericID(n.String())
	}
	return nil
}

// Date is an optional calendar date. The zero value means "no date".
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate returns the date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD or RFC3339. Blank input yields an unset date.
func ParseDate(v string) (Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Date{}, nil
	}
	if t, err := time.ParseInLocation(DateLayout, v, time.UTC); err == nil {
		return Date{Time: t, Valid: true}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return Date{Time: t, Valid: true}, nil
}

func (d Date) IsZero() bool { return !d.Valid }

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// Before reports whether the date is set and strictly before t.
func (d Date) Before(t time.Time) bool {
	return d.Valid && d.Time.Before(t)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
