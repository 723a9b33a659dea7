package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DeedDate is a nullable calendar date. The zero value is null and is shown as "Nil".
type DeedDate struct {
	t     time.Time
	valid bool
}

// NewDeedDate returns a valid date at UTC midnight
func NewDeedDate(year int, month time.Month, day int) DeedDate {
	return DeedDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// DateOf returns the calendar date of t
func DateOf(t time.Time) DeedDate {
	return NewDeedDate(t.Year(), t.Month(), t.Day())
}

// ParseDeedDate parses yyyy-MM-dd or dd-MM-yyyy. A blank string is the null date.
func ParseDeedDate(s string) (DeedDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DeedDate{}, nil
	}

	for _, layout := range []string{DateLayout, InputDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}

	return DeedDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// IsNull reports whether the date is unset
func (d DeedDate) IsNull() bool {
	return !d.valid
}

// Time returns the date at UTC midnight and whether it is set
func (d DeedDate) Time() (time.Time, bool) {
	return d.t, d.valid
}

// String returns yyyy-MM-dd, or an empty string for the null date
func (d DeedDate) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Display returns yyyy-MM-dd, or "Nil" for the null date
func (d DeedDate) Display() string {
	if !d.valid {
		return NilDate
	}
	return d.String()
}

// Equal reports whether both dates are null or name the same day
func (d DeedDate) Equal(o DeedDate) bool {
	if d.valid != o.valid {
		return false
	}
	return !d.valid || d.String() == o.String()
}

func (d DeedDate) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *DeedDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = DeedDate{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseDeedDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
