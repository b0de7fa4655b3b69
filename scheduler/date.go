package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the textual layout of dates on the command line (MM-DD-YYYY).
const DateLayout = "01-02-2006"

// Date is a calendar date without time of day or zone.
// The zero value is not a valid date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a hyphenated MM-DD-YYYY date.
// Single digit months and days are accepted, impossible dates (e.g. 02-30-2024) are rejected.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: date %q is not in MM-DD-YYYY format", ErrInvalidInput, s)
	}

	nums := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, errors.Join(fmt.Errorf("%w: date %q is not in MM-DD-YYYY format", ErrInvalidInput, s), err)
		}

		nums[i] = n
	}

	month, day, year := nums[0], nums[1], nums[2]
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return Date{}, fmt.Errorf("%w: date %q is not a calendar date", ErrInvalidInput, s)
	}

	d := Date{Year: year, Month: time.Month(month), Day: day}
	if DateFromTime(d.Time()) != d {
		return Date{}, fmt.Errorf("%w: date %q is not a calendar date", ErrInvalidInput, s)
	}

	return d, nil
}

// DateFromTime returns the calendar date of t in t's location.
func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d lies before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// String formats the date as MM-DD-YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", int(d.Month), d.Day, d.Year)
}
