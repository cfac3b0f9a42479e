// Package calendar provides a timezone-naive calendar date with validated construction.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when components do not form a real Gregorian date.
var ErrInvalidDate = errors.New("invalid calendar date")

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Date is a local-calendar day with an optional wall-clock time.
// The zero value is not a valid date; use IsZero to detect it.
type Date struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// New returns the date for year/month/day, rejecting impossible combinations
// such as February 30 instead of rolling them into the next month.
func New(year int, month time.Month, day int) (Date, error) {
	return NewDateTime(year, month, day, 0, 0, 0)
}

// NewDateTime is like New but also sets the time of day.
func NewDateTime(year int, month time.Month, day, hour, minute, second int) (Date, error) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return Date{}, fmt.Errorf("%w: time %02d:%02d:%02d", ErrInvalidDate, hour, minute, second)
	}
	t := time.Date(year, month, day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return Date{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second}, nil
}

// MustNew is New for constants in tests and tables. It panics on invalid input.
func MustNew(year int, month time.Month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime takes the local calendar components of t.
func FromTime(t time.Time) Date {
	return components(t.Local())
}

// components reads the wall-clock fields of t in its own zone.
func components(t time.Time) Date {
	return Date{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Today returns the date-only part of now.
func Today(now time.Time) Date {
	return FromTime(now).DateOnly()
}

// Time converts d to a time.Time in the local zone. A wall-clock time
// skipped by a DST change maps to the first instant after the gap, so the
// result always falls on d's day.
func (d Date) Time() time.Time {
	t := time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, 0, time.Local)
	if components(t) == d {
		return t
	}
	_, offset := t.Zone()
	_, after := t.Add(24 * time.Hour).Zone()
	if after > offset {
		return t.Add(time.Duration(after-offset) * time.Second)
	}
	return t
}

// utc carries d's wall-clock fields in UTC, where every day has every hour.
// All calendar arithmetic goes through it.
func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// DateOnly drops the time of day.
func (d Date) DateOnly() Date {
	return Date{Year: d.Year, Month: d.Month, Day: d.Day}
}

// HasTime reports whether a time of day is set.
func (d Date) HasTime() bool {
	return d.Hour != 0 || d.Minute != 0 || d.Second != 0
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return components(d.utc().AddDate(0, 0, n))
}

// AddMonths returns d shifted by n months. Overflowing days roll forward
// (January 31 plus one month lands in early March).
func (d Date) AddMonths(n int) Date {
	return components(d.utc().AddDate(0, n, 0))
}

// AddYears returns d shifted by n years.
func (d Date) AddYears(n int) Date {
	return components(d.utc().AddDate(n, 0, 0))
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.utc().Weekday()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.utc().Compare(o.utc())
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o denote the same instant.
func (d Date) Equal(o Date) bool { return d.Compare(o) == 0 }

// String formats d as YYYY-MM-DD, appending the time when one is set.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if d.HasTime() {
		return d.utc().Format(dateTimeLayout)
	}
	return d.utc().Format(dateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseLayout reads s with a time package layout. The fields are taken as
// written; no zone is applied.
func ParseLayout(layout, s string) (Date, error) {
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return components(t), nil
}

// Parse reads YYYY-MM-DD or "YYYY-MM-DD HH:MM:SS".
func Parse(s string) (Date, error) {
	for _, layout := range []string{dateLayout, dateTimeLayout} {
		if d, err := ParseLayout(layout, s); err == nil {
			return d, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// InRange reports whether d falls within [lo, hi], both inclusive.
func (d Date) InRange(lo, hi Date) bool {
	return !d.Before(lo) && !d.After(hi)
}
