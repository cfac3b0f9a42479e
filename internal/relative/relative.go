// Package relative turns relative and lightly natural date phrases into
// calendar dates anchored at a supplied "now".
package relative

import (
	"strconv"
	"strings"
	"time"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/patterns"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday looks up an English weekday name, case-insensitively.
func Weekday(name string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// NextWeekday returns the next occurrence of wd strictly after today:
// asking for the current weekday yields a date seven days out.
func NextWeekday(today calendar.Date, wd time.Weekday) calendar.Date {
	diff := (int(wd) - int(today.Weekday()) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return today.AddDays(diff)
}

// Parse interprets s relative to now. It understands today, tomorrow,
// yesterday, now, signed offsets such as +2d or -1w, bare weekday names,
// "next|last|this <weekday>" and "next|last week|month".
func Parse(s string, now time.Time) (calendar.Date, bool) {
	if d, ok := ParseRelative(s, now); ok {
		return d, true
	}
	return ParseNatural(s, now)
}

// ParseRelative handles the keyword and signed-offset forms.
func ParseRelative(s string, now time.Time) (calendar.Date, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	today := calendar.Today(now)

	switch v {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDays(1), true
	case "yesterday":
		return today.AddDays(-1), true
	case "now":
		return calendar.FromTime(now), true
	}

	m := patterns.RelativeOffset.FindStringSubmatch(v)
	if m == nil {
		return calendar.Date{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return calendar.Date{}, false
	}
	if m[1] == "-" {
		n = -n
	}
	switch m[3] {
	case "d":
		return today.AddDays(n), true
	case "w":
		return today.AddDays(7 * n), true
	case "m":
		return today.AddMonths(n), true
	case "y":
		return today.AddYears(n), true
	}
	return calendar.Date{}, false
}

// ParseNatural handles weekday names and next/last week or month.
//
// "this <weekday>" is the occurrence within the next seven days including
// today, "next <weekday>" and a bare weekday are strictly in the future, and
// "last <weekday>" is strictly in the past.
func ParseNatural(s string, now time.Time) (calendar.Date, bool) {
	v := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	today := calendar.Today(now)

	if m := patterns.NaturalWeekday.FindStringSubmatch(v); m != nil {
		wd := weekdays[m[2]]
		switch m[1] {
		case "", "next":
			return NextWeekday(today, wd), true
		case "this":
			diff := (int(wd) - int(today.Weekday()) + 7) % 7
			return today.AddDays(diff), true
		case "last":
			diff := (int(today.Weekday()) - int(wd) + 7) % 7
			if diff == 0 {
				diff = 7
			}
			return today.AddDays(-diff), true
		}
	}

	if m := patterns.NaturalPeriod.FindStringSubmatch(v); m != nil {
		sign := 1
		if m[1] == "last" {
			sign = -1
		}
		if m[2] == "week" {
			return today.AddDays(7 * sign), true
		}
		return today.AddMonths(sign), true
	}

	return calendar.Date{}, false
}
