// Package linescan looks for explicit dates in a task line and its neighbours.
package linescan

import (
	"strconv"
	"time"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/patterns"
	"github.com/starford/dayfinder/internal/relative"
)

// DefaultWindow is how many lines above and below are searched.
const DefaultWindow = 3

// Scanner finds dates in lines of text.
type Scanner struct {
	window int
	now    func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWindow sets the neighbour search radius. Zero disables it.
func WithWindow(n int) Option {
	return func(s *Scanner) {
		if n >= 0 {
			s.window = n
		}
	}
}

// WithClock overrides the time source used for weekday and relative words.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan checks currentLine, then, when allLines and lineNumber are both
// given, the lines within the window around lineNumber in index order.
// lineNumber is a zero-based index into allLines.
func (s *Scanner) Scan(currentLine string, lineNumber *int, allLines []string) (calendar.Date, bool) {
	now := s.now()
	if d, ok := ScanLine(currentLine, now); ok {
		return d, true
	}
	if lineNumber == nil || len(allLines) == 0 {
		return calendar.Date{}, false
	}

	n := *lineNumber
	lo := max(0, n-s.window)
	hi := min(len(allLines)-1, n+s.window)
	for i := lo; i <= hi; i++ {
		if i == n {
			continue
		}
		if d, ok := ScanLine(allLines[i], now); ok {
			return d, true
		}
	}
	return calendar.Date{}, false
}

// ScanLine looks for a literal date, then a relative day word, then a
// weekday name. Weekdays resolve to their next occurrence after today.
func ScanLine(line string, now time.Time) (calendar.Date, bool) {
	if line == "" {
		return calendar.Date{}, false
	}
	for _, p := range patterns.LineDatePatterns {
		for _, m := range p.Re.FindAllStringSubmatch(line, -1) {
			if d, ok := build(p.Order, m[1:]); ok {
				return d, true
			}
		}
	}
	if m := patterns.LineRelative.FindStringSubmatch(line); m != nil {
		if d, ok := relative.ParseRelative(m[1], now); ok {
			return d, true
		}
	}
	if m := patterns.LineWeekday.FindStringSubmatch(line); m != nil {
		if wd, ok := relative.Weekday(m[1]); ok {
			return relative.NextWeekday(calendar.Today(now), wd), true
		}
	}
	return calendar.Date{}, false
}

func build(order patterns.Order, g []string) (calendar.Date, bool) {
	var n [3]int
	for i := range n {
		v, err := strconv.Atoi(g[i])
		if err != nil {
			return calendar.Date{}, false
		}
		n[i] = v
	}
	var year, month, day int
	switch order {
	case patterns.YMD:
		year, month, day = n[0], n[1], n[2]
	case patterns.MDY:
		month, day, year = n[0], n[1], n[2]
	case patterns.DMY:
		day, month, year = n[0], n[1], n[2]
	default:
		return calendar.Date{}, false
	}
	d, err := calendar.New(year, time.Month(month), day)
	return d, err == nil
}
