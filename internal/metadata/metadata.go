// Package metadata finds a note's date in its frontmatter.
package metadata

import (
	"math"
	"strings"
	"time"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/patterns"
	"github.com/starford/dayfinder/internal/relative"
)

// Plausibility window, measured from "now".
const (
	maxPastYears        = 5
	maxArchivalPastYear = 10
	maxFutureYears      = 2
)

// Match is a date together with the property that supplied it.
type Match struct {
	Date     calendar.Date
	Property string
}

// Extractor reads frontmatter maps. It is safe for concurrent use.
type Extractor struct {
	now func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source used for relative dates and plausibility.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the highest-priority plausible date in fm.
func (e *Extractor) Extract(fm map[string]any) (calendar.Date, bool) {
	m, ok := e.Find(fm)
	return m.Date, ok
}

// Find is Extract that also reports which property won.
//
// Top-level properties are tried in table order; a present property whose
// value cannot be parsed, or parses to an implausible date, yields to the
// next one. Nested Dataview and Templater shapes are probed last.
func (e *Extractor) Find(fm map[string]any) (Match, bool) {
	if len(fm) == 0 {
		return Match{}, false
	}
	now := e.now()

	for _, prop := range patterns.MetadataProperties {
		v, ok := fm[prop]
		if !ok || v == nil {
			continue
		}
		if d, ok := e.parseValue(v, now); ok && plausible(d, prop, now) {
			return Match{Date: d, Property: prop}, true
		}
	}

	for _, p := range patterns.NestedMetadataPaths {
		v, ok := lookup(fm, p)
		if !ok || v == nil {
			continue
		}
		if d, ok := e.parseValue(v, now); ok && plausible(d, p, now) {
			return Match{Date: d, Property: p}, true
		}
	}

	return Match{}, false
}

// lookup resolves a dotted path, first as a literal key and then by
// descending into nested maps.
func lookup(fm map[string]any, dotted string) (any, bool) {
	if v, ok := fm[dotted]; ok {
		return v, true
	}
	var cur any = fm
	for _, part := range strings.Split(dotted, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[any]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// parseValue narrows a weakly typed frontmatter value.
func (e *Extractor) parseValue(v any, now time.Time) (calendar.Date, bool) {
	switch x := v.(type) {
	case calendar.Date:
		return x, !x.IsZero()
	case time.Time:
		if x.IsZero() {
			return calendar.Date{}, false
		}
		return calendar.FromTime(x), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return calendar.Date{}, false
		}
		return calendar.FromTime(*x), true
	case int:
		return fromMillis(float64(x))
	case int64:
		return fromMillis(float64(x))
	case uint64:
		return fromMillis(float64(x))
	case float64:
		return fromMillis(x)
	case string:
		return ParseString(x, now)
	}
	return calendar.Date{}, false
}

func fromMillis(ms float64) (calendar.Date, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return calendar.Date{}, false
	}
	return calendar.FromTime(time.UnixMilli(int64(ms))), true
}

// ParseString interprets a frontmatter string: relative forms, natural
// weekday and period phrases, the explicit layout table, RFC 3339, and
// finally a handful of spelled-out month formats.
func ParseString(s string, now time.Time) (calendar.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return calendar.Date{}, false
	}
	if d, ok := relative.ParseRelative(s, now); ok {
		return d, true
	}
	if d, ok := relative.ParseNatural(s, now); ok {
		return d, true
	}
	for _, layout := range patterns.MetadataLayouts {
		if d, err := calendar.ParseLayout(layout, s); err == nil {
			return d, true
		}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.FromTime(t), true
		}
	}
	for _, layout := range patterns.LocaleLayouts {
		if d, err := calendar.ParseLayout(layout, s); err == nil {
			return d, true
		}
	}
	return calendar.Date{}, false
}

// plausible rejects dates too far from now. Archival-looking property names
// get a longer look-back.
func plausible(d calendar.Date, prop string, now time.Time) bool {
	today := calendar.Today(now)
	past := maxPastYears
	if patterns.ArchivalProperty.MatchString(prop) {
		past = maxArchivalPastYear
	}
	return d.DateOnly().InRange(today.AddYears(-past), today.AddYears(maxFutureYears))
}
