// Package dailynote extracts the calendar date encoded in a daily-note file
// name or path. Extraction is pure: no file is touched.
package dailynote

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/starford/dayfinder/internal/calendar"
	"github.com/starford/dayfinder/internal/patterns"
)

// Plausibility bounds. Archival vaults reach back a long way, so the range is wide.
var (
	minDate = calendar.MustNew(1900, time.January, 1)
	maxDate = calendar.MustNew(2100, time.December, 31)
)

// Match describes a successful extraction.
type Match struct {
	Date calendar.Date
	// Pattern is the name of the shape that matched.
	Pattern string
	// FromFileName is false when the date came from a directory component.
	FromFileName bool
	// InDailyFolder reports whether the parent directory looks like a
	// daily-note location.
	InDailyFolder bool
	// WholeName reports whether the file name is nothing but the date.
	WholeName bool
}

// IsDailyNote reports whether the file is confidently a daily note rather
// than a note that merely mentions a date in its name.
func (m Match) IsDailyNote() bool {
	return m.FromFileName && (m.WholeName || m.InDailyFolder)
}

// Extractor applies the daily-note pattern table.
type Extractor struct {
	// PreferEuropean reads an ambiguous N/N/YYYY as day/month/year.
	PreferEuropean bool
}

// New creates an Extractor.
func New(preferEuropean bool) *Extractor {
	return &Extractor{PreferEuropean: preferEuropean}
}

// Extract returns the date encoded in filePath, if any.
func (e *Extractor) Extract(filePath string) (calendar.Date, bool) {
	m, ok := e.Analyze(filePath)
	return m.Date, ok
}

// Analyze is Extract with details about where and how the date was found.
func (e *Extractor) Analyze(filePath string) (Match, bool) {
	p := strings.ReplaceAll(filePath, "\\", "/")
	base := path.Base(p)
	fileName := strings.TrimSuffix(base, path.Ext(base))
	folder := path.Dir(p)
	inDaily := IsDailyNoteFolder(folder)

	targets := []struct {
		s        string
		fileName bool
	}{
		{fileName, true},
		{p, false},
	}
	for _, target := range targets {
		for _, pat := range patterns.DailyNotePatterns {
			idx := pat.Re.FindStringSubmatchIndex(target.s)
			if idx == nil {
				continue
			}
			groups := make([]string, 0, len(idx)/2-1)
			for i := 2; i < len(idx); i += 2 {
				groups = append(groups, target.s[idx[i]:idx[i+1]])
			}
			d, ok := e.build(pat.Order, groups)
			if !ok {
				return Match{}, false
			}
			return Match{
				Date:          d,
				Pattern:       pat.Name,
				FromFileName:  target.fileName,
				InDailyFolder: inDaily,
				WholeName:     target.fileName && idx[2] == 0 && idx[len(idx)-1] == len(target.s),
			}, true
		}
	}
	return Match{}, false
}

// IsDailyNoteFolder classifies a directory path as a daily-note location.
func IsDailyNoteFolder(folder string) bool {
	folder = strings.ReplaceAll(folder, "\\", "/")
	for _, re := range patterns.DailyNoteFolders {
		if re.MatchString(folder) {
			return true
		}
	}
	return false
}

func (e *Extractor) build(order patterns.Order, g []string) (calendar.Date, bool) {
	n := make([]int, 0, len(g))
	for _, s := range g {
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return calendar.Date{}, false
		}
		n = append(n, v)
	}

	var year, month, day int
	switch order {
	case patterns.YMD:
		year, month, day = n[0], n[1], n[2]
	case patterns.MDY:
		month, day, year = n[0], n[1], n[2]
	case patterns.DMY:
		day, month, year = n[0], n[1], n[2]
	case patterns.SlashAmbiguous:
		month, day, year = n[0], n[1], n[2]
		if e.dayFirst(n[0], n[1]) {
			day, month = n[0], n[1]
		}
	case patterns.Monthly:
		year, month, day = n[0], n[1], 1
	case patterns.ISOWeek:
		d, err := ISOWeekStart(n[0], n[1])
		if err != nil || !d.InRange(minDate, maxDate) {
			return calendar.Date{}, false
		}
		return d, true
	default:
		return calendar.Date{}, false
	}
	return validate(year, month, day)
}

// dayFirst decides the ambiguous slash form. A component above 12 can only
// be a day; otherwise the configured preference decides.
func (e *Extractor) dayFirst(a, b int) bool {
	switch {
	case a > 12 && b <= 12:
		return true
	case b > 12 && a <= 12:
		return false
	}
	return e.PreferEuropean
}

func validate(year, month, day int) (calendar.Date, bool) {
	d, err := calendar.New(year, time.Month(month), day)
	if err != nil {
		return calendar.Date{}, false
	}
	if !d.InRange(minDate, maxDate) {
		return calendar.Date{}, false
	}
	return d, true
}

// ISOWeekStart returns the Monday of ISO week `week` of `year`. Week 1 is
// the week containing January 4th.
func ISOWeekStart(year, week int) (calendar.Date, error) {
	if week < 1 || week > 53 {
		return calendar.Date{}, fmt.Errorf("%w: week %d", calendar.ErrInvalidDate, week)
	}
	jan4, err := calendar.New(year, time.January, 4)
	if err != nil {
		return calendar.Date{}, err
	}
	// Days back from January 4th to its Monday (Sunday counts as day 7).
	back := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDays(-back)
	return week1.AddDays((week - 1) * 7), nil
}

var defaultExtractor = New(false)

// Extract runs the default (month-first) extractor.
func Extract(filePath string) (calendar.Date, bool) {
	return defaultExtractor.Extract(filePath)
}
