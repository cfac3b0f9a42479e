package dailynote

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dayfinder/internal/calendar"
)

func TestExtract_LeapYears(t *testing.T) {
	d, ok := Extract("2024-02-29.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.February, 29), d)

	_, ok = Extract("2023-02-29.md")
	assert.False(t, ok)

	d, ok = Extract("2000-02-29.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2000, time.February, 29), d)

	_, ok = Extract("1900-02-29.md")
	assert.False(t, ok)
}

func TestExtract_FormatCoverage(t *testing.T) {
	want := calendar.MustNew(2024, time.March, 15)
	for _, name := range []string{
		"2024-03-15.md",
		"2024.03.15.md",
		"2024_03_15.md",
		"20240315.md",
		"03-15-2024.md",
		"15.03.2024.md",
	} {
		got, ok := Extract(name)
		if assert.True(t, ok, name) {
			assert.Equal(t, want, got, name)
		}
	}
}

func TestExtract_MonthlyAndWeekly(t *testing.T) {
	d, ok := Extract("2024-03.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.March, 1), d)

	d, ok = Extract("2024-W11.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.March, 11), d)
	assert.Equal(t, time.Monday, d.Weekday())

	for _, name := range []string{"2024-03-review.md", "2024-03-notes.md", "Monthly/2024-03-summary.md", "2024-03 review.md"} {
		d, ok = Extract(name)
		if assert.True(t, ok, name) {
			assert.Equal(t, calendar.MustNew(2024, time.March, 1), d, name)
		}
	}

	_, ok = Extract("2024-W54.md")
	assert.False(t, ok)
	_, ok = Extract("2024-W00.md")
	assert.False(t, ok)
}

func TestExtract_InvalidRejected(t *testing.T) {
	for _, name := range []string{
		"2024-13-15.md",
		"2024-02-30.md",
		"2024-00-15.md",
		"regular-note.md",
		"2024.md",
		"1899-12-31.md",
		"2101-01-01.md",
	} {
		_, ok := Extract(name)
		assert.False(t, ok, name)
	}
}

func TestExtract_EmbeddedInName(t *testing.T) {
	d, ok := Extract("meeting-2024-03-15-notes.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.March, 15), d)
}

func TestExtract_SlashAmbiguity(t *testing.T) {
	us := New(false)
	eu := New(true)

	d, ok := us.Extract("logs/03/04/2024")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.March, 4), d)

	d, ok = eu.Extract("logs/03/04/2024")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.April, 3), d)

	// A component above 12 settles the order regardless of preference.
	d, ok = us.Extract("logs/15/03/2024")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.March, 15), d)
}

func TestAnalyze_FallsBackToPath(t *testing.T) {
	m, ok := New(false).Analyze("Journal/2024-03/standup.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.March, 1), m.Date)
	assert.False(t, m.FromFileName)
	assert.False(t, m.IsDailyNote())
}

func TestAnalyze_DailyNoteClassification(t *testing.T) {
	cases := []struct {
		path  string
		daily bool
	}{
		{"2024-03-15.md", true},
		{"Daily Notes/2024-03-15.md", true},
		{"journal/standup 2024-03-15.md", true},
		{"projects/meeting-2024-03-15-notes.md", false},
		{"2024/03/review 2024-03-15.md", true},
	}
	for _, c := range cases {
		m, ok := New(false).Analyze(c.path)
		require.True(t, ok, c.path)
		assert.Equal(t, c.daily, m.IsDailyNote(), c.path)
	}
}

func TestIsDailyNoteFolder(t *testing.T) {
	assert.True(t, IsDailyNoteFolder("Daily Notes"))
	assert.True(t, IsDailyNoteFolder("vault/daily-note"))
	assert.True(t, IsDailyNoteFolder("Diary/2024"))
	assert.True(t, IsDailyNoteFolder("work/log"))
	assert.True(t, IsDailyNoteFolder("2024/03"))
	assert.True(t, IsDailyNoteFolder("archive/2024-03"))
	assert.False(t, IsDailyNoteFolder("projects/catalog"))
	assert.False(t, IsDailyNoteFolder("."))
}

func TestISOWeekStart(t *testing.T) {
	// 2021-01-04 is Monday of ISO week 1 of 2021 (Jan 1 2021 was a Friday).
	d, err := ISOWeekStart(2021, 1)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustNew(2021, time.January, 4), d)

	// 2026 week 1 starts in the previous calendar year.
	d, err = ISOWeekStart(2026, 1)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustNew(2025, time.December, 29), d)

	_, err = ISOWeekStart(2024, 0)
	assert.Error(t, err)
}

func TestExtract_RoundTrip(t *testing.T) {
	for _, name := range []string{"2024-01-31.md", "2024-12-31.md", "2024-02-29.md", "01-31-2024.md"} {
		d, ok := Extract(name)
		require.True(t, ok, name)
		back, err := calendar.New(d.Year, d.Month, d.Day)
		require.NoError(t, err)
		assert.Equal(t, d, back)
	}
}

func TestExtract_MidnightDSTGap(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	orig := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = orig })

	// Clocks in Santiago jump from 00:00 to 01:00 on 2024-09-08.
	d, ok := Extract("2024-09-08.md")
	require.True(t, ok)
	assert.Equal(t, calendar.MustNew(2024, time.September, 8), d)

	d, err = ISOWeekStart(2024, 37)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustNew(2024, time.September, 9), d)
}
