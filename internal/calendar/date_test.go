package calendar

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestNew_LeapYears(t *testing.T) {
	cases := []struct {
		year int
		ok   bool
	}{
		{2024, true},
		{2023, false},
		{2000, true},
		{1900, false},
		{2100, false},
	}
	for _, c := range cases {
		_, err := New(c.year, time.February, 29)
		if c.ok && err != nil {
			t.Errorf("New(%d-02-29): unexpected error %v", c.year, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidDate) {
			t.Errorf("New(%d-02-29): err = %v, want ErrInvalidDate", c.year, err)
		}
	}
}

func TestNew_RejectsRollover(t *testing.T) {
	bad := [][3]int{
		{2024, 2, 30},
		{2024, 4, 31},
		{2024, 13, 1},
		{2024, 0, 10},
		{2024, 5, 0},
	}
	for _, b := range bad {
		if _, err := New(b[0], time.Month(b[1]), b[2]); err == nil {
			t.Errorf("New(%v) should fail", b)
		}
	}
}

func TestNewDateTime_RejectsBadClock(t *testing.T) {
	if _, err := NewDateTime(2024, time.March, 15, 24, 0, 0); err == nil {
		t.Error("hour 24 should fail")
	}
	d, err := NewDateTime(2024, time.March, 15, 9, 30, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-03-15 09:30:00" {
		t.Errorf("String() = %q", d.String())
	}
}

func TestAddDays_CrossesMonthAndYear(t *testing.T) {
	d := MustNew(2023, time.December, 31).AddDays(1)
	if d != MustNew(2024, time.January, 1) {
		t.Errorf("got %v", d)
	}
	d = MustNew(2024, time.March, 1).AddDays(-1)
	if d != MustNew(2024, time.February, 29) {
		t.Errorf("got %v", d)
	}
}

func TestCompare(t *testing.T) {
	a := MustNew(2024, time.March, 14)
	b := MustNew(2024, time.March, 15)
	if !a.Before(b) || !b.After(a) || a.Equal(b) {
		t.Error("ordering broken")
	}
	if !a.InRange(a, b) || MustNew(2024, time.March, 16).InRange(a, b) {
		t.Error("InRange broken")
	}
}

func TestTextRoundTrip(t *testing.T) {
	d := MustNew(2024, time.March, 15)
	b, _ := d.MarshalText()
	if string(b) != "2024-03-15" {
		t.Fatalf("MarshalText = %q", b)
	}
	var got Date
	if err := got.UnmarshalText(b); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if got != d {
		t.Errorf("round trip = %v, want %v", got, d)
	}
	if err := got.UnmarshalText([]byte("2024-02-30")); err == nil {
		t.Error("expected error for Feb 30")
	}
}

func TestToday_DropsTime(t *testing.T) {
	now := time.Date(2024, time.March, 15, 18, 45, 0, 0, time.Local)
	if Today(now) != MustNew(2024, time.March, 15) {
		t.Errorf("Today = %v", Today(now))
	}
}

// useZone swaps the process-local zone for the duration of the test.
func useZone(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	orig := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = orig })
}

func TestMidnightDSTGap(t *testing.T) {
	// Clocks in Santiago jump from 00:00 to 01:00 on 2024-09-08.
	useZone(t, "America/Santiago")

	d, err := New(2024, time.September, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := MustNew(2024, time.September, 7).AddDays(1); got != d {
		t.Errorf("AddDays = %s, want %s", got, d)
	}
	if got := MustNew(2024, time.August, 8).AddMonths(1); got != d {
		t.Errorf("AddMonths = %s, want %s", got, d)
	}
	if got := d.AddDays(-1); got != MustNew(2024, time.September, 7) {
		t.Errorf("AddDays(-1) = %s", got)
	}
	if d.Weekday() != time.Sunday {
		t.Errorf("weekday = %s", d.Weekday())
	}
	if p, err := Parse("2024-09-08"); err != nil || p != d {
		t.Errorf("Parse = %s, %v", p, err)
	}
	if d.String() != "2024-09-08" {
		t.Errorf("String = %q", d.String())
	}
	if got := FromTime(d.Time()).DateOnly(); got != d {
		t.Errorf("Time round trip = %s, want %s", got, d)
	}
}

func TestParseLayout(t *testing.T) {
	useZone(t, "America/Santiago")
	d, err := ParseLayout("2006-01-02 15:04", "2024-09-08 00:30")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := NewDateTime(2024, time.September, 8, 0, 30, 0)
	if d != want {
		t.Errorf("got %s, want %s", d, want)
	}
	if _, err := ParseLayout("2006-01-02", "2024-02-30"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("err = %v", err)
	}
}
