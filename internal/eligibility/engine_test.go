package eligibility

import (
	"errors"
	"testing"
	"time"

	"github.com/sabarisastha/annadanam/internal/clock"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func newTestEngine(now time.Time) (*Engine, *clock.FakeClock) {
	c := clock.Fake(now)
	cal := NewCalendar(DefaultSeasonRule, []Date{NewDate(2025, time.October, 31), NewDate(2025, time.November, 4)})
	return NewEngine(c, ist, cal, DefaultCatalogue()), c
}

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, ist)
}

func TestEngineCheck(t *testing.T) {
	dec1 := NewDate(2025, time.December, 1)
	cases := []struct {
		name    string
		now     time.Time
		date    Date
		session string
		want    error
	}{
		{"afternoon inside window", at(2025, 12, 1, 9, 0, 0), dec1, "1:00 PM - 1:30 PM", nil},
		{"afternoon window opens inclusive", at(2025, 12, 1, 5, 0, 0), dec1, "2:30 PM - 3:00 PM", nil},
		{"afternoon window close minute inclusive", at(2025, 12, 1, 11, 30, 59), dec1, "1:00 PM - 1:30 PM", nil},
		{"afternoon before window", at(2025, 12, 1, 4, 59, 0), dec1, "1:00 PM - 1:30 PM", ErrOutsideWindow},
		{"afternoon after window", at(2025, 12, 1, 11, 31, 0), dec1, "1:00 PM - 1:30 PM", ErrOutsideWindow},
		{"after session start", at(2025, 12, 1, 13, 0, 1), dec1, "1:00 PM - 1:30 PM", ErrOutsideWindow},
		{"evening inside window", at(2025, 12, 1, 19, 30, 0), dec1, "9:30 PM - 10:00 PM", nil},
		{"evening during afternoon window", at(2025, 12, 1, 9, 0, 0), dec1, "8:00 PM - 8:30 PM", ErrOutsideWindow},
		{"future date uses today's window", at(2025, 12, 1, 9, 0, 0), NewDate(2025, 12, 20), "1:30 PM - 2:00 PM", nil},
		{"future date outside today's window", at(2025, 12, 1, 12, 0, 0), NewDate(2025, 12, 20), "1:30 PM - 2:00 PM", ErrOutsideWindow},
		{"past date has started", at(2025, 12, 1, 9, 0, 0), NewDate(2025, 11, 30), "1:00 PM - 1:30 PM", ErrSessionStarted},
		{"out of season", at(2024, 6, 15, 9, 0, 0), NewDate(2024, 6, 15), "1:00 PM - 1:30 PM", ErrOutOfSeason},
		{"extra date", at(2025, 10, 31, 9, 0, 0), NewDate(2025, 10, 31), "1:00 PM - 1:30 PM", nil},
		{"unknown session", at(2025, 12, 1, 9, 0, 0), dec1, "noon", ErrUnknownSession},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(tc.now)
			err := e.Check(tc.date, tc.session)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Check = %v, want %v", err, tc.want)
			}
			if got := e.Bookable(tc.date, tc.session); got != (tc.want == nil) {
				t.Fatalf("Bookable = %v", got)
			}
		})
	}
}

func TestEngineUsesReferenceZoneNotCaller(t *testing.T) {
	// 03:30 UTC is 09:00 IST: inside the afternoon window even though the
	// caller's clock reads an early-morning UTC time.
	e, c := newTestEngine(time.Date(2025, time.December, 1, 3, 30, 0, 0, time.UTC))
	if err := e.Check(NewDate(2025, 12, 1), "1:00 PM - 1:30 PM"); err != nil {
		t.Fatalf("Check = %v, want nil", err)
	}
	// 23:00 UTC Nov 30 is 04:30 IST Dec 1: before the window opens.
	c.Set(time.Date(2025, time.November, 30, 23, 0, 0, 0, time.UTC))
	if err := e.Check(NewDate(2025, 12, 1), "1:00 PM - 1:30 PM"); !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("Check = %v, want ErrOutsideWindow", err)
	}
	if got := e.Today().String(); got != "2025-12-01" {
		t.Fatalf("Today = %s", got)
	}
}

func TestEngineSessionStartedWithinWindow(t *testing.T) {
	sessions := []Session{{Label: "brunch", Group: GroupAfternoon, Start: TimeOfDay{10, 0}, End: TimeOfDay{10, 30}}}
	cat, err := NewCatalogue(sessions, DefaultWindows)
	if err != nil {
		t.Fatal(err)
	}
	c := clock.Fake(at(2025, 12, 1, 9, 59, 0))
	e := NewEngine(c, ist, NewCalendar(DefaultSeasonRule, nil), cat)
	d := NewDate(2025, 12, 1)
	if err := e.Check(d, "brunch"); err != nil {
		t.Fatalf("before start: %v", err)
	}
	c.Advance(time.Minute)
	if err := e.Check(d, "brunch"); !errors.Is(err, ErrSessionStarted) {
		t.Fatalf("at start: %v, want ErrSessionStarted", err)
	}
}
