package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/sabarisastha/annadanam/internal/clock"
	"github.com/sabarisastha/annadanam/internal/eligibility"
)

// Booking holds the allocator rules: reference timezone, capacities,
// season boundaries, extra dates and the per-group booking windows.
type Booking struct {
	TimeZone        string
	Location        *time.Location
	SessionCapacity int
	GroupCap        int
	Season          eligibility.SeasonRule
	ExtraDates      []eligibility.Date
	Windows         map[eligibility.Group]eligibility.Window
	ReserveAttempts int
}

// LoadBooking reads the BOOKING_* variables. Unset variables take the
// defaults of the Sabarimala season; malformed ones are errors.
func LoadBooking() (Booking, error) {
	b := Booking{TimeZone: envStr("BOOKING_TIMEZONE", "Asia/Kolkata")}

	var err error
	if b.SessionCapacity, err = envIntStrict("BOOKING_SESSION_CAPACITY", 40); err != nil {
		return Booking{}, err
	}
	if b.GroupCap, err = envIntStrict("BOOKING_GROUP_CAP", 150); err != nil {
		return Booking{}, err
	}
	if b.ReserveAttempts, err = envIntStrict("BOOKING_RESERVE_ATTEMPTS", 3); err != nil {
		return Booking{}, err
	}

	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return Booking{}, fmt.Errorf("BOOKING_TIMEZONE: %w", err)
	}
	b.Location = loc

	if b.SessionCapacity < 1 {
		return Booking{}, fmt.Errorf("BOOKING_SESSION_CAPACITY must be positive, got %d", b.SessionCapacity)
	}
	if b.GroupCap < 1 {
		return Booking{}, fmt.Errorf("BOOKING_GROUP_CAP must be positive, got %d", b.GroupCap)
	}
	if b.ReserveAttempts < 1 {
		b.ReserveAttempts = 1
	}

	start, err := eligibility.ParseMonthDay(envStr("BOOKING_SEASON_START", "11-05"))
	if err != nil {
		return Booking{}, fmt.Errorf("BOOKING_SEASON_START: %w", err)
	}
	end, err := eligibility.ParseMonthDay(envStr("BOOKING_SEASON_END", "01-07"))
	if err != nil {
		return Booking{}, fmt.Errorf("BOOKING_SEASON_END: %w", err)
	}
	b.Season = eligibility.SeasonRule{Start: start, End: end}

	extra := "2025-10-31,2025-11-04"
	if v, ok := os.LookupEnv("BOOKING_EXTRA_DATES"); ok {
		extra = v
	}
	for _, s := range splitList(extra) {
		d, err := eligibility.ParseDate(s)
		if err != nil {
			return Booking{}, fmt.Errorf("BOOKING_EXTRA_DATES: %w", err)
		}
		b.ExtraDates = append(b.ExtraDates, d)
	}

	b.Windows = make(map[eligibility.Group]eligibility.Window, len(eligibility.DefaultWindows))
	for g, def := range eligibility.DefaultWindows {
		key := "BOOKING_WINDOW_" + strings.ToUpper(string(g))
		w := def
		if v := os.Getenv(key); v != "" {
			if w, err = eligibility.ParseWindow(v); err != nil {
				return Booking{}, fmt.Errorf("%s: %w", key, err)
			}
		}
		b.Windows[g] = w
	}
	return b, nil
}

// envIntStrict is envInt for values that bound capacity: a set but
// unparsable value is an error instead of the default.
func envIntStrict(k string, d int) (int, error) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", k, v)
	}
	return n, nil
}

// Catalogue returns the default sessions with the configured windows.
func (b Booking) Catalogue() (*eligibility.Catalogue, error) {
	return eligibility.NewCatalogue(eligibility.DefaultSessions, b.Windows)
}

// Engine builds the eligibility engine for these rules.
func (b Booking) Engine(c clock.Clock) (*eligibility.Engine, error) {
	cat, err := b.Catalogue()
	if err != nil {
		return nil, err
	}
	cal := eligibility.NewCalendar(b.Season, b.ExtraDates)
	return eligibility.NewEngine(c, b.Location, cal, cat), nil
}
