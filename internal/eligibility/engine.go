// Package eligibility decides whether a (date, session) pair may be booked
// at a given instant. Everything here is pure: the current time comes from
// an injected clock and all wall-clock arithmetic happens in one fixed
// reference location, never the caller's.
package eligibility

import (
	"errors"
	"time"

	"github.com/sabarisastha/annadanam/internal/clock"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrOutOfSeason    = errors.New("date is outside the booking season")
	ErrOutsideWindow  = errors.New("booking window is closed")
	ErrSessionStarted = errors.New("session has already started")
)

// Engine evaluates booking eligibility.
type Engine struct {
	clock    clock.Clock
	loc      *time.Location
	calendar *Calendar
	sessions *Catalogue
}

// NewEngine wires an Engine. loc is the reference timezone.
func NewEngine(c clock.Clock, loc *time.Location, cal *Calendar, sessions *Catalogue) *Engine {
	if c == nil || loc == nil || cal == nil || sessions == nil {
		panic("nil dependency passed to eligibility.NewEngine")
	}
	return &Engine{clock: c, loc: loc, calendar: cal, sessions: sessions}
}

// Now returns the current instant in the reference location.
func (e *Engine) Now() time.Time { return e.clock.Now().In(e.loc) }

// Today returns the current reference-time date.
func (e *Engine) Today() Date { return DateOf(e.clock.Now(), e.loc) }

func (e *Engine) Location() *time.Location { return e.loc }
func (e *Engine) Calendar() *Calendar      { return e.calendar }
func (e *Engine) Sessions() *Catalogue     { return e.sessions }

// Check reports why (date, label) is not bookable right now, or nil.
func (e *Engine) Check(date Date, label string) error {
	return e.CheckAt(e.clock.Now(), date, label)
}

// CheckAt is Check evaluated at now.
//
// The time-of-day window is applied to now regardless of which date is
// requested, so a future date can only be booked while today's window for
// its group is open.
func (e *Engine) CheckAt(now time.Time, date Date, label string) error {
	s, ok := e.sessions.Lookup(label)
	if !ok {
		return ErrUnknownSession
	}
	now = now.In(e.loc)
	if !e.calendar.Contains(date, DateOf(now, e.loc)) {
		return ErrOutOfSeason
	}
	w, ok := e.sessions.Window(s.Group)
	if !ok || !w.Contains(now) {
		return ErrOutsideWindow
	}
	if !now.Before(date.At(s.Start.Hour, s.Start.Minute, e.loc)) {
		return ErrSessionStarted
	}
	return nil
}

// Bookable reports whether (date, label) passes Check.
func (e *Engine) Bookable(date Date, label string) bool {
	return e.Check(date, label) == nil
}
