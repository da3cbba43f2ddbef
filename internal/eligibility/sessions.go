package eligibility

import (
	"errors"
	"fmt"
	"time"
)

// Group is a family of sessions sharing a booking window and a group cap.
type Group string

const (
	GroupAfternoon Group = "afternoon"
	GroupEvening   Group = "evening"
)

// ParseGroup validates a group name.
func ParseGroup(s string) (Group, error) {
	switch g := Group(s); g {
	case GroupAfternoon, GroupEvening:
		return g, nil
	}
	return "", fmt.Errorf("unknown session group %q", s)
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an HH:MM value.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// MarshalText encodes t as HH:MM.
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Window is an inclusive time-of-day range, evaluated at minute resolution.
type Window struct {
	Open  TimeOfDay `json:"open"`
	Close TimeOfDay `json:"close"`
}

// ParseWindow parses an "HH:MM-HH:MM" value.
func ParseWindow(s string) (Window, error) {
	if len(s) != len("05:00-11:30") || s[5] != '-' {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	open, err := ParseTimeOfDay(s[:5])
	if err != nil {
		return Window{}, err
	}
	closeAt, err := ParseTimeOfDay(s[6:])
	if err != nil {
		return Window{}, err
	}
	if closeAt.Minutes() < open.Minutes() {
		return Window{}, fmt.Errorf("window %q closes before it opens", s)
	}
	return Window{Open: open, Close: closeAt}, nil
}

// Contains reports whether the wall-clock minute of t lies in the window.
func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.Open.Minutes() && m <= w.Close.Minutes()
}

func (w Window) String() string { return w.Open.String() + "-" + w.Close.String() }

// Session is one fixed meal-service slot. Label is its natural key.
type Session struct {
	Label string    `json:"label"`
	Group Group     `json:"group"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Catalogue is the static session configuration.
type Catalogue struct {
	sessions []Session
	byLabel  map[string]Session
	windows  map[Group]Window
	groups   []Group
}

// NewCatalogue validates and indexes sessions. Labels must be unique and
// every group that has sessions needs a booking window.
func NewCatalogue(sessions []Session, windows map[Group]Window) (*Catalogue, error) {
	if len(sessions) == 0 {
		return nil, errors.New("session catalogue is empty")
	}
	c := &Catalogue{
		byLabel: make(map[string]Session, len(sessions)),
		windows: make(map[Group]Window, len(windows)),
	}
	for g, w := range windows {
		c.windows[g] = w
	}
	seenGroup := make(map[Group]bool)
	for _, s := range sessions {
		if s.Label == "" {
			return nil, errors.New("session label is empty")
		}
		if _, dup := c.byLabel[s.Label]; dup {
			return nil, fmt.Errorf("duplicate session label %q", s.Label)
		}
		if _, ok := c.windows[s.Group]; !ok {
			return nil, fmt.Errorf("no booking window for group %q", s.Group)
		}
		if s.End.Minutes() <= s.Start.Minutes() {
			return nil, fmt.Errorf("session %q ends before it starts", s.Label)
		}
		c.byLabel[s.Label] = s
		c.sessions = append(c.sessions, s)
		if !seenGroup[s.Group] {
			seenGroup[s.Group] = true
			c.groups = append(c.groups, s.Group)
		}
	}
	return c, nil
}

// DefaultWindows are the reference-time booking windows per group.
var DefaultWindows = map[Group]Window{
	GroupAfternoon: {Open: TimeOfDay{5, 0}, Close: TimeOfDay{11, 30}},
	GroupEvening:   {Open: TimeOfDay{15, 0}, Close: TimeOfDay{19, 30}},
}

// DefaultSessions lists the afternoon and evening half-hour sessions.
var DefaultSessions = []Session{
	{Label: "1:00 PM - 1:30 PM", Group: GroupAfternoon, Start: TimeOfDay{13, 0}, End: TimeOfDay{13, 30}},
	{Label: "1:30 PM - 2:00 PM", Group: GroupAfternoon, Start: TimeOfDay{13, 30}, End: TimeOfDay{14, 0}},
	{Label: "2:00 PM - 2:30 PM", Group: GroupAfternoon, Start: TimeOfDay{14, 0}, End: TimeOfDay{14, 30}},
	{Label: "2:30 PM - 3:00 PM", Group: GroupAfternoon, Start: TimeOfDay{14, 30}, End: TimeOfDay{15, 0}},
	{Label: "8:00 PM - 8:30 PM", Group: GroupEvening, Start: TimeOfDay{20, 0}, End: TimeOfDay{20, 30}},
	{Label: "8:30 PM - 9:00 PM", Group: GroupEvening, Start: TimeOfDay{20, 30}, End: TimeOfDay{21, 0}},
	{Label: "9:00 PM - 9:30 PM", Group: GroupEvening, Start: TimeOfDay{21, 0}, End: TimeOfDay{21, 30}},
	{Label: "9:30 PM - 10:00 PM", Group: GroupEvening, Start: TimeOfDay{21, 30}, End: TimeOfDay{22, 0}},
}

// DefaultCatalogue returns DefaultSessions with DefaultWindows.
func DefaultCatalogue() *Catalogue {
	c, err := NewCatalogue(DefaultSessions, DefaultWindows)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a session by label.
func (c *Catalogue) Lookup(label string) (Session, bool) {
	s, ok := c.byLabel[label]
	return s, ok
}

// Sessions returns every session in configuration order.
func (c *Catalogue) Sessions() []Session {
	out := make([]Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Groups returns the groups in the order they first appear.
func (c *Catalogue) Groups() []Group {
	out := make([]Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Labels returns the labels of the sessions in g.
func (c *Catalogue) Labels(g Group) []string {
	var out []string
	for _, s := range c.sessions {
		if s.Group == g {
			out = append(out, s.Label)
		}
	}
	return out
}

// Window returns the booking window of g.
func (c *Catalogue) Window(g Group) (Window, bool) {
	w, ok := c.windows[g]
	return w, ok
}
