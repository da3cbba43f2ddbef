package eligibility

import (
	"fmt"
	"sort"
	"time"
)

// MonthDay is a recurring yearly date such as Nov 5.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses an MM-DD value.
func ParseMonthDay(s string) (MonthDay, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

func (md MonthDay) in(year int) Date { return NewDate(year, md.Month, md.Day) }

func (md MonthDay) String() string { return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day) }

// Season is an inclusive date range.
type Season struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies within [Start, End].
func (s Season) Contains(d Date) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

// SeasonRule describes a yearly season. When End falls earlier in the
// year than Start the season spans the new year.
type SeasonRule struct {
	Start MonthDay
	End   MonthDay
}

// DefaultSeasonRule is the Nov 5 to Jan 7 Annadanam season.
var DefaultSeasonRule = SeasonRule{
	Start: MonthDay{Month: time.November, Day: 5},
	End:   MonthDay{Month: time.January, Day: 7},
}

func (r SeasonRule) wraps() bool {
	return r.End.in(2001).Before(r.Start.in(2001))
}

// For returns the season that is active on today, or the next upcoming
// one when today falls between seasons.
func (r SeasonRule) For(today Date) Season {
	y := today.Year
	if r.wraps() {
		if !today.After(r.End.in(y)) {
			return Season{Start: r.Start.in(y - 1), End: r.End.in(y)}
		}
		return Season{Start: r.Start.in(y), End: r.End.in(y + 1)}
	}
	if !today.After(r.End.in(y)) {
		return Season{Start: r.Start.in(y), End: r.End.in(y)}
	}
	return Season{Start: r.Start.in(y + 1), End: r.End.in(y + 1)}
}

// Calendar combines the season rule with one-off extra dates that are
// bookable outside the season.
type Calendar struct {
	rule  SeasonRule
	extra map[Date]struct{}
	dates []Date
}

// NewCalendar builds a Calendar. Duplicate extra dates are collapsed.
func NewCalendar(rule SeasonRule, extra []Date) *Calendar {
	c := &Calendar{rule: rule, extra: make(map[Date]struct{}, len(extra))}
	for _, d := range extra {
		if _, ok := c.extra[d]; ok {
			continue
		}
		c.extra[d] = struct{}{}
		c.dates = append(c.dates, d)
	}
	sort.Slice(c.dates, func(i, j int) bool { return c.dates[i].Before(c.dates[j]) })
	return c
}

// Season returns the season relative to today.
func (c *Calendar) Season(today Date) Season { return c.rule.For(today) }

// IsExtra reports whether d is on the extra-dates allow-list.
func (c *Calendar) IsExtra(d Date) bool {
	_, ok := c.extra[d]
	return ok
}

// Contains reports whether d is bookable relative to today: inside the
// season or an extra date.
func (c *Calendar) Contains(d, today Date) bool {
	return c.Season(today).Contains(d) || c.IsExtra(d)
}

// ExtraDates returns the sorted allow-list.
func (c *Calendar) ExtraDates() []Date {
	out := make([]Date, len(c.dates))
	copy(out, c.dates)
	return out
}

// Range returns the navigable date range for today: the season widened to
// cover every extra date.
func (c *Calendar) Range(today Date) (Date, Date) {
	s := c.Season(today)
	from, to := s.Start, s.End
	if len(c.dates) > 0 {
		if first := c.dates[0]; first.Before(from) {
			from = first
		}
		if last := c.dates[len(c.dates)-1]; last.After(to) {
			to = last
		}
	}
	return from, to
}
