package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata" // exchange zones must resolve on hosts without zoneinfo
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "15:04:05"
)

// Clock converts wall-clock instants into exchange-local dates, row
// timestamps and trading-session membership.
type Clock struct {
	loc   *time.Location
	open  time.Duration // offset from local midnight
	close time.Duration
}

// NewClock builds a clock for the named IANA zone with a daily session from
// open to close, both "HH:MM" in exchange-local time.
func NewClock(timezone, open, close string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	o, err := parseClockTime(open)
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	c, err := parseClockTime(close)
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}
	if c <= o {
		return nil, fmt.Errorf("market close %s is not after open %s", close, open)
	}
	return &Clock{loc: loc, open: o, close: c}, nil
}

func parseClockTime(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Location returns the exchange time zone.
func (c *Clock) Location() *time.Location { return c.loc }

// Local converts t to exchange-local time.
func (c *Clock) Local(t time.Time) time.Time { return t.In(c.loc) }

// DateKey returns the exchange-local calendar date of t as YYYY-MM-DD.
func (c *Clock) DateKey(t time.Time) string { return t.In(c.loc).Format(dateLayout) }

// Timestamp formats t as the HH:MM:SS row label in exchange-local time.
func (c *Clock) Timestamp(t time.Time) string { return t.In(c.loc).Format(timestampLayout) }

// InTradingHours reports whether t falls on a weekday inside [open, close).
func (c *Clock) InTradingHours(t time.Time) bool {
	local := t.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	midnight := startOfDay(local)
	offset := local.Sub(midnight)
	return offset >= c.open && offset < c.close
}

// NextMidnight returns the next exchange-local midnight strictly after t.
func (c *Clock) NextMidnight(t time.Time) time.Time {
	local := t.In(c.loc)
	return startOfDay(local).AddDate(0, 0, 1)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
