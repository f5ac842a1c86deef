package venueclock

import (
	"fmt"
	"time"
)

// Clock resolves instants to the venue's local calendar day. The daily quota
// boundary is midnight at the venue, not midnight UTC and not whatever the
// database session happens to format timestamps as.
type Clock struct {
	loc *time.Location
}

// New loads the venue timezone by IANA name. An empty name falls back to UTC.
func New(tzName string) (*Clock, error) {
	if tzName == "" {
		return &Clock{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid venue timezone %q: %w", tzName, err)
	}
	return &Clock{loc: loc}, nil
}

// DayOf truncates an instant to the venue-local calendar day. The result is a
// date-only value (midnight UTC) suitable for a SQL date parameter.
func (c *Clock) DayOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is DayOf(now).
func (c *Clock) Today() time.Time {
	return c.DayOf(time.Now())
}

func (c *Clock) Location() *time.Location {
	return c.loc
}
