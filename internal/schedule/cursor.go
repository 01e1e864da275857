package schedule

import (
	"time"

	"github.com/jinzhu/now"
)

// Cursor points at one calendar week. It is a value; navigation returns a new Cursor.
type Cursor struct {
	date  time.Time
	loc   *time.Location
	clock func() time.Time
}

// NewCursor returns a cursor on the week containing date, evaluated in loc.
// A nil loc means time.Local and a nil clock means time.Now.
func NewCursor(date time.Time, loc *time.Location, clock func() time.Time) Cursor {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	return Cursor{date: date.In(loc), loc: loc, clock: clock}
}

// CurrentWeek returns a cursor on the week containing clock().
func CurrentWeek(loc *time.Location, clock func() time.Time) Cursor {
	c := NewCursor(time.Time{}, loc, clock)
	return c.Today()
}

func (c Cursor) Date() time.Time {
	return c.date
}

func (c Cursor) Location() *time.Location {
	return c.loc
}

// PreviousWeek moves the cursor back seven days.
func (c Cursor) PreviousWeek() Cursor {
	c.date = c.date.AddDate(0, 0, -7)
	return c
}

// NextWeek moves the cursor forward seven days.
func (c Cursor) NextWeek() Cursor {
	c.date = c.date.AddDate(0, 0, 7)
	return c
}

// Today resets the cursor to the current instant.
func (c Cursor) Today() Cursor {
	c.date = c.clock().In(c.loc)
	return c
}

// Week returns Monday 00:00 and Sunday 23:59:59.999999999 of the cursor's week.
func (c Cursor) Week() (start, end time.Time) {
	n := c.calendar()
	return n.BeginningOfWeek(), n.EndOfWeek()
}

// Contains reports whether t falls inside the cursor's week.
func (c Cursor) Contains(t time.Time) bool {
	start, end := c.Week()
	t = t.In(c.loc)
	return !t.Before(start) && !t.After(end)
}

// IsToday reports whether day is the current calendar day in the cursor's location.
func (c Cursor) IsToday(day time.Time) bool {
	return dayKey(day.In(c.loc)) == dayKey(c.clock().In(c.loc))
}

func (c Cursor) calendar() *now.Now {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: c.loc}
	return cfg.With(c.date)
}
