package schedule

import (
	"time"

	"shoecare/internal/models"
)

// View is the week grid plus an optional drill-down into one day.
type View struct {
	cursor   Cursor
	bookings []*models.Booking
	week     Week
	selected string
}

func NewView(c Cursor, bookings []*models.Booking) *View {
	v := &View{cursor: c, bookings: bookings}
	v.week = Aggregate(bookings, c)
	return v
}

func (v *View) Cursor() Cursor {
	return v.cursor
}

func (v *View) Week() Week {
	return v.week
}

// PreviousWeek, NextWeek and Today move the grid. A selection outside the new
// week is dropped.
func (v *View) PreviousWeek() { v.move(v.cursor.PreviousWeek()) }
func (v *View) NextWeek()     { v.move(v.cursor.NextWeek()) }
func (v *View) Today()        { v.move(v.cursor.Today()) }

func (v *View) move(c Cursor) {
	v.cursor = c
	v.week = Aggregate(v.bookings, c)
	if _, ok := v.week.Day(v.selected); !ok {
		v.selected = ""
	}
}

// Select focuses the day with key "2006-01-02", replacing any previous selection.
// It reports false and clears the selection when the day is not in the week.
func (v *View) Select(key string) bool {
	if _, ok := v.week.Day(key); !ok {
		v.selected = ""
		return false
	}
	v.selected = key
	return true
}

// SelectDate is Select for a time value.
func (v *View) SelectDate(t time.Time) bool {
	return v.Select(dayKey(t.In(v.cursor.loc)))
}

func (v *View) Deselect() {
	v.selected = ""
}

// Selected returns the focused day, if any.
func (v *View) Selected() (Day, bool) {
	if v.selected == "" {
		return Day{}, false
	}
	return v.week.Day(v.selected)
}
