package schedule

import (
	"time"

	"shoecare/internal/models"
)

// Day is one column of the weekly grid.
type Day struct {
	Date     time.Time         `json:"date"`
	Key      string            `json:"key"`
	Weekday  string            `json:"weekday"`
	IsToday  bool              `json:"is_today"`
	Bookings []*models.Booking `json:"bookings"`
}

// Week is the seven-day grid for one cursor position.
type Week struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  [7]Day    `json:"days"`
}

// Aggregate groups bookings into the seven days of the cursor's week by calendar
// day in the cursor's location. Every day is present; order inside a day follows
// the input. Bookings outside the week are ignored.
func Aggregate(bookings []*models.Booking, c Cursor) Week {
	start, end := c.Week()
	w := Week{Start: start, End: end}

	index := make(map[string]int, len(w.Days))
	for i := range w.Days {
		date := start.AddDate(0, 0, i)
		key := dayKey(date)
		w.Days[i] = Day{
			Date:     date,
			Key:      key,
			Weekday:  date.Weekday().String(),
			IsToday:  c.IsToday(date),
			Bookings: make([]*models.Booking, 0),
		}
		index[key] = i
	}

	for _, b := range bookings {
		if b == nil {
			continue
		}
		if i, ok := index[dayKey(b.ScheduledDate.In(c.loc))]; ok {
			w.Days[i].Bookings = append(w.Days[i].Bookings, b)
		}
	}
	return w
}

// ByDate returns the grid keyed by "2006-01-02". It always has seven keys.
func (w Week) ByDate() map[string][]*models.Booking {
	out := make(map[string][]*models.Booking, len(w.Days))
	for _, d := range w.Days {
		out[d.Key] = d.Bookings
	}
	return out
}

// Day returns the day with the given key.
func (w Week) Day(key string) (Day, bool) {
	for _, d := range w.Days {
		if d.Key == key {
			return d, true
		}
	}
	return Day{}, false
}

// Total counts the bookings in the week.
func (w Week) Total() int {
	n := 0
	for _, d := range w.Days {
		n += len(d.Bookings)
	}
	return n
}

func dayKey(t time.Time) string {
	return t.Format(models.DateKeyLayout)
}
