package schedule

import "shoecare/internal/models"

// Collections returns the bookings that still need a pickup: collection required
// and not in a terminal status. Input order is kept.
func Collections(bookings []*models.Booking) []*models.Booking {
	out := make([]*models.Booking, 0)
	for _, b := range bookings {
		if b == nil {
			continue
		}
		if b.CollectionRequired && !models.IsTerminalStatus(b.Status) {
			out = append(out, b)
		}
	}
	return out
}
