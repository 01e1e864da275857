package models

import "time"

type Booking struct {
	ID                 int64     `json:"id"`
	CustomerName       string    `json:"customer_name"`
	CustomerEmail      string    `json:"customer_email"`
	CustomerPhone      *string   `json:"customer_phone"`
	ShoeType           string    `json:"shoe_type"`
	ServiceType        string    `json:"service_type"`
	Status             string    `json:"status"` // see Status* constants
	ScheduledDate      time.Time `json:"scheduled_date"`
	Notes              *string   `json:"notes"`
	CollectionRequired bool      `json:"collection_required"`
	CollectionAddress  *string   `json:"collection_address"`
	CollectionCity     *string   `json:"collection_city"`
	CollectionPostcode *string   `json:"collection_postcode"`
	UserID             int64     `json:"user_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no pointer fields with b.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.CustomerPhone = cloneString(b.CustomerPhone)
	c.Notes = cloneString(b.Notes)
	c.CollectionAddress = cloneString(b.CollectionAddress)
	c.CollectionCity = cloneString(b.CollectionCity)
	c.CollectionPostcode = cloneString(b.CollectionPostcode)
	return &c
}

// HasCompleteCollectionAddress reports whether address, city and postcode are all set.
func (b *Booking) HasCompleteCollectionAddress() bool {
	return nonEmpty(b.CollectionAddress) && nonEmpty(b.CollectionCity) && nonEmpty(b.CollectionPostcode)
}

// BookingFilter narrows store queries. Zero values mean "any".
type BookingFilter struct {
	ID                 int64
	UserID             int64
	CollectionRequired *bool
	ScheduledFrom      time.Time
	ScheduledTo        time.Time
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
