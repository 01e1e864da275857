package service

import (
	"strings"

	"shoecare/internal/auth"
	"shoecare/internal/models"
)

// fieldSet is the set of booking fields a role may change on update.
type fieldSet uint16

const (
	fieldCustomerName fieldSet = 1 << iota
	fieldCustomerEmail
	fieldCustomerPhone
	fieldShoeType
	fieldServiceType
	fieldScheduledDate
	fieldNotes
	fieldStatus
	// fieldCollection covers the flag and the three address fields together.
	fieldCollection

	ownerFields = fieldStatus | fieldNotes
	adminFields = fieldCustomerName | fieldCustomerEmail | fieldCustomerPhone | fieldShoeType |
		fieldServiceType | fieldScheduledDate | fieldNotes | fieldStatus | fieldCollection
)

func permittedFields(p *auth.Principal) fieldSet {
	if p.IsAdministrator() {
		return adminFields
	}
	return ownerFields
}

func (s fieldSet) has(f fieldSet) bool {
	return s&f == f
}

// project drops every submitted field outside s.
func (s fieldSet) project(upd BookingUpdate) BookingUpdate {
	var out BookingUpdate
	if s.has(fieldCustomerName) {
		out.CustomerName = upd.CustomerName
	}
	if s.has(fieldCustomerEmail) {
		out.CustomerEmail = upd.CustomerEmail
	}
	if s.has(fieldCustomerPhone) {
		out.CustomerPhone = upd.CustomerPhone
	}
	if s.has(fieldShoeType) {
		out.ShoeType = upd.ShoeType
	}
	if s.has(fieldServiceType) {
		out.ServiceType = upd.ServiceType
	}
	if s.has(fieldScheduledDate) {
		out.ScheduledDate = upd.ScheduledDate
	}
	if s.has(fieldNotes) {
		out.Notes = upd.Notes
	}
	if s.has(fieldStatus) {
		out.Status = upd.Status
	}
	if s.has(fieldCollection) {
		out.CollectionRequired = upd.CollectionRequired
		out.CollectionAddress = upd.CollectionAddress
		out.CollectionCity = upd.CollectionCity
		out.CollectionPostcode = upd.CollectionPostcode
	}
	return out
}

// apply merges a projected update into b. Omitted fields keep their stored value,
// except the collection group which is always re-derived when s includes it.
func (s fieldSet) apply(b *models.Booking, upd BookingUpdate) {
	if upd.CustomerName != nil {
		b.CustomerName = strings.TrimSpace(*upd.CustomerName)
	}
	if upd.CustomerEmail != nil {
		b.CustomerEmail = strings.TrimSpace(*upd.CustomerEmail)
	}
	if upd.CustomerPhone != nil {
		b.CustomerPhone = optional(upd.CustomerPhone)
	}
	if upd.ShoeType != nil {
		b.ShoeType = strings.TrimSpace(*upd.ShoeType)
	}
	if upd.ServiceType != nil {
		b.ServiceType = strings.TrimSpace(*upd.ServiceType)
	}
	if upd.ScheduledDate != nil {
		b.ScheduledDate = *upd.ScheduledDate
	}
	if upd.Notes != nil {
		b.Notes = optional(upd.Notes)
	}
	// A blank status keeps the stored one.
	if status := optional(upd.Status); status != nil {
		b.Status = *status
	}
	if s.has(fieldCollection) {
		applyCollection(b, upd.BookingInput)
	}
}
