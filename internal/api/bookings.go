package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/models"
	"shoecare/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListOwn(r.Context(), auth.PrincipalFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bookings))
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.writeServiceError(w, r, auth.ErrUnauthenticated)
		return
	}

	upd, err := h.decodeBooking(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.bookings.Create(r.Context(), p, upd.BookingInput)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), auth.PrincipalFrom(r.Context()), bookingID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) updateBooking(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.writeServiceError(w, r, auth.ErrUnauthenticated)
		return
	}

	upd, err := h.decodeBooking(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.bookings.Update(r.Context(), p, bookingID(r), upd)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) deleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Delete(r.Context(), auth.PrincipalFrom(r.Context()), bookingID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking deleted successfully"})
}

var (
	errInvalidRequest = errors.New("Invalid request data")
	errInvalidDate    = errors.New("Invalid scheduled date")
)

// scheduledDateLayouts are tried in order. The minute-precision forms are what
// datetime-local inputs submit and are read in the schedule timezone.
var scheduledDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// bookingRequest is the JSON body of create and update. scheduled_date arrives as
// text so a blank value reads as missing instead of as a malformed body.
type bookingRequest struct {
	service.BookingUpdate
	ScheduledDate *string `json:"scheduled_date"`
}

func (h *Handler) decodeBooking(r *http.Request) (service.BookingUpdate, error) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return service.BookingUpdate{}, errInvalidRequest
	}

	upd := req.BookingUpdate
	if req.ScheduledDate == nil {
		return upd, nil
	}
	raw := strings.TrimSpace(*req.ScheduledDate)
	if raw == "" {
		// The zero time marks a submitted but blank date.
		upd.ScheduledDate = &time.Time{}
		return upd, nil
	}
	date, err := parseScheduledDate(raw, h.location)
	if err != nil {
		return service.BookingUpdate{}, errInvalidDate
	}
	upd.ScheduledDate = &date
	return upd, nil
}

func parseScheduledDate(raw string, loc *time.Location) (time.Time, error) {
	var err error
	for _, layout := range scheduledDateLayouts {
		t, perr := time.ParseInLocation(layout, raw, loc)
		if perr == nil {
			return t, nil
		}
		err = perr
	}
	return time.Time{}, err
}

// bookingID returns the {id} path parameter, or 0 when it is not a number.
// The service treats 0 as not found.
func bookingID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func nonNil(bookings []*models.Booking) []*models.Booking {
	if bookings == nil {
		return []*models.Booking{}
	}
	return bookings
}
