package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/database"
	"shoecare/internal/domain"
	"shoecare/internal/events"
	"shoecare/internal/metrics"
	"shoecare/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound covers both a missing booking and one outside the caller's scope.
	ErrNotFound    = errors.New("booking not found")
	ErrRateLimited = errors.New("too many bookings, try again later")
)

const (
	MsgMissingRequired   = "Missing required fields"
	MsgMissingCollection = "Address, city, and postcode are required when collection is needed"
	MsgInvalidStatus     = "Invalid status"
)

// ValidationError is a user-displayable input problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BookingInput carries create fields and partial update fields. A nil pointer
// means the field was not submitted.
type BookingInput struct {
	CustomerName       *string    `json:"customer_name"`
	CustomerEmail      *string    `json:"customer_email"`
	CustomerPhone      *string    `json:"customer_phone"`
	ShoeType           *string    `json:"shoe_type"`
	ServiceType        *string    `json:"service_type"`
	ScheduledDate      *time.Time `json:"scheduled_date"`
	Notes              *string    `json:"notes"`
	CollectionRequired *bool      `json:"collection_required"`
	CollectionAddress  *string    `json:"collection_address"`
	CollectionCity     *string    `json:"collection_city"`
	CollectionPostcode *string    `json:"collection_postcode"`
}

type BookingUpdate struct {
	BookingInput
	Status *string `json:"status"`
}

type BookingService struct {
	store           domain.BookingStore
	eventBus        domain.EventPublisher
	limiter         domain.RateLimiter
	bookingsPerHour int
	logger          *zerolog.Logger
}

// NewBookingService wires the mutation service. limiter may be nil, and
// bookingsPerHour <= 0 disables the submission throttle.
func NewBookingService(
	store domain.BookingStore,
	eventBus domain.EventPublisher,
	limiter domain.RateLimiter,
	bookingsPerHour int,
	logger *zerolog.Logger,
) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:           store,
		eventBus:        eventBus,
		limiter:         limiter,
		bookingsPerHour: bookingsPerHour,
		logger:          logger,
	}
}

// Create persists a new booking owned by p in status pending_confirmation.
func (s *BookingService) Create(ctx context.Context, p *auth.Principal, in BookingInput) (*models.Booking, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	if blank(in.CustomerName) || blank(in.CustomerEmail) || blank(in.ShoeType) ||
		blank(in.ServiceType) || in.ScheduledDate == nil || in.ScheduledDate.IsZero() {
		s.countMutation("create", p, "invalid")
		return nil, &ValidationError{Message: MsgMissingRequired}
	}
	if err := validateCollection(in); err != nil {
		s.countMutation("create", p, "invalid")
		return nil, err
	}

	if err := s.checkSubmissionRate(ctx, p); err != nil {
		s.countMutation("create", p, "throttled")
		return nil, err
	}

	booking := &models.Booking{
		CustomerName:  strings.TrimSpace(*in.CustomerName),
		CustomerEmail: strings.TrimSpace(*in.CustomerEmail),
		CustomerPhone: optional(in.CustomerPhone),
		ShoeType:      strings.TrimSpace(*in.ShoeType),
		ServiceType:   strings.TrimSpace(*in.ServiceType),
		Status:        models.StatusPendingConfirmation,
		ScheduledDate: *in.ScheduledDate,
		Notes:         optional(in.Notes),
		UserID:        p.UserID,
	}
	applyCollection(booking, in)

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		s.countMutation("create", p, "error")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.countMutation("create", p, "ok")
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("user_id", p.UserID).
		Bool("collection_required", booking.CollectionRequired).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, "", p)
	return booking, nil
}

// Update applies the fields p is permitted to change and returns the stored record.
// Fields outside the permitted set are dropped without error.
func (s *BookingService) Update(ctx context.Context, p *auth.Principal, id int64, upd BookingUpdate) (*models.Booking, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	current, err := s.resolve(ctx, scopeFor(p, id))
	if err != nil {
		s.countMutation("update", p, outcome(err))
		return nil, err
	}

	if err := validateCollection(upd.BookingInput); err != nil {
		s.countMutation("update", p, "invalid")
		return nil, err
	}
	if err := validateStatus(upd.Status); err != nil {
		s.countMutation("update", p, "invalid")
		return nil, err
	}

	allowed := permittedFields(p)
	projected := allowed.project(upd)
	if err := validateRequiredPresent(projected); err != nil {
		s.countMutation("update", p, "invalid")
		return nil, err
	}

	next := current.Clone()
	allowed.apply(next, projected)

	if err := s.store.UpdateBooking(ctx, next); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.countMutation("update", p, "not_found")
			return nil, ErrNotFound
		}
		s.countMutation("update", p, "error")
		return nil, fmt.Errorf("update booking %d: %w", id, err)
	}

	s.countMutation("update", p, "ok")
	s.logger.Info().
		Int64("booking_id", next.ID).
		Int64("user_id", p.UserID).
		Str("role", p.Kind.String()).
		Str("status", next.Status).
		Msg("booking updated")
	s.publishEvent(events.EventBookingUpdated, next, current.Status, p)
	return next, nil
}

// Delete removes a booking owned by p. Administrators get no wider scope here.
func (s *BookingService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}

	booking, err := s.resolve(ctx, ownerScope(p, id))
	if err != nil {
		s.countMutation("delete", p, outcome(err))
		return err
	}

	if err := s.store.DeleteBooking(ctx, booking.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.countMutation("delete", p, "not_found")
			return ErrNotFound
		}
		s.countMutation("delete", p, "error")
		return fmt.Errorf("delete booking %d: %w", id, err)
	}

	s.countMutation("delete", p, "ok")
	s.logger.Info().Int64("booking_id", id).Int64("user_id", p.UserID).Msg("booking deleted")
	s.publishEvent(events.EventBookingDeleted, booking, "", p)
	return nil
}

// Get returns one booking under the same scope rule as Update.
func (s *BookingService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.Booking, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	return s.resolve(ctx, scopeFor(p, id))
}

// ListOwn returns p's bookings, latest scheduled first.
func (s *BookingService) ListOwn(ctx context.Context, p *auth.Principal) ([]*models.Booking, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	bookings, err := s.store.FindBookings(ctx, models.BookingFilter{UserID: p.UserID})
	if err != nil {
		return nil, fmt.Errorf("list bookings for user %d: %w", p.UserID, err)
	}
	return bookings, nil
}

// ListAll returns every booking, latest scheduled first. Administrators only.
func (s *BookingService) ListAll(ctx context.Context, p *auth.Principal) ([]*models.Booking, error) {
	return s.ListRange(ctx, p, time.Time{}, time.Time{})
}

// ListRange returns every booking scheduled within [from, to]. Zero bounds are open.
// Administrators only.
func (s *BookingService) ListRange(ctx context.Context, p *auth.Principal, from, to time.Time) ([]*models.Booking, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if !p.IsAdministrator() {
		return nil, auth.ErrUnauthorized
	}
	bookings, err := s.store.FindBookings(ctx, models.BookingFilter{ScheduledFrom: from, ScheduledTo: to})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// scopeFor is the single lookup scope for reads and updates: administrators by id,
// everyone else by id and owner.
func scopeFor(p *auth.Principal, id int64) models.BookingFilter {
	if p.IsAdministrator() {
		return models.BookingFilter{ID: id}
	}
	return ownerScope(p, id)
}

func ownerScope(p *auth.Principal, id int64) models.BookingFilter {
	return models.BookingFilter{ID: id, UserID: p.UserID}
}

// resolve returns the booking matching filter or ErrNotFound. Absence and being
// out of scope produce the same error.
func (s *BookingService) resolve(ctx context.Context, filter models.BookingFilter) (*models.Booking, error) {
	if filter.ID <= 0 {
		return nil, ErrNotFound
	}
	booking, err := s.store.FindBooking(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find booking %d: %w", filter.ID, err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	return booking, nil
}

func (s *BookingService) checkSubmissionRate(ctx context.Context, p *auth.Principal) error {
	if s.limiter == nil || s.bookingsPerHour <= 0 {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, p.UserID, s.bookingsPerHour, time.Hour)
	if err != nil {
		// The throttle is best effort; a broken counter store must not block bookings.
		s.logger.Warn().Err(err).Int64("user_id", p.UserID).Msg("submission rate check failed")
		return nil
	}
	if !allowed {
		s.logger.Warn().Int64("user_id", p.UserID).Int("limit", s.bookingsPerHour).Msg("booking submission throttled")
		return ErrRateLimited
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, previousStatus string, p *auth.Principal) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:          booking.ID,
		UserID:             booking.UserID,
		CustomerName:       booking.CustomerName,
		CustomerEmail:      booking.CustomerEmail,
		ShoeType:           booking.ShoeType,
		ServiceType:        booking.ServiceType,
		Status:             booking.Status,
		PreviousStatus:     previousStatus,
		ScheduledDate:      booking.ScheduledDate,
		CollectionRequired: booking.CollectionRequired,
		ChangedByID:        p.UserID,
		ChangedByRole:      p.Kind.String(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) countMutation(operation string, p *auth.Principal, result string) {
	metrics.IncBookingMutation(operation, p.Kind.String(), result)
}

func outcome(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	return "error"
}

func requirePrincipal(p *auth.Principal) error {
	if p == nil || p.UserID <= 0 {
		return auth.ErrUnauthenticated
	}
	return nil
}

// validateCollection enforces the collection address rule on a submitted payload.
func validateCollection(in BookingInput) error {
	if in.CollectionRequired == nil || !*in.CollectionRequired {
		return nil
	}
	if blank(in.CollectionAddress) || blank(in.CollectionCity) || blank(in.CollectionPostcode) {
		return &ValidationError{Message: MsgMissingCollection}
	}
	return nil
}

// validateStatus accepts an omitted or blank status, which keeps the stored one,
// and otherwise only the lifecycle statuses. Any transition between them is allowed.
func validateStatus(status *string) error {
	if v := optional(status); v != nil && !models.IsKnownStatus(*v) {
		return &ValidationError{Message: MsgInvalidStatus}
	}
	return nil
}

// validateRequiredPresent rejects required fields that were submitted blank.
func validateRequiredPresent(upd BookingUpdate) error {
	for _, v := range []*string{upd.CustomerName, upd.CustomerEmail, upd.ShoeType, upd.ServiceType} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return &ValidationError{Message: MsgMissingRequired}
		}
	}
	if upd.ScheduledDate != nil && upd.ScheduledDate.IsZero() {
		return &ValidationError{Message: MsgMissingRequired}
	}
	return nil
}

// applyCollection sets the collection fields so that the address is present
// exactly when collection is required.
func applyCollection(b *models.Booking, in BookingInput) {
	b.CollectionRequired = in.CollectionRequired != nil && *in.CollectionRequired
	if !b.CollectionRequired {
		b.CollectionAddress, b.CollectionCity, b.CollectionPostcode = nil, nil, nil
		return
	}
	b.CollectionAddress = optional(in.CollectionAddress)
	b.CollectionCity = optional(in.CollectionCity)
	b.CollectionPostcode = optional(in.CollectionPostcode)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// optional trims s and maps blank to nil.
func optional(s *string) *string {
	if blank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
