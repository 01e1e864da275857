package domain

import (
	"context"
	"time"

	"shoecare/internal/models"
)

type BookingStore interface {
	FindBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	FindBooking(ctx context.Context, filter models.BookingFilter) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
}

type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	SetUserAdmin(ctx context.Context, id int64, isAdmin bool) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.UserSummary, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// FlagStore keeps short-lived per-user flags: the development admin override and
// submission counters.
type FlagStore interface {
	RateLimiter
	GetAdminSimulation(ctx context.Context, userID int64) (bool, error)
	SetAdminSimulation(ctx context.Context, userID int64, enabled bool) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Mailer interface {
	Send(ctx context.Context, msg models.Email) error
}
