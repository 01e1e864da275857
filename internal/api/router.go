package api

import (
	"fmt"
	"net/http"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/config"
	"shoecare/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Bookings *service.BookingService
	Users    *service.UserService
	DevMode  *service.DevModeService
	Resolver *auth.Resolver
	Tokens   *auth.Tokens
	Clock    func() time.Time
	Logger   *zerolog.Logger
}

type Handler struct {
	bookings *service.BookingService
	users    *service.UserService
	devMode  *service.DevModeService
	resolver *auth.Resolver
	tokens   *auth.Tokens
	limiter  *rateLimiter

	location     *time.Location
	pollInterval time.Duration
	clock        func() time.Time
	logger       *zerolog.Logger
}

// NewRouter builds the chi router for the /api/v1 surface.
func NewRouter(cfg *config.Config, deps Deps) (http.Handler, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}

	h := &Handler{
		bookings:     deps.Bookings,
		users:        deps.Users,
		devMode:      deps.DevMode,
		resolver:     deps.Resolver,
		tokens:       deps.Tokens,
		limiter:      newRateLimiter(cfg.API.RateLimit),
		location:     loc,
		pollInterval: time.Duration(cfg.Schedule.PollInterval) * time.Second,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.logger == nil {
		nop := zerolog.Nop()
		h.logger = &nop
	}

	r := chi.NewRouter()
	r.Use(requestID, h.logRequests)

	r.Get("/healthz", healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", healthz)
		r.Get("/statuses", listStatuses)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, h.rateLimit)

			r.Route("/dev/admin-toggle", func(r chi.Router) {
				r.Get("/", h.getAdminToggle)
				r.Post("/", h.setAdminToggle)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Use(h.resolvePrincipal)
				r.Get("/", h.listBookings)
				r.Post("/", h.createBooking)
				r.Get("/{id}", h.getBooking)
				r.Put("/{id}", h.updateBooking)
				r.Delete("/{id}", h.deleteBooking)
			})

			r.With(h.resolvePrincipal).Get("/users/search", h.searchUsers)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/check", h.adminCheck)

				r.Group(func(r chi.Router) {
					r.Use(h.requireAdmin)
					r.Get("/bookings", h.adminBookings)
					r.Get("/collections", h.adminCollections)
					r.Get("/schedule", h.adminSchedule)
					r.Get("/schedule/export", h.adminScheduleExport)
					r.Get("/users", h.adminUsers)
					r.Put("/users", h.adminSetUser)
				})
			})
		})
	})

	return r, nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
