package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota + 1
	requestAuthKey
)

// requestAuth is what the bearer token and the dev flag store say about the caller.
// It is nil for anonymous requests.
type requestAuth struct {
	identity *auth.Identity
	simulate bool
}

func requestAuthFrom(ctx context.Context) *requestAuth {
	st, _ := ctx.Value(requestAuthKey).(*requestAuth)
	return st
}

func identityFrom(ctx context.Context) (*auth.Identity, bool) {
	st := requestAuthFrom(ctx)
	if st == nil {
		return nil, false
	}
	return st.identity, st.simulate
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.ObserveHTTP(route, recorder.status, dur.Seconds())

		event := h.logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = h.logger.Error()
		}
		event.
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// authenticate verifies the bearer token, if any, and reads the caller's admin
// simulation flag. Requests without a token continue anonymously.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := auth.BearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := h.tokens.Verify(raw)
		if err != nil {
			h.logger.Debug().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("token rejected")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		st := &requestAuth{
			identity: identity,
			simulate: h.devMode.AdminSimulation(r.Context(), identity.UserID),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestAuthKey, st)))
	})
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.allow(r) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolvePrincipal builds the request principal. Anonymous requests pass through
// with no principal and are rejected by the operations that need one.
func (h *Handler) resolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, simulate := identityFrom(r.Context())
		if identity == nil {
			next.ServeHTTP(w, r)
			return
		}

		p, err := h.resolver.Resolve(r.Context(), identity, simulate)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, simulate := identityFrom(r.Context())
		p, err := h.resolver.RequireAdministrator(r.Context(), identity, simulate)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}
