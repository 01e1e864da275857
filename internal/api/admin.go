package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/models"
	"shoecare/internal/schedule"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// adminCheck never fails: any resolution problem reads as "not an administrator".
func (h *Handler) adminCheck(w http.ResponseWriter, r *http.Request) {
	identity, simulate := identityFrom(r.Context())
	isAdmin, err := h.resolver.IsAdministrator(r.Context(), identity, simulate)
	if err != nil {
		h.logger.Debug().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("admin check failed")
		isAdmin = false
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_admin": isAdmin})
}

func (h *Handler) adminBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListAll(r.Context(), auth.PrincipalFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bookings))
}

func (h *Handler) adminCollections(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListAll(r.Context(), auth.PrincipalFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	collections := schedule.Collections(bookings)
	writeJSON(w, http.StatusOK, map[string]any{
		"collections":           collections,
		"count":                 len(collections),
		"refresh_after_seconds": int(h.pollInterval.Seconds()),
	})
}

type scheduleResponse struct {
	Week                schedule.Week `json:"week"`
	Total               int           `json:"total"`
	Selected            *schedule.Day `json:"selected"`
	RefreshAfterSeconds int           `json:"refresh_after_seconds"`
}

func (h *Handler) adminSchedule(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.scheduleCursor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.loadView(r, cursor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := scheduleResponse{
		Week:                view.Week(),
		Total:               view.Week().Total(),
		RefreshAfterSeconds: int(h.pollInterval.Seconds()),
	}
	if day := strings.TrimSpace(r.URL.Query().Get("day")); day != "" && view.Select(day) {
		if selected, ok := view.Selected(); ok {
			resp.Selected = &selected
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) adminScheduleExport(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.scheduleCursor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.loadView(r, cursor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := schedule.WriteWeek(&buf, view.Week()); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("export schedule: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", schedule.FileName(view.Week())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// scheduleCursor reads ?week=YYYY-MM-DD (default: current week) and applies
// ?nav=prev|next|today.
func (h *Handler) scheduleCursor(r *http.Request) (schedule.Cursor, error) {
	q := r.URL.Query()

	cursor := schedule.CurrentWeek(h.location, h.clock)
	if raw := strings.TrimSpace(q.Get("week")); raw != "" {
		date, err := time.ParseInLocation(models.DateKeyLayout, raw, h.location)
		if err != nil {
			return schedule.Cursor{}, errors.New("invalid week format; expected YYYY-MM-DD")
		}
		cursor = schedule.NewCursor(date, h.location, h.clock)
	}

	switch strings.ToLower(strings.TrimSpace(q.Get("nav"))) {
	case "":
	case "prev":
		cursor = cursor.PreviousWeek()
	case "next":
		cursor = cursor.NextWeek()
	case "today":
		cursor = cursor.Today()
	default:
		return schedule.Cursor{}, errors.New("invalid nav; expected prev, next or today")
	}
	return cursor, nil
}

func (h *Handler) loadView(r *http.Request, cursor schedule.Cursor) (*schedule.View, error) {
	from, to := cursor.Week()
	bookings, err := h.bookings.ListRange(r.Context(), auth.PrincipalFrom(r.Context()), from, to)
	if err != nil {
		return nil, err
	}
	return schedule.NewView(cursor, bookings), nil
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), auth.PrincipalFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []*models.UserSummary{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) adminSetUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  int64 `json:"user_id"`
		IsAdmin *bool `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID <= 0 || body.IsAdmin == nil {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	user, err := h.users.SetAdmin(r.Context(), auth.PrincipalFrom(r.Context()), body.UserID, *body.IsAdmin)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
