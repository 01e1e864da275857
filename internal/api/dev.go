package api

import (
	"encoding/json"
	"net/http"

	"shoecare/internal/auth"
	"shoecare/internal/service"
)

func (h *Handler) getAdminToggle(w http.ResponseWriter, r *http.Request) {
	if !h.devMode.Allowed() {
		h.writeServiceError(w, r, service.ErrSimulationDisabled)
		return
	}
	_, simulate := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": simulate})
}

func (h *Handler) setAdminToggle(w http.ResponseWriter, r *http.Request) {
	if !h.devMode.Allowed() {
		h.writeServiceError(w, r, service.ErrSimulationDisabled)
		return
	}

	identity, _ := identityFrom(r.Context())
	if identity == nil {
		h.writeServiceError(w, r, auth.ErrUnauthenticated)
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	if err := h.devMode.SetAdminSimulation(r.Context(), identity.UserID, body.Enabled); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "enabled": body.Enabled})
}
