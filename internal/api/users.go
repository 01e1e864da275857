package api

import (
	"net/http"

	"shoecare/internal/auth"
	"shoecare/internal/models"
)

type userRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.SearchUsers(r.Context(), auth.PrincipalFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	refs := make([]userRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, userRef{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	writeJSON(w, http.StatusOK, refs)
}

type statusRef struct {
	Value string `json:"value"`
	models.StatusPresentation
}

// listStatuses returns the lifecycle statuses with their badge presentation, in
// progression order.
func listStatuses(w http.ResponseWriter, _ *http.Request) {
	statuses := models.Statuses()
	refs := make([]statusRef, 0, len(statuses))
	for _, s := range statuses {
		refs = append(refs, statusRef{Value: s, StatusPresentation: models.StatusInfo(s)})
	}
	writeJSON(w, http.StatusOK, refs)
}
