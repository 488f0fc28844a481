package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/btj-academy/internal/errors"
	"github.com/pribylovaa/btj-academy/internal/models"
)

// Me возвращает профиль текущего пользователя.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UserToResponse(user))
}

// Deactivate деактивирует аккаунт текущего пользователя.
func (h *Handlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.Deactivate(r.Context(), userID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "success", Message: "user deactivated"})
}
