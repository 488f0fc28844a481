package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/pribylovaa/btj-academy/internal/errors"
	"github.com/pribylovaa/btj-academy/internal/http/middleware"
	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/service"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if !h.bind(w, r, &in) {
		return
	}

	pair, err := h.svc.Login(r.Context(), in.Login(), in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenPairToResponse(pair))
}

// RefreshToken выпускает новую пару по refresh-токену из заголовка Authorization.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	tok, err := middleware.BearerToken(r.Header)
	if err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("%w: %w", service.ErrUnauthenticated, err))
		return
	}

	pair, err := h.svc.Refresh(r.Context(), tok)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenPairToResponse(pair))
}

// ChangePassword меняет пароль текущего пользователя.
// Неверный старый пароль: 400, а не 401: сессия при этом валидна.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in models.ChangePasswordRequest
	if !h.bind(w, r, &in) {
		return
	}

	err := h.svc.ChangePassword(r.Context(), userID, in.OldPassword, in.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Write(w, r, http.StatusBadRequest, "invalid_credentials", apierrors.MsgIncorrectPass)
		return
	case err != nil:
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "success", Message: "password changed"})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if !h.bind(w, r, &in) {
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.UserToResponse(user))
}

// currentUser достаёт user_id, положенный middleware.AuthBearer.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("%w: %w", service.ErrUnauthenticated, middleware.ErrNoBearer))
		return 0, false
	}

	return userID, true
}
