package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/btj-academy/internal/errors"
	logctx "github.com/pribylovaa/btj-academy/internal/pkg/log"
	"github.com/pribylovaa/btj-academy/internal/service"
)

// ErrNoBearer: в запросе нет заголовка Authorization со схемой Bearer.
var ErrNoBearer = errors.New("missing bearer token")

// Authenticator проверяет access-токен и возвращает user_id.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (int64, error)
}

type userIDKey struct{}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
// Схема сравнивается без учёта регистра.
func BearerToken(h http.Header) (string, error) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoBearer
	}

	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrNoBearer
	}

	return tok, nil
}

// AuthBearer пропускает запрос дальше только с действующим access-токеном.
// Иначе отвечает 401 с WWW-Authenticate: Bearer. Идентификатор пользователя
// доступен обработчикам через UserIDFrom.
func AuthBearer(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := BearerToken(r.Header)
			if err != nil {
				apierrors.WriteError(w, r, fmt.Errorf("%w: %w", service.ErrUnauthenticated, err))
				return
			}

			userID, err := a.Authenticate(r.Context(), tok)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			ctx = logctx.With(ctx, slog.Int64("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает user_id, положенный AuthBearer.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}
