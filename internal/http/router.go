// http собирает REST-роутер auth-сервиса на chi.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/pribylovaa/btj-academy/internal/config"
	apierrors "github.com/pribylovaa/btj-academy/internal/errors"
	"github.com/pribylovaa/btj-academy/internal/http/handlers"
	"github.com/pribylovaa/btj-academy/internal/http/middleware"
)

// Service: всё, что нужно ручкам и проверке bearer-токена.
type Service interface {
	handlers.Service
	middleware.Authenticator
}

// Options: параметры сборки HTTP-роутера.
type Options struct {
	Logger    *slog.Logger
	Timeout   time.Duration
	BasePath  string // например, "/api/v1"; если пустой: роуты регистрируются на корне.
	RateLimit config.RateLimitConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc, opts.RateLimit)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc, opts.RateLimit)
	return root
}

// registerRoutes: единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, a middleware.Authenticator, rl config.RateLimitConfig) {
	r.Get("/health", h.Health)

	// auth: публичные ручки под лимитом по IP
	r.With(limitByIP(rl.Login, rl.Window)).Post("/auth/login", h.Login)
	r.With(limitByIP(rl.Register, rl.Window)).Post("/auth/register", h.Register)
	r.With(limitByIP(rl.Refresh, rl.Window)).Get("/auth/refresh-token", h.RefreshToken)

	// под access-токеном
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthBearer(a))

		r.Put("/auth/change-password", h.ChangePassword)
		r.Get("/users/me", h.Me)
		r.Put("/users/deactivate", h.Deactivate)
	})
}

// limitByIP ограничивает число запросов с одного IP за окно.
// limit <= 0 или window <= 0 отключают лимит.
func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			apierrors.WriteError(w, r, apierrors.ErrTooManyRequests)
		}),
	)
}
