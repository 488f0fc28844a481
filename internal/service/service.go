// service содержит бизнес-логику auth-сервиса: вход по логину/паролю,
// обновление пары токенов, смену пароля, проверку access-токена,
// а также регистрацию, чтение профиля и деактивацию аккаунта.
//
// Основные аспекты:
//   - Service не хранит состояние запроса и безопасен для конкурентного
//     использования при условии, что хранилище потокобезопасно.
//   - Токены без состояния: обновление пары не отзывает предыдущий
//     refresh-токен, он действует до своего exp.
//   - Ошибки возвращаются значениями и маппятся транспортом на HTTP-коды
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pribylovaa/btj-academy/internal/config"
	"github.com/pribylovaa/btj-academy/internal/metrics"
	"github.com/pribylovaa/btj-academy/internal/password"
	"github.com/pribylovaa/btj-academy/internal/storage"
	"github.com/pribylovaa/btj-academy/internal/token"
)

var (
	// ErrInvalidCredentials: пользователь не найден, деактивирован или пароль неверен.
	// При входе все случаи неразличимы. Транспорт: HTTP 401 (login), 400 (change-password).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound: пользователь не найден или деактивирован. Транспорт: HTTP 404.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyTaken: username или email уже заняты. Транспорт: HTTP 409.
	ErrAlreadyTaken = errors.New("already taken")

	// ErrUsernameTaken: username уже занят. errors.Is(err, ErrAlreadyTaken) == true.
	ErrUsernameTaken = fmt.Errorf("username %w", ErrAlreadyTaken)

	// ErrEmailTaken: email уже занят. errors.Is(err, ErrAlreadyTaken) == true.
	ErrEmailTaken = fmt.Errorf("email %w", ErrAlreadyTaken)

	// ErrUnauthenticated: bearer-токен не принят. Причина (token.ErrExpired,
	// token.ErrTypeMismatch, ...) доступна через errors.Is/As. Транспорт: HTTP 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNoSubject: в токене нет user_id.
	ErrNoSubject = errors.New("token has no subject")

	// ErrInvalidArgument: входные данные не проходят проверку. Транспорт: HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.UserStorage
	codec   *token.Codec
	hasher  *password.Hasher
	cfg     config.AuthConfig
	metrics *metrics.Metrics
	now     func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics подключает prometheus-метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени для меток created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New создаёт новый экземпляр Service.
func New(st storage.UserStorage, codec *token.Codec, hasher *password.Hasher, cfg config.AuthConfig, opts ...Option) *Service {
	s := &Service{
		storage: st,
		codec:   codec,
		hasher:  hasher,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}
