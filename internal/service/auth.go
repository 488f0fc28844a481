package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/btj-academy/internal/metrics"
	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/password"
	"github.com/pribylovaa/btj-academy/internal/pkg/log"
	"github.com/pribylovaa/btj-academy/internal/pkg/redact"
	"github.com/pribylovaa/btj-academy/internal/storage"
	"github.com/pribylovaa/btj-academy/internal/token"
)

// Login выполняет вход по username или email и паролю.
// Неизвестный логин, деактивированный аккаунт и неверный пароль дают одну и ту же
// ошибку ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, plain string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	user, err := s.storage.UserByIdentifier(ctx, identifier, true)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Сравнение с фиктивным дайджестом выравнивает время ответа
			// для неизвестного логина и неверного пароля.
			_, _ = s.verify(ctx, plain, s.dummy())

			s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
			lg.Warn("login_failed",
				slog.String("op", op),
				slog.String("identifier", redact.Identifier(identifier)),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		s.metrics.LoginAttempt(metrics.LoginError)
		lg.Error("user_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.verify(ctx, plain, user.PasswordHash)
	if err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
		lg.Warn("login_failed",
			slog.String("op", op),
			slog.String("identifier", redact.Identifier(identifier)),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		lg.Error("token_issue_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.LoginAttempt(metrics.LoginSuccess)
	lg.Info("login_succeeded", slog.Int64("user_id", user.ID))

	return pair, nil
}

// Refresh выпускает новую пару токенов по refresh-токену.
// Предыдущий refresh-токен не отзывается и действует до своего exp.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	userID, err := s.subject(refreshToken, token.TypeRefresh)
	if err != nil {
		log.From(ctx).Warn("refresh_rejected",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("tokens_refreshed", slog.Int64("user_id", userID))

	return pair, nil
}

// ChangePassword меняет пароль активного пользователя.
// При неверном старом пароле дайджест в хранилище не меняется.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPlain, newPlain string) error {
	const op = "service.auth.ChangePassword"

	lg := log.From(ctx)

	user, err := s.storage.UserByID(ctx, userID, true)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.verify(ctx, oldPlain, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		lg.Warn("change_password_rejected",
			slog.String("op", op),
			slog.Int64("user_id", userID),
		)
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	digest, err := s.hash(ctx, newPlain)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, userID, digest, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("password_changed", slog.Int64("user_id", userID))

	return nil
}

// Authenticate проверяет access-токен и возвращает user_id.
// Любая причина отказа оборачивается в ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	const op = "service.auth.Authenticate"

	userID, err := s.subject(accessToken, token.TypeAccess)
	if err != nil {
		log.From(ctx).Debug("access_token_rejected",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

// subject декодирует токен, проверяет его тип и наличие user_id.
func (s *Service) subject(tokenStr string, expected token.Type) (int64, error) {
	claims, err := s.codec.Decode(tokenStr)
	if err != nil {
		return 0, s.reject(err)
	}

	if err := token.Require(claims, expected); err != nil {
		return 0, s.reject(err)
	}

	userID, ok := claims.Subject()
	if !ok {
		return 0, s.reject(ErrNoSubject)
	}

	return userID, nil
}

func (s *Service) reject(cause error) error {
	s.metrics.TokenRejected(rejectReason(cause))
	return fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, token.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrNoSubject):
		return "no_subject"
	default:
		return "malformed"
	}
}

// issuePair выпускает access- и refresh-токены для userID.
func (s *Service) issuePair(userID int64) (*models.TokenPair, error) {
	access, accessExp, err := s.codec.Issue(userID, token.TypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refresh, _, err := s.codec.Issue(userID, token.TypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	s.metrics.TokenIssued(token.TypeAccess.String())
	s.metrics.TokenIssued(token.TypeRefresh.String())

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: accessExp,
	}, nil
}

func (s *Service) hash(ctx context.Context, plain string) (string, error) {
	defer s.metrics.ObserveHash("hash", time.Now())

	digest, err := s.hasher.Hash(ctx, plain)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return "", err
	}

	return digest, nil
}

func (s *Service) verify(ctx context.Context, plain, digest string) (bool, error) {
	defer s.metrics.ObserveHash("verify", time.Now())

	return s.hasher.Verify(ctx, plain, digest)
}

// dummy возвращает bcrypt-дайджест фиксированного пароля с текущей стоимостью.
// Вычисляется один раз при первом неудачном входе.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.Background(), "dummy-password-for-timing")
		if err == nil {
			s.dummyDigest = digest
		}
	})

	return s.dummyDigest
}
