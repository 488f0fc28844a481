package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/pkg/log"
	"github.com/pribylovaa/btj-academy/internal/pkg/redact"
	"github.com/pribylovaa/btj-academy/internal/storage"
)

// RegisterInput: данные для создания учётной записи.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Register создаёт учётную запись. Username и email сохраняются как есть:
// сравнение при входе учитывает регистр.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "service.users.Register"

	lg := log.From(ctx)

	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	digest, err := s.hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameExists):
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		case errors.Is(err, storage.ErrEmailExists):
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyTaken)
		}

		lg.Error("save_user_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, nil
}

// Profile возвращает активного пользователя по ID.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	const op = "service.users.Profile"

	user, err := s.storage.UserByID(ctx, userID, true)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Deactivate деактивирует аккаунт. Выпущенные токены остаются действительными
// до exp, но вход, смена пароля и чтение профиля для аккаунта становятся недоступны.
func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	const op = "service.users.Deactivate"

	if err := s.storage.DeactivateUser(ctx, userID, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_deactivated", slog.Int64("user_id", userID))

	return nil
}
