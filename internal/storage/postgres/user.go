package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/storage"
)

const userColumns = `id, name, username, email, password_hash, created_at, updated_at, deactivated_at`

// SaveUser создаёт нового пользователя в БД и заполняет user.ID.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(name, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return fmt.Errorf("%s: %w", op, storage.ErrUsernameExists)
			case "users_email_key":
				return fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
			default:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByIdentifier находит пользователя по username или email.
func (s *Storage) UserByIdentifier(ctx context.Context, identifier string, activeOnly bool) (*models.User, error) {
	const op = "storage.postgres.UserByIdentifier"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (username = $1 OR email = $1)
		  AND ($2 = false OR deactivated_at IS NULL)
		LIMIT 1
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, identifier, activeOnly))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id int64, activeOnly bool) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		  AND ($2 = false OR deactivated_at IS NULL)
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, id, activeOnly))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdatePasswordHash заменяет дайджест пароля активного пользователя.
func (s *Storage) UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error {
	const op = "storage.postgres.UpdatePasswordHash"

	query := `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1 AND deactivated_at IS NULL
	`

	tag, err := s.db.Exec(ctx, query, id, hash, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeactivateUser помечает активного пользователя деактивированным.
func (s *Storage) DeactivateUser(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.postgres.DeactivateUser"

	query := `
		UPDATE users
		SET deactivated_at = $2, updated_at = $2
		WHERE id = $1 AND deactivated_at IS NULL
	`

	tag, err := s.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
