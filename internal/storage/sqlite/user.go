package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/storage"
)

const userColumns = `id, name, username, email, password_hash, created_at, updated_at, deactivated_at`

// SaveUser создаёт нового пользователя в БД и заполняет user.ID.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.sqlite.SaveUser"

	query := `
		INSERT INTO users(name, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, uniqueViolation(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id

	return nil
}

// UserByIdentifier находит пользователя по username или email.
func (s *Storage) UserByIdentifier(ctx context.Context, identifier string, activeOnly bool) (*models.User, error) {
	const op = "storage.sqlite.UserByIdentifier"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (username = ?1 OR email = ?1)
		  AND (?2 = 0 OR deactivated_at IS NULL)
		LIMIT 1
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, identifier, activeOnly))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id int64, activeOnly bool) (*models.User, error) {
	const op = "storage.sqlite.UserByID"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?1
		  AND (?2 = 0 OR deactivated_at IS NULL)
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id, activeOnly))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdatePasswordHash заменяет дайджест пароля активного пользователя.
func (s *Storage) UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error {
	const op = "storage.sqlite.UpdatePasswordHash"

	query := `
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND deactivated_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, hash, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return affectedOne(op, res)
}

// DeactivateUser помечает активного пользователя деактивированным.
func (s *Storage) DeactivateUser(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.sqlite.DeactivateUser"

	query := `
		UPDATE users
		SET deactivated_at = ?1, updated_at = ?1
		WHERE id = ?2 AND deactivated_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return affectedOne(op, res)
}

func affectedOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// uniqueViolation переводит ошибку UNIQUE-ограничения SQLite в ошибку storage.
func uniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}

	switch {
	case strings.Contains(msg, "users.username"):
		return storage.ErrUsernameExists
	case strings.Contains(msg, "users.email"):
		return storage.ErrEmailExists
	default:
		return storage.ErrAlreadyExists
	}
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user                 models.User
		createdAt, updatedAt string
		deactivatedAt        sql.NullString
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
		&deactivatedAt,
	)
	if err != nil {
		return nil, err
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if deactivatedAt.Valid {
		at, err := parseTime(deactivatedAt.String)
		if err != nil {
			return nil, err
		}
		user.DeactivatedAt = &at
	}

	return &user, nil
}

// Время хранится текстом в UTC (RFC 3339 с наносекундами).
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}

	return t, nil
}
