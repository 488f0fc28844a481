// storage описывает контракт хранилища учётных записей.
// Реализации: postgres (pgxpool) и sqlite (modernc.org/sqlite).
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/btj-academy/internal/models"
)

var (
	// ErrNotFound: пользователь не найден (или деактивирован при activeOnly).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: нарушение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUsernameExists: username уже занят. errors.Is(err, ErrAlreadyExists) == true.
	ErrUsernameExists = fmt.Errorf("username %w", ErrAlreadyExists)
	// ErrEmailExists: email уже занят. errors.Is(err, ErrAlreadyExists) == true.
	ErrEmailExists = fmt.Errorf("email %w", ErrAlreadyExists)
)

//go:generate mockgen -destination=../../mocks/mock_storage.go -package=mocks github.com/pribylovaa/btj-academy/internal/storage UserStorage

// UserStorage выполняет операции над учётными записями.
//
// Сравнение username/email точное (с учётом регистра).
// activeOnly == true исключает деактивированные аккаунты из выборки.
type UserStorage interface {
	// SaveUser создаёт пользователя и заполняет user.ID.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByIdentifier ищет пользователя, у которого username или email равен identifier.
	UserByIdentifier(ctx context.Context, identifier string, activeOnly bool) (*models.User, error)
	// UserByID ищет пользователя по ID.
	UserByID(ctx context.Context, id int64, activeOnly bool) (*models.User, error)
	// UpdatePasswordHash заменяет дайджест пароля активного пользователя.
	UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error
	// DeactivateUser помечает активного пользователя деактивированным.
	DeactivateUser(ctx context.Context, id int64, at time.Time) error
}

// Storage: хранилище с управляемым жизненным циклом.
type Storage interface {
	UserStorage
	Ping(ctx context.Context) error
	Close()
}
