package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/storage"
)

// Интеграционные тесты для пакета postgres:
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет миграцию migrations/1_init_users.up.sql;
// - проверяет поиск по username/email с учётом регистра, фильтр деактивированных,
//   уникальность username/email, смену пароля и деактивацию.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile: корень репозитория относительно файла тестов.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration: читает SQL-миграцию из каталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres: поднимает временный PostgreSQL, применяет миграцию и
// возвращает хранилище. Без GO_TEST_INTEGRATION тест пропускается.
func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		pool, err = pgxpool.New(ctx, dsn)
		return err == nil && pool.Ping(ctx) == nil
	}, 30*time.Second, 500*time.Millisecond)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_users.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	return st
}

func newUser(username, email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		Name:         "Test User",
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_SaveUser_And_Lookup_OK(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := newUser("alice", "alice@example.com")
	require.NoError(t, st.SaveUser(ctx, u))
	require.NotZero(t, u.ID)

	byName, err := st.UserByIdentifier(ctx, "alice", true)
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)
	require.Equal(t, "Test User", byName.Name)
	require.Equal(t, u.PasswordHash, byName.PasswordHash)
	require.WithinDuration(t, u.CreatedAt, byName.CreatedAt, time.Second)
	require.Nil(t, byName.DeactivatedAt)

	byEmail, err := st.UserByIdentifier(ctx, "alice@example.com", true)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byID, err := st.UserByID(ctx, u.ID, true)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)
}

func TestIntegration_UserByIdentifier_CaseSensitive(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.SaveUser(ctx, newUser("Bob", "Bob@example.com")))

	_, err := st.UserByIdentifier(ctx, "bob", true)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByIdentifier(ctx, "bob@example.com", true)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SaveUser_Uniqueness(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.SaveUser(ctx, newUser("carol", "carol@example.com")))

	err := st.SaveUser(ctx, newUser("carol", "other@example.com"))
	require.ErrorIs(t, err, storage.ErrUsernameExists)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	err = st.SaveUser(ctx, newUser("other", "carol@example.com"))
	require.ErrorIs(t, err, storage.ErrEmailExists)

	// Регистр различается: это другой пользователь.
	require.NoError(t, st.SaveUser(ctx, newUser("Carol", "Carol@example.com")))
}

func TestIntegration_Deactivate_HidesUser(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := newUser("dave", "dave@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	at := time.Now().UTC()
	require.NoError(t, st.DeactivateUser(ctx, u.ID, at))

	_, err := st.UserByIdentifier(ctx, "dave", true)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = st.UserByID(ctx, u.ID, true)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := st.UserByID(ctx, u.ID, false)
	require.NoError(t, err)
	require.NotNil(t, got.DeactivatedAt)
	require.WithinDuration(t, at, *got.DeactivatedAt, time.Second)

	require.ErrorIs(t, st.DeactivateUser(ctx, u.ID, at), storage.ErrNotFound)
	require.ErrorIs(t, st.UpdatePasswordHash(ctx, u.ID, "x", at), storage.ErrNotFound)
}

func TestIntegration_UpdatePasswordHash(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := newUser("erin", "erin@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	at := u.UpdatedAt.Add(time.Minute)
	require.NoError(t, st.UpdatePasswordHash(ctx, u.ID, "$2a$04$new", at))

	got, err := st.UserByID(ctx, u.ID, true)
	require.NoError(t, err)
	require.Equal(t, "$2a$04$new", got.PasswordHash)
	require.WithinDuration(t, at, got.UpdatedAt, time.Second)

	require.ErrorIs(t, st.UpdatePasswordHash(ctx, 999_999, "x", at), storage.ErrNotFound)
}

func TestIntegration_ContextCanceled(t *testing.T) {
	st := startPostgres(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByID(ctx, 1, true)
	require.ErrorIs(t, err, context.Canceled)
}
