// password хеширует и проверяет пароли (bcrypt).
//
// Вычисления bcrypt выполняются в отдельной горутине под семафором,
// ограничивающим их число. Вызывающий может перестать ждать результат
// по отмене контекста; начатое вычисление доигрывается в фоне и освобождает слот.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrTooLong: пароль длиннее 72 байт, bcrypt его не принимает.
var ErrTooLong = errors.New("password is longer than 72 bytes")

// Hasher: хешер паролей с фиксированной стоимостью bcrypt.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// New создаёт Hasher. cost вне [bcrypt.MinCost, bcrypt.MaxCost] заменяется на
// bcrypt.DefaultCost; concurrency <= 0: GOMAXPROCS.
func New(cost, concurrency int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

// Hash возвращает самоописывающий дайджест ($2a$<cost>$<salt><hash>) со свежей солью.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	const op = "password.Hasher.Hash"

	var (
		digest []byte
		err    error
	)
	if runErr := h.run(ctx, func() {
		digest, err = bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	}); runErr != nil {
		return "", fmt.Errorf("%s: %w", op, runErr)
	}

	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, ErrTooLong)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(digest), nil
}

// Verify сравнивает пароль с дайджестом за постоянное время.
// Несовпадение и битый дайджест дают false без ошибки;
// ошибка возвращается только при отмене контекста.
func (h *Hasher) Verify(ctx context.Context, plain, digest string) (bool, error) {
	const op = "password.Hasher.Verify"

	var err error
	if runErr := h.run(ctx, func() {
		err = bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	}); runErr != nil {
		return false, fmt.Errorf("%s: %w", op, runErr)
	}

	return err == nil, nil
}

// run выполняет fn под семафором в отдельной горутине.
// Результаты fn можно читать только если run вернул nil.
func (h *Hasher) run(ctx context.Context, fn func()) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer h.sem.Release(1)
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
