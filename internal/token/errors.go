package token

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed: токен не разбирается: не три сегмента, битый base64/JSON,
	// нет exp или claims неверного формата.
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature: подпись не совпадает с секретом или алгоритм не HS256.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired: exp <= now. Проверяется только после успешной проверки подписи.
	ErrExpired = errors.New("token expired")

	// ErrTypeMismatch: тип токена не совпадает с ожидаемым.
	// Конкретная ошибка: *TypeMismatchError.
	ErrTypeMismatch = errors.New("token type mismatch")

	// ErrUnknownType: попытка выпустить токен с типом вне {access, refresh}.
	ErrUnknownType = errors.New("unknown token type")

	// ErrEmptySecret: кодек нельзя создать без секрета.
	ErrEmptySecret = errors.New("empty token secret")
)

// TypeMismatchError описывает несовпадение типа токена.
// errors.Is(err, ErrTypeMismatch) == true.
type TypeMismatchError struct {
	Expected Type
	Got      Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("mismatched token type, expecting token with type %s", e.Expected)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
