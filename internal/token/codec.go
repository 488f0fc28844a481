// token реализует выпуск и проверку подписанных bearer-токенов (JWT, HS256).
//
// Формат claims фиксирован: {"exp", "user_id", "token_type"}. Токены без
// состояния: отзыва нет, токен действителен до exp. Секрет передаётся в New
// и не меняется на время жизни Codec.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims: полезная нагрузка токена.
//
// UserID: указатель, чтобы отличать отсутствующий subject от нулевого.
// Из RegisteredClaims заполняется только ExpiresAt.
type Claims struct {
	UserID    *int64 `json:"user_id,omitempty"`
	TokenType Type   `json:"token_type"`
	jwt.RegisteredClaims
}

// Subject возвращает user_id, если он присутствует в токене.
func (c *Claims) Subject() (int64, bool) {
	if c == nil || c.UserID == nil {
		return 0, false
	}

	return *c.UserID, true
}

// Codec выпускает и декодирует токены. Безопасен для конкурентного использования.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт Codec с секретом подписи.
func New(secret string, opts ...Option) (*Codec, error) {
	const op = "token.New"

	if secret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}

	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Строгий base64url: у токена ровно одно строковое представление,
	// ненулевые хвостовые биты подписи не принимаются.
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)

	return c, nil
}

// Issue подписывает токен типа typ для subjectID со сроком now+ttl.
// Возвращает токен и момент его истечения (с точностью до секунды, как в exp).
func (c *Codec) Issue(subjectID int64, typ Type, ttl time.Duration) (string, time.Time, error) {
	const op = "token.Codec.Issue"

	if !typ.Valid() {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrUnknownType)
	}

	exp := jwt.NewNumericDate(c.now().Add(ttl))
	claims := Claims{
		UserID:    &subjectID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: exp,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp.Time.UTC(), nil
}

// Decode проверяет подпись и срок действия токена и возвращает его claims.
//
// Порядок проверок: разбор, подпись (HS256 этим секретом), затем exp без
// допуска (exp <= now: ErrExpired). Claims не используются до проверки подписи.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	const op = "token.Codec.Decode"

	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && c.corruptSignature(tokenStr) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
		}
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	return claims, nil
}

// corruptSignature сообщает, что заголовок и claims декодируются, а сегмент
// подписи нет. jwt относит такую ошибку к разбору, здесь это подмена подписи.
func (c *Codec) corruptSignature(tokenStr string) bool {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return false
	}

	for _, seg := range parts[:2] {
		if _, err := c.parser.DecodeSegment(seg); err != nil {
			return false
		}
	}

	_, err := c.parser.DecodeSegment(parts[2])
	return err != nil
}

// classify сводит ошибки jwt к закрытому набору ошибок пакета.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
