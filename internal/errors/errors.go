// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервиса (sentinel-значения пакетов service и token),
// на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Ответы 401 по непринятому bearer-токену несут заголовок WWW-Authenticate: Bearer.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/btj-academy/internal/service"
	"github.com/pribylovaa/btj-academy/internal/token"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrTooManyRequests: сработал rate limit.
var ErrTooManyRequests = stderrors.New("too many requests")

// Сообщения, которые видит клиент.
const (
	MsgCouldNotValidate = "could not validate credentials"
	MsgTokenExpired     = "token expired"
	MsgLoginFailed      = "login failed, make sure your credentials are correct and try again"
	MsgIncorrectPass    = "incorrect password"
)

// APIError: единый формат для фронта.
// Code: короткий стабильный код для машиночитаемой обработки на FE.
// Message: безопасное человекочитаемое описание.
// RequestID: прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse: корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil (программная ошибка вызова) -> 500/internal;
//   - ErrUnauthenticated: 401 с диагностикой (истёк, не тот тип, прочее);
//   - ErrInvalidCredentials: 401 с единым сообщением о неудачном входе;
//   - ErrNotFound -> 404, ErrAlreadyTaken -> 409, ErrInvalidArgument -> 400;
//   - отмена/дедлайн контекста: 499/504;
//   - прочее: 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError: хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if stderrors.Is(err, service.ErrUnauthenticated) {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	write(w, r, status, resp)
}

// Write пишет ошибку с явно заданными статусом, кодом и сообщением.
// Нужен там, где ручка уточняет общий маппинг.
func Write(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	write(w, r, status, ErrorResponse{Error: APIError{Code: code, Message: msg}})
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func classify(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", unauthenticatedMessage(err)
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", MsgLoginFailed
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "user not found"
	case stderrors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "already_exists", "username already taken"
	case stderrors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already taken"
	case stderrors.Is(err, service.ErrAlreadyTaken):
		return http.StatusConflict, "already_exists", "already exists"
	case stderrors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case stderrors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "resource_exhausted", "too many requests"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func unauthenticatedMessage(err error) string {
	var mm *token.TypeMismatchError
	switch {
	case stderrors.Is(err, token.ErrExpired):
		return MsgTokenExpired
	case stderrors.As(err, &mm):
		return mm.Error()
	default:
		return MsgCouldNotValidate
	}
}
