package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/pribylovaa/btj-academy/internal/errors"
	"github.com/pribylovaa/btj-academy/internal/models"
	"github.com/pribylovaa/btj-academy/internal/service"
)

// Service: бизнес-операции, которые вызывают HTTP-ручки.
type Service interface {
	Login(ctx context.Context, identifier, plain string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, userID int64, oldPlain, newPlain string) error
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	Deactivate(ctx context.Context, userID int64) error
}

// Handlers агрегирует зависимости ручек.
type Handlers struct {
	svc      Service
	validate *validator.Validate
}

func New(svc Service) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях об ошибках поля называются так же, как в JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handlers{svc: svc, validate: v}
}

// writeJSON: единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict: строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// bind декодирует тело и валидирует его по тегам validate.
// При ошибке уже записывает ответ 400 и возвращает false.
func (h *Handlers) bind(w http.ResponseWriter, r *http.Request, value any) bool {
	if err := decodeStrict(r, value); err != nil {
		apierrors.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return false
	}

	if err := h.validate.Struct(value); err != nil {
		apierrors.Write(w, r, http.StatusBadRequest, "invalid_argument", validationMessage(err))
		return false
	}

	return true
}

// validationMessage собирает читаемое описание нарушенных правил.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid argument"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()

		switch fe.Tag() {
		case "required", "required_without":
			msgs = append(msgs, fmt.Sprintf("field %s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s is not a valid email", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}

	return strings.Join(msgs, ", ")
}

// Health: проба живости в формате исходного API.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "success", Message: "OK"})
}
