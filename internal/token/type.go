package token

import "fmt"

// Type: назначение токена. Набор значений закрыт: Access и Refresh.
// Нулевое значение TypeUnknown получает токен без тега или с неизвестным тегом;
// такой токен не проходит Require ни для одного ожидаемого типа.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeAccess
	TypeRefresh
)

const (
	accessTag  = "access"
	refreshTag = "refresh"
)

// String возвращает тег типа в том виде, в каком он лежит в токене.
func (t Type) String() string {
	switch t {
	case TypeAccess:
		return accessTag
	case TypeRefresh:
		return refreshTag
	default:
		return "unknown"
	}
}

// Valid сообщает, является ли t одним из известных типов.
func (t Type) Valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

// MarshalText кодирует тип в claim token_type.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}

	return []byte(t.String()), nil
}

// UnmarshalText декодирует claim token_type. Неизвестный тег не является
// ошибкой разбора: он превращается в TypeUnknown и отсекается политикой типа.
func (t *Type) UnmarshalText(b []byte) error {
	switch string(b) {
	case accessTag:
		*t = TypeAccess
	case refreshTag:
		*t = TypeRefresh
	default:
		*t = TypeUnknown
	}

	return nil
}
