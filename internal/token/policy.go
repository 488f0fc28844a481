package token

// Require проверяет, что токен имеет ожидаемый тип.
// Сравнение точное: access не проходит там, где нужен refresh, и наоборот.
func Require(claims *Claims, expected Type) error {
	got := TypeUnknown
	if claims != nil {
		got = claims.TokenType
	}

	if !expected.Valid() || got != expected {
		return &TypeMismatchError{Expected: expected, Got: got}
	}

	return nil
}
