package models

import "time"

// TokenPair: пара токенов, выдаваемая при входе и обновлении сессии.
//
// Описание:
//   - AccessToken: короткоживущий JWT с token_type=access для доступа к API;
//   - RefreshToken: долгоживущий JWT с token_type=refresh для выпуска новой пары;
//   - AccessExpiresAt: момент истечения access-токена (UTC).
//
// Общий у токенов только subject (user_id).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
