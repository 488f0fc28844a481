package models

import "time"

// User: учётная запись пользователя.
//
// Username и Email уникальны и сравниваются с учётом регистра.
// PasswordHash: самоописывающий bcrypt-дайджест; открытый пароль не хранится.
// DeactivatedAt != nil означает, что аккаунт деактивирован: вход, смена пароля
// и чтение профиля для него недоступны.
type User struct {
	ID            int64
	Name          string
	Username      string
	Email         string
	PasswordHash  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeactivatedAt *time.Time
}

// Active сообщает, не деактивирован ли аккаунт.
func (u *User) Active() bool {
	return u != nil && u.DeactivatedAt == nil
}
