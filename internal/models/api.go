// Входные/выходные модели под REST.
package models

import "time"

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required_without=Username"`
	Username   string `json:"username"` // прежнее имя поля, принимается как identifier
	Password   string `json:"password" validate:"required"`
}

// Login возвращает идентификатор входа с учётом устаревшего поля username.
func (r LoginRequest) Login() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Username
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresAt int64  `json:"access_expires_at"` // Unix UTC
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"` // Unix UTC
	UpdatedAt int64  `json:"updated_at"` // Unix UTC
}

// StatusResponse: ответ ручек без полезной нагрузки.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func TokenPairToResponse(p *TokenPair) TokenResponse {
	if p == nil {
		return TokenResponse{}
	}

	return TokenResponse{
		AccessToken:     p.AccessToken,
		RefreshToken:    p.RefreshToken,
		AccessExpiresAt: unix(p.AccessExpiresAt),
	}
}

func UserToResponse(u *User) UserResponse {
	if u == nil {
		return UserResponse{}
	}

	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: unix(u.CreatedAt),
		UpdatedAt: unix(u.UpdatedAt),
	}
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().Unix()
}
