// Package models содержит доменные структуры трекера времени: пользователей,
// задачи, таймерные сессии и паузы, а также вспомогательные типы для приёма
// данных из JSON-запросов.
package models

import (
	"encoding/json"
	"time"
)

// UserStatus описывает статус учётной записи пользователя.
type UserStatus string

const (
	// UserStatusActive — обычная активная учётная запись.
	UserStatusActive UserStatus = "active"
	// UserStatusInactive — учётная запись отключена самим пользователем.
	UserStatusInactive UserStatus = "inactive"
	// UserStatusSuspended — учётная запись заблокирована администрацией.
	UserStatusSuspended UserStatus = "suspended"
)

// User представляет зарегистрированного пользователя системы.
// Хэш пароля никогда не сериализуется наружу.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Name         string          `json:"name"`
	Avatar       *string         `json:"avatar,omitempty"`
	Timezone     string          `json:"timezone"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	Status       UserStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"-"`
}

// RegisterRequest используется для приёма данных регистрации из JSON-запроса.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest используется для приёма учётных данных из JSON-запроса.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest используется для приёма refresh-токена из JSON-запроса.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse — пара токенов с данными пользователя, возвращаемая
// регистрацией, входом и обновлением токена.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}
