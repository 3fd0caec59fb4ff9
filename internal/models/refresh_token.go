package models

import "time"

// RefreshToken — непрозрачный одноразовый токен обновления.
// Хранится до истечения срока либо до отзыва; при использовании отзывается
// и заменяется новым (ротация).
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid сообщает, можно ли обменять токен на новую пару.
func (t *RefreshToken) IsValid() bool {
	return !t.IsRevoked && time.Now().Before(t.ExpiresAt)
}
