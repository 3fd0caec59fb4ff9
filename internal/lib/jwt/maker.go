// Package jwt реализует генерацию и парсинг access-токенов с пользовательскими
// claim-полями.
//
// Maker определяет интерфейс для создания и проверки токенов, несущих
// идентификатор пользователя (subject) и email.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга access-токенов.
type Maker interface {
	// GenerateToken создает токен для пользователя userID с email в claims.
	GenerateToken(userID, email string) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен и не истёк.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TokenTTL возвращает время жизни выдаваемых токенов.
func (j *MakerImpl) TokenTTL() time.Duration {
	return j.tokenTTL
}
