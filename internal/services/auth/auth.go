// Package services содержит логику бизнес-уровня для работы с пользователями
// и аутентификацией: регистрация, вход, ротация refresh-токенов и отзыв.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/focus-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/password"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает созданную запись.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email или models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID возвращает пользователя по идентификатору.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenRepository описывает контракт для работы с refresh-токенами.
type TokenRepository interface {
	// CreateRefreshToken сохраняет новый refresh-токен.
	CreateRefreshToken(ctx context.Context, token models.RefreshToken) error
	// GetRefreshToken возвращает запись токена по его значению.
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// RevokeRefreshToken помечает токен отозванным.
	RevokeRefreshToken(ctx context.Context, id string) error
	// RevokeAllUserTokens отзывает все неотозванные токены пользователя.
	RevokeAllUserTokens(ctx context.Context, userID string) error
	// DeleteExpiredTokens удаляет токены с истёкшим сроком.
	DeleteExpiredTokens(ctx context.Context) (int, error)
}

// AuthService отвечает за регистрацию, авторизацию и ротацию refresh-токенов.
type AuthService struct {
	users      UserRepository
	tokens     TokenRepository
	jwtMaker   jwt.Maker
	tokenTTL   time.Duration
	refreshTTL time.Duration
	log        *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, tokens TokenRepository, jwtMaker jwt.Maker,
	tokenTTL, refreshTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtMaker:   jwtMaker,
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// Register создает нового пользователя с хэшированием пароля и выдает пару
// токенов. Дубликат email даёт models.ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		Timezone:     "UTC",
		Status:       models.UserStatusActive,
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("registered new user", slog.String("user_id", created.ID))

	return s.generateAuthResponse(ctx, created)
}

// Login проверяет пароль пользователя и выдает свежую пару токенов.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.generateAuthResponse(ctx, user)
}

// Refresh обменивает refresh-токен на новую пару. Токен одноразовый:
// использованный отзывается, отсутствующий, истёкший или уже отозванный
// даёт models.ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, token string) (*models.AuthResponse, error) {
	stored, err := s.tokens.GetRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !stored.IsValid() {
		return nil, models.ErrInvalidRefreshToken
	}

	if err := s.tokens.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	return s.generateAuthResponse(ctx, user)
}

// Logout отзывает все неотозванные refresh-токены пользователя.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		return err
	}
	s.log.Info("revoked all user tokens", slog.String("user_id", userID))
	return nil
}

// CleanupExpiredTokens удаляет refresh-токены с истёкшим сроком.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int, error) {
	count, err := s.tokens.DeleteExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("deleted expired refresh tokens", slog.Int("count", count))
	}
	return count, nil
}

func (s *AuthService) generateAuthResponse(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := newRefreshTokenValue()
	if err != nil {
		return nil, err
	}
	record := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokens.CreateRefreshToken(ctx, record); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		User:         user,
	}, nil
}

// newRefreshTokenValue генерирует непрозрачное значение refresh-токена:
// 64 случайных байта в hex-представлении.
func newRefreshTokenValue() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
