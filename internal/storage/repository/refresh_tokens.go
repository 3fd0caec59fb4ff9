package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// CreateRefreshToken сохраняет новый refresh-токен пользователя.
func (s *Storage) CreateRefreshToken(ctx context.Context, token models.RefreshToken) error {
	const op = "storage.CreateRefreshToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO refresh_tokens (user_id, token, expires_at)
			  VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, token.UserID, token.Token, token.ExpiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetRefreshToken возвращает запись refresh-токена по его значению.
func (s *Storage) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "storage.GetRefreshToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, token, expires_at, is_revoked, created_at
			  FROM refresh_tokens
			  WHERE token = $1`
	t := &models.RefreshToken{}
	row := s.db.QueryRowContext(ctx, query, token)
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// RevokeRefreshToken помечает токен отозванным (однократное использование).
func (s *Storage) RevokeRefreshToken(ctx context.Context, id string) error {
	const op = "storage.RevokeRefreshToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RevokeAllUserTokens отзывает все неотозванные токены пользователя.
func (s *Storage) RevokeAllUserTokens(ctx context.Context, userID string) error {
	const op = "storage.RevokeAllUserTokens"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE refresh_tokens
			  SET is_revoked = TRUE
			  WHERE user_id = $1 AND is_revoked = FALSE`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteExpiredTokens удаляет токены с истёкшим сроком и возвращает их количество.
func (s *Storage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	const op = "storage.DeleteExpiredTokens"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM refresh_tokens WHERE expires_at < now()`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
