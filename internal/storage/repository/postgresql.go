// Package repository реализует хранилище данных на основе PostgreSQL
// для трекера времени. Предоставляет методы работы с пользователями,
// задачами, таймерными сессиями, паузами и refresh-токенами.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBTX описывает общий контракт *sql.DB и *sql.Tx: методы хранилища
// выполняются либо над соединением, либо внутри открытой транзакции.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
	db DBTX
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db, db: db}, nil
}

// withinTx выполняет fn над копией Storage, привязанной к транзакции.
// При ошибке транзакция откатывается.
func (s *Storage) withinTx(ctx context.Context, fn func(r *Storage) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Storage{DB: s.DB, db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
