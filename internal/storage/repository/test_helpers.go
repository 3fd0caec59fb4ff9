package repository

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его id
func (f *TestDataFactory) CreateUser(t *testing.T, email, name string) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3) RETURNING id`,
		email, "hashedpassword", name).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateTask создает тестовую задачу и возвращает её id
func (f *TestDataFactory) CreateTask(t *testing.T, userID, title string, isActive bool) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO tasks (user_id, title, is_active)
		VALUES ($1, $2, $3) RETURNING id`,
		userID, title, isActive).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSession создает тестовую сессию и возвращает её id
func (f *TestDataFactory) CreateSession(t *testing.T, userID string, taskID *string,
	startTime time.Time, status models.SessionStatus) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO timer_sessions (user_id, task_id, start_time, status)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		userID, taskID, startTime, string(status)).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreatePause создает интервал паузы; pauseEnd со значением nil оставляет паузу открытой
func (f *TestDataFactory) CreatePause(t *testing.T, sessionID string, pauseStart time.Time, pauseEnd *time.Time) string {
	var id string
	var duration *int64
	if pauseEnd != nil {
		d := int64(pauseEnd.Sub(pauseStart) / time.Second)
		duration = &d
	}
	err := f.storage.DB.QueryRow(`INSERT INTO session_pauses (session_id, pause_start, pause_end, duration)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		sessionID, pauseStart, pauseEnd, duration).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyTaskDeleted проверяет удаление задачи из БД
func (v *TestVerification) VerifyTaskDeleted(t *testing.T, taskID string) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM tasks WHERE id = $1", taskID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

// VerifySessionStatus проверяет статус сессии в БД
func (v *TestVerification) VerifySessionStatus(t *testing.T, sessionID string, expected models.SessionStatus) {
	var status string
	err := v.storage.DB.QueryRow("SELECT status FROM timer_sessions WHERE id = $1", sessionID).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, string(expected), status)
}

// VerifyTaskTotalTime проверяет накопленное время задачи
func (v *TestVerification) VerifyTaskTotalTime(t *testing.T, taskID string, expected int64) {
	var totalTime int64
	err := v.storage.DB.QueryRow("SELECT total_time FROM tasks WHERE id = $1", taskID).Scan(&totalTime)
	require.NoError(t, err)
	require.Equal(t, expected, totalTime)
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			err = storage.DB.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	// Создаем таблицы
	_, err = storage.DB.Exec(`
        CREATE EXTENSION IF NOT EXISTS pgcrypto;

        CREATE TABLE users (
            id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email           VARCHAR(255) NOT NULL UNIQUE,
            password_hash   VARCHAR(255) NOT NULL,
            name            VARCHAR(100) NOT NULL,
            avatar          VARCHAR(500),
            timezone        VARCHAR(50) NOT NULL DEFAULT 'UTC',
            settings        JSONB NOT NULL DEFAULT '{}',
            status          TEXT NOT NULL DEFAULT 'active'
                            CHECK (status IN ('active', 'inactive', 'suspended')),
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
            deleted_at      TIMESTAMPTZ
        );

        CREATE TABLE tasks (
            id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id         UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            title           VARCHAR(200) NOT NULL,
            icon            VARCHAR(100),
            color           VARCHAR(50),
            is_active       BOOLEAN NOT NULL DEFAULT TRUE,
            total_time      BIGINT NOT NULL DEFAULT 0 CHECK (total_time >= 0),
            last_used       TIMESTAMPTZ,
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
        );

        CREATE TABLE timer_sessions (
            id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id             UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            task_id             UUID REFERENCES tasks (id) ON DELETE SET NULL,
            start_time          TIMESTAMPTZ NOT NULL,
            end_time            TIMESTAMPTZ,
            duration            BIGINT NOT NULL DEFAULT 0,
            pause_count         INTEGER NOT NULL DEFAULT 0,
            total_pause_time    BIGINT NOT NULL DEFAULT 0,
            status              TEXT NOT NULL DEFAULT 'active'
                                CHECK (status IN ('active', 'paused', 'completed', 'cancelled')),
            face_stats_summary  JSONB,
            created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
        );

        CREATE UNIQUE INDEX uniq_sessions_user_running
            ON timer_sessions (user_id)
            WHERE status IN ('active', 'paused');

        CREATE TABLE session_pauses (
            id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            session_id      UUID NOT NULL REFERENCES timer_sessions (id) ON DELETE CASCADE,
            pause_start     TIMESTAMPTZ NOT NULL,
            pause_end       TIMESTAMPTZ,
            duration        BIGINT,
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
        );

        CREATE TABLE refresh_tokens (
            id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id         UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            token           VARCHAR(255) NOT NULL UNIQUE,
            expires_at      TIMESTAMPTZ NOT NULL,
            is_revoked      BOOLEAN NOT NULL DEFAULT FALSE,
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
        );
    `)
	require.NoError(t, err, "failed to create tables")

	cleanup := func() {
		_ = storage.DB.Close()
		_ = postgresContainer.Terminate(ctx)
	}
	return storage, cleanup
}
