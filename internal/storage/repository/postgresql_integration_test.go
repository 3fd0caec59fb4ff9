package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

func TestStorage_CreateUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	user := models.User{
		Email:        "alice@example.com",
		PasswordHash: "hashedpassword",
		Name:         "Alice",
		Timezone:     "UTC",
		Status:       models.UserStatusActive,
	}

	created, err := storage.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, models.UserStatusActive, created.Status)

	// повторная регистрация того же email
	_, err = storage.CreateUser(ctx, user)
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestStorage_GetUserByEmail(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice@example.com", "Alice")

	got, err := storage.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = storage.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_CreateTask(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")

	icon := "brain"
	color := "#3B82F6"
	created, err := storage.CreateTask(ctx, models.Task{
		UserID:   userID,
		Title:    "Deep work",
		Icon:     &icon,
		Color:    &color,
		IsActive: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Deep work", created.Title)
	assert.Equal(t, int64(0), created.TotalTime)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.Color)
	assert.Equal(t, "#3B82F6", *created.Color)
}

func TestStorage_GetTaskByID(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	owner := factory.CreateUser(t, "alice@example.com", "Alice")
	other := factory.CreateUser(t, "bob@example.com", "Bob")
	taskID := factory.CreateTask(t, owner, "Deep work", true)

	got, err := storage.GetTaskByID(ctx, taskID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Deep work", got.Title)

	// чужая задача неотличима от несуществующей
	_, err = storage.GetTaskByID(ctx, taskID, other)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = storage.GetTaskByID(ctx, uuid.New().String(), owner)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_ListTasksByUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	factory.CreateTask(t, userID, "Active one", true)
	factory.CreateTask(t, userID, "Active two", true)
	factory.CreateTask(t, userID, "Archived", false)

	all, err := storage.ListTasksByUser(ctx, userID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := storage.ListTasksByUser(ctx, userID, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	empty, err := storage.ListTasksByUser(ctx, uuid.New().String(), false)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStorage_UpdateTask(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	taskID := factory.CreateTask(t, userID, "Old title", true)

	task, err := storage.GetTaskByID(ctx, taskID, userID)
	require.NoError(t, err)
	task.Title = "New title"
	task.IsActive = false

	updated, err := storage.UpdateTask(ctx, *task)
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.False(t, updated.IsActive)
}

func TestStorage_DeleteTask(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	taskID := factory.CreateTask(t, userID, "Deep work", true)

	// завершённая сессия, ссылавшаяся на задачу, переживает удаление
	sessionID := factory.CreateSession(t, userID, &taskID, time.Now().Add(-time.Hour), models.SessionStatusCompleted)

	require.NoError(t, storage.DeleteTask(ctx, taskID, userID))

	verification := NewTestVerification(storage)
	verification.VerifyTaskDeleted(t, taskID)

	session, err := storage.GetSessionByID(ctx, sessionID, userID)
	require.NoError(t, err)
	assert.Nil(t, session.TaskID)

	assert.ErrorIs(t, storage.DeleteTask(ctx, taskID, userID), models.ErrNotFound)
}

func TestStorage_IncrementTaskTotalTime(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	taskID := factory.CreateTask(t, userID, "Deep work", true)

	require.NoError(t, storage.IncrementTaskTotalTime(ctx, taskID, userID, 1500))
	require.NoError(t, storage.IncrementTaskTotalTime(ctx, taskID, userID, 300))

	verification := NewTestVerification(storage)
	verification.VerifyTaskTotalTime(t, taskID, 1800)

	task, err := storage.GetTaskByID(ctx, taskID, userID)
	require.NoError(t, err)
	assert.NotNil(t, task.LastUsed)

	assert.ErrorIs(t, storage.IncrementTaskTotalTime(ctx, uuid.New().String(), userID, 10), models.ErrNotFound)
}

func TestStorage_GetTaskStats(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	active := factory.CreateTask(t, userID, "Active", true)
	factory.CreateTask(t, userID, "Archived", false)
	require.NoError(t, storage.IncrementTaskTotalTime(ctx, active, userID, 4500))

	stats, err := storage.GetTaskStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, int64(4500), stats.TotalTime)

	// пользователь без задач получает нули
	empty, err := storage.GetTaskStats(ctx, factory.CreateUser(t, "bob@example.com", "Bob"))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, int64(0), empty.TotalTime)
}

func TestStorage_CreateSession(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")

	created, err := storage.CreateSession(ctx, models.TimerSession{
		UserID:    userID,
		StartTime: time.Now(),
		Status:    models.SessionStatusActive,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.SessionStatusActive, created.Status)

	// частичный уникальный индекс не допускает вторую незавершенную сессию
	_, err = storage.CreateSession(ctx, models.TimerSession{
		UserID:    userID,
		StartTime: time.Now(),
		Status:    models.SessionStatusActive,
	})
	assert.ErrorIs(t, err, models.ErrActiveSessionExists)
}

func TestStorage_GetActiveSessionByUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")

	// без незавершенных сессий — nil без ошибки
	got, err := storage.GetActiveSessionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// завершённые сессии не учитываются
	factory.CreateSession(t, userID, nil, time.Now().Add(-2*time.Hour), models.SessionStatusCompleted)
	sessionID := factory.CreateSession(t, userID, nil, time.Now(), models.SessionStatusPaused)

	got, err = storage.GetActiveSessionByUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sessionID, got.ID)
}

func TestStorage_UpdateSession(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	sessionID := factory.CreateSession(t, userID, nil, time.Now().Add(-time.Hour), models.SessionStatusActive)

	session, err := storage.GetSessionByID(ctx, sessionID, userID)
	require.NoError(t, err)

	endTime := time.Now()
	session.EndTime = &endTime
	session.Duration = 3600
	session.Status = models.SessionStatusCompleted
	session.FaceStats = map[string]any{"focused": 0.85}
	require.NoError(t, storage.UpdateSession(ctx, session))

	got, err := storage.GetSessionByID(ctx, sessionID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, got.Status)
	assert.Equal(t, int64(3600), got.Duration)
	assert.NotNil(t, got.EndTime)
	assert.Equal(t, 0.85, got.FaceStats["focused"])

	// обновление чужой сессии не затрагивает строк
	session.UserID = uuid.New().String()
	assert.ErrorIs(t, storage.UpdateSession(ctx, session), models.ErrNotFound)
}

func TestStorage_ListSessionsByUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")

	base := time.Now().Add(-24 * time.Hour)
	factory.CreateSession(t, userID, nil, base, models.SessionStatusCompleted)
	factory.CreateSession(t, userID, nil, base.Add(time.Hour), models.SessionStatusCancelled)
	newest := factory.CreateSession(t, userID, nil, base.Add(2*time.Hour), models.SessionStatusCompleted)

	sessions, err := storage.ListSessionsByUser(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newest, sessions[0].ID)
}

func TestStorage_PauseLifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	sessionID := factory.CreateSession(t, userID, nil, time.Now().Add(-time.Hour), models.SessionStatusActive)

	session, err := storage.GetSessionByID(ctx, sessionID, userID)
	require.NoError(t, err)

	// открытие паузы вместе с переводом сессии в paused
	session.Status = models.SessionStatusPaused
	session.PauseCount = 1
	pause, err := storage.CreatePauseAndUpdateSession(ctx, models.SessionPause{
		SessionID:  sessionID,
		PauseStart: time.Now(),
	}, session)
	require.NoError(t, err)
	assert.NotEmpty(t, pause.ID)
	assert.Nil(t, pause.PauseEnd)

	verification := NewTestVerification(storage)
	verification.VerifySessionStatus(t, sessionID, models.SessionStatusPaused)

	open, err := storage.GetOpenPause(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, pause.ID, open.ID)

	// закрытие паузы вместе с возвратом сессии в active
	pauseEnd := time.Now()
	duration := int64(90)
	open.PauseEnd = &pauseEnd
	open.Duration = &duration
	session.Status = models.SessionStatusActive
	session.TotalPauseTime = 90
	require.NoError(t, storage.ClosePauseAndUpdateSession(ctx, open, session))

	verification.VerifySessionStatus(t, sessionID, models.SessionStatusActive)

	closed, err := storage.GetOpenPause(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, closed)

	pauses, err := storage.ListPausesBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	require.NotNil(t, pauses[0].Duration)
	assert.Equal(t, int64(90), *pauses[0].Duration)
}

func TestStorage_RefreshTokens(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")

	require.NoError(t, storage.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:    userID,
		Token:     "token-value",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	stored, err := storage.GetRefreshToken(ctx, "token-value")
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
	assert.False(t, stored.IsRevoked)
	assert.True(t, stored.IsValid())

	require.NoError(t, storage.RevokeRefreshToken(ctx, stored.ID))
	revoked, err := storage.GetRefreshToken(ctx, "token-value")
	require.NoError(t, err)
	assert.True(t, revoked.IsRevoked)

	_, err = storage.GetRefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_RevokeAllUserTokens(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")
	other := factory.CreateUser(t, "bob@example.com", "Bob")

	for _, token := range []string{"token-1", "token-2"} {
		require.NoError(t, storage.CreateRefreshToken(ctx, models.RefreshToken{
			UserID:    userID,
			Token:     token,
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
	require.NoError(t, storage.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:    other,
		Token:     "token-other",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, storage.RevokeAllUserTokens(ctx, userID))

	for _, token := range []string{"token-1", "token-2"} {
		stored, err := storage.GetRefreshToken(ctx, token)
		require.NoError(t, err)
		assert.True(t, stored.IsRevoked)
	}
	untouched, err := storage.GetRefreshToken(ctx, "token-other")
	require.NoError(t, err)
	assert.False(t, untouched.IsRevoked)
}

func TestStorage_DeleteExpiredTokens(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "alice@example.com", "Alice")

	require.NoError(t, storage.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:    userID,
		Token:     "expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, storage.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:    userID,
		Token:     "fresh",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	count, err := storage.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = storage.GetRefreshToken(ctx, "expired")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = storage.GetRefreshToken(ctx, "fresh")
	assert.NoError(t, err)
}
