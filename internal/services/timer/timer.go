// Package services содержит машину состояний таймерных сессий: запуск, пауза,
// возобновление, остановка и отмена, с учётом пауз при начислении времени задаче.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// DefaultHistoryLimit — количество сессий в истории по умолчанию.
const DefaultHistoryLimit = 20

// SessionRepository определяет методы для работы с сессиями и паузами в хранилище.
type SessionRepository interface {
	// CreateSession добавляет новую сессию и возвращает созданную запись.
	CreateSession(ctx context.Context, session models.TimerSession) (*models.TimerSession, error)
	// GetSessionByID возвращает сессию, принадлежащую userID.
	GetSessionByID(ctx context.Context, id, userID string) (*models.TimerSession, error)
	// GetActiveSessionByUser возвращает активную или приостановленную сессию либо nil.
	GetActiveSessionByUser(ctx context.Context, userID string) (*models.TimerSession, error)
	// UpdateSession перезаписывает изменяемые поля сессии.
	UpdateSession(ctx context.Context, session *models.TimerSession) error
	// ListSessionsByUser возвращает сессии пользователя, новые первыми.
	ListSessionsByUser(ctx context.Context, userID string, limit int) ([]*models.TimerSession, error)
	// CreatePauseAndUpdateSession атомарно открывает паузу и сохраняет сессию.
	CreatePauseAndUpdateSession(ctx context.Context, pause models.SessionPause, session *models.TimerSession) (*models.SessionPause, error)
	// ClosePauseAndUpdateSession атомарно закрывает паузу (если задана) и сохраняет сессию.
	ClosePauseAndUpdateSession(ctx context.Context, pause *models.SessionPause, session *models.TimerSession) error
	// GetOpenPause возвращает открытую паузу сессии либо nil.
	GetOpenPause(ctx context.Context, sessionID string) (*models.SessionPause, error)
	// ListPausesBySession возвращает паузы сессии в хронологическом порядке.
	ListPausesBySession(ctx context.Context, sessionID string) ([]*models.SessionPause, error)
}

// TaskProvider — контракт таймерного сервиса к сервису задач: проверка
// принадлежности задачи и начисление отработанного времени.
type TaskProvider interface {
	GetByID(ctx context.Context, id, userID string) (*models.Task, error)
	IncrementTotalTime(ctx context.Context, id, userID string, deltaSeconds int64) error
}

// TimerService реализует машину состояний таймерных сессий.
type TimerService struct {
	repo  SessionRepository
	tasks TaskProvider
	log   *slog.Logger
	now   func() time.Time
}

// NewTimerService создает новый экземпляр TimerService.
func NewTimerService(repo SessionRepository, tasks TaskProvider, log *slog.Logger) *TimerService {
	return &TimerService{
		repo:  repo,
		tasks: tasks,
		log:   log,
		now:   time.Now,
	}
}

// Start запускает новую сессию. У пользователя не может быть более одной
// активной или приостановленной сессии; запуск при существующей даёт
// models.ErrActiveSessionExists. Если задан taskID, задача должна существовать
// и принадлежать пользователю.
func (s *TimerService) Start(ctx context.Context, userID string, taskID *string) (*models.TimerSession, error) {
	active, err := s.repo.GetActiveSessionByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, models.ErrActiveSessionExists
	}

	if taskID != nil {
		if _, err := s.tasks.GetByID(ctx, *taskID, userID); err != nil {
			return nil, err
		}
	}

	session := models.TimerSession{
		UserID:    userID,
		TaskID:    taskID,
		StartTime: s.now(),
		Status:    models.SessionStatusActive,
	}
	// гонка двух одновременных запусков гасится частичным уникальным
	// индексом на уровне хранилища
	created, err := s.repo.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	s.log.Info("timer started",
		slog.String("session_id", created.ID), slog.String("user_id", userID))
	return created, nil
}

// Pause приостанавливает активную сессию: открывает новую паузу и увеличивает
// счётчик пауз. Допустимо только из состояния active.
func (s *TimerService) Pause(ctx context.Context, sessionID, userID string) (*models.TimerSession, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.CanBePaused() {
		return nil, models.ErrInvalidSessionState
	}

	session.Status = models.SessionStatusPaused
	session.PauseCount++
	pause := models.SessionPause{
		SessionID:  session.ID,
		PauseStart: s.now(),
	}
	if _, err := s.repo.CreatePauseAndUpdateSession(ctx, pause, session); err != nil {
		return nil, err
	}

	s.log.Info("timer paused", slog.String("session_id", session.ID))
	return session, nil
}

// Resume возобновляет приостановленную сессию: закрывает открытую паузу,
// добавляет её длительность к суммарному времени пауз и возвращает сессию
// в состояние active. Допустимо только из состояния paused.
func (s *TimerService) Resume(ctx context.Context, sessionID, userID string) (*models.TimerSession, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.CanBeResumed() {
		return nil, models.ErrInvalidSessionState
	}

	open, err := s.closeOpenPause(ctx, session)
	if err != nil {
		return nil, err
	}
	session.Status = models.SessionStatusActive
	if err := s.repo.ClosePauseAndUpdateSession(ctx, open, session); err != nil {
		return nil, err
	}

	s.log.Info("timer resumed", slog.String("session_id", session.ID))
	return session, nil
}

// Stop завершает сессию: закрывает открытую паузу независимо от текущего
// состояния, фиксирует время окончания и полную длительность и, если сессия
// привязана к задаче, начисляет задаче эффективную длительность — полный
// интервал за вычетом пауз. Недопустимо для уже завершённой сессии.
func (s *TimerService) Stop(ctx context.Context, sessionID, userID string, faceStats map[string]any) (*models.TimerSession, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCompleted {
		return nil, models.ErrInvalidSessionState
	}

	open, err := s.closeOpenPause(ctx, session)
	if err != nil {
		return nil, err
	}

	endTime := s.now()
	session.EndTime = &endTime
	session.Duration = int64(endTime.Sub(session.StartTime) / time.Second)
	session.Status = models.SessionStatusCompleted
	session.FaceStats = faceStats
	if err := s.repo.ClosePauseAndUpdateSession(ctx, open, session); err != nil {
		return nil, err
	}

	if session.TaskID != nil {
		if err := s.tasks.IncrementTotalTime(ctx, *session.TaskID, userID, session.EffectiveDuration()); err != nil {
			return nil, err
		}
	}

	s.log.Info("timer stopped",
		slog.String("session_id", session.ID),
		slog.Int64("duration", session.Duration),
		slog.Int64("effective_duration", session.EffectiveDuration()))
	return session, nil
}

// Cancel отменяет сессию: фиксирует время окончания без закрытия пауз и без
// начисления времени задаче. Недопустимо для уже завершённой сессии.
func (s *TimerService) Cancel(ctx context.Context, sessionID, userID string) (*models.TimerSession, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCompleted {
		return nil, models.ErrInvalidSessionState
	}

	endTime := s.now()
	session.Status = models.SessionStatusCancelled
	session.EndTime = &endTime
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("timer cancelled", slog.String("session_id", session.ID))
	return session, nil
}

// GetActiveSession возвращает единственную активную или приостановленную
// сессию пользователя либо nil, если таковой нет.
func (s *TimerService) GetActiveSession(ctx context.Context, userID string) (*models.TimerSession, error) {
	return s.repo.GetActiveSessionByUser(ctx, userID)
}

// FindSessionByID возвращает сессию с проверкой принадлежности: чужая и
// несуществующая сессии неразличимы.
func (s *TimerService) FindSessionByID(ctx context.Context, sessionID, userID string) (*models.TimerSession, error) {
	return s.repo.GetSessionByID(ctx, sessionID, userID)
}

// ListUserSessions возвращает сессии пользователя, новые первыми.
// Неположительный limit заменяется значением по умолчанию.
func (s *TimerService) ListUserSessions(ctx context.Context, userID string, limit int) ([]*models.TimerSession, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.ListSessionsByUser(ctx, userID, limit)
}

// ListSessionPauses возвращает паузы сессии в хронологическом порядке,
// предварительно проверив принадлежность сессии пользователю.
func (s *TimerService) ListSessionPauses(ctx context.Context, sessionID, userID string) ([]*models.SessionPause, error) {
	if _, err := s.repo.GetSessionByID(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListPausesBySession(ctx, sessionID)
}

// closeOpenPause находит открытую паузу сессии и подготавливает её закрытие:
// проставляет конец, считает длительность в целых секундах (floor) и добавляет
// её к суммарному времени пауз. Сама запись сохраняется вызывающим в одной
// транзакции с сессией.
func (s *TimerService) closeOpenPause(ctx context.Context, session *models.TimerSession) (*models.SessionPause, error) {
	open, err := s.repo.GetOpenPause(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	pauseEnd := s.now()
	duration := int64(pauseEnd.Sub(open.PauseStart) / time.Second)
	open.PauseEnd = &pauseEnd
	open.Duration = &duration
	session.TotalPauseTime += duration

	s.log.Debug("closed pause",
		slog.String("pause_id", open.ID), slog.Int64("duration", duration))
	return open, nil
}
