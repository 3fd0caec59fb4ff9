// Package services содержит бизнес-логику для управления задачами и кеширование
// их чтений.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/magabrotheeeer/focus-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// TaskRepository определяет методы для работы с задачами в хранилище.
type TaskRepository interface {
	// CreateTask добавляет новую задачу и возвращает созданную запись.
	CreateTask(ctx context.Context, task models.Task) (*models.Task, error)
	// GetTaskByID возвращает задачу, принадлежащую userID.
	GetTaskByID(ctx context.Context, id, userID string) (*models.Task, error)
	// ListTasksByUser возвращает задачи пользователя, упорядоченные по last_used.
	ListTasksByUser(ctx context.Context, userID string, onlyActive bool) ([]*models.Task, error)
	// UpdateTask перезаписывает изменяемые поля задачи.
	UpdateTask(ctx context.Context, task models.Task) (*models.Task, error)
	// DeleteTask удаляет задачу; ссылки из сессий обнуляются.
	DeleteTask(ctx context.Context, id, userID string) error
	// IncrementTaskTotalTime атомарно прибавляет секунды к total_time.
	IncrementTaskTotalTime(ctx context.Context, id, userID string, deltaSeconds int64) error
	// GetTaskStats агрегирует статистику по задачам пользователя.
	GetTaskStats(ctx context.Context, userID string) (*models.TaskStats, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// colorPattern — трёх- или шестизначный hex-код цвета с ведущим '#'.
var colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// TaskService реализует бизнес-логику работы с задачами, включая кеширование.
type TaskService struct {
	repo  TaskRepository
	cache Cache
	log   *slog.Logger
}

// NewTaskService создает новый экземпляр TaskService.
func NewTaskService(repo TaskRepository, cache Cache, log *slog.Logger) *TaskService {
	return &TaskService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создает новую задачу пользователя с isActive=true и нулевым счётчиком
// времени. Валидация выполняется до любой мутации.
func (s *TaskService) Create(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error) {
	if err := validateTaskFields(&req.Title, req.Icon, req.Color); err != nil {
		return nil, err
	}

	task := models.Task{
		UserID:   userID,
		Title:    req.Title,
		Icon:     req.Icon,
		Color:    req.Color,
		IsActive: true,
	}
	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new task", slog.String("id", created.ID))

	s.cacheTask(created)
	s.invalidateStats(userID)
	return created, nil
}

// List возвращает все задачи пользователя.
func (s *TaskService) List(ctx context.Context, userID string) ([]*models.Task, error) {
	return s.repo.ListTasksByUser(ctx, userID, false)
}

// ListActive возвращает только активные задачи пользователя.
func (s *TaskService) ListActive(ctx context.Context, userID string) ([]*models.Task, error) {
	return s.repo.ListTasksByUser(ctx, userID, true)
}

// GetByID возвращает задачу, если она существует и принадлежит userID.
// Чужая и несуществующая задачи неразличимы для вызывающего.
func (s *TaskService) GetByID(ctx context.Context, id, userID string) (*models.Task, error) {
	var cached *models.Task
	cacheKey := taskCacheKey(id)
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read task from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached != nil {
		if cached.UserID != userID {
			return nil, models.ErrNotFound
		}
		return cached, nil
	}

	task, err := s.repo.GetTaskByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.cacheTask(task)
	return task, nil
}

// Update применяет только переданные поля и повторно валидирует ограничения.
func (s *TaskService) Update(ctx context.Context, id, userID string, req models.UpdateTaskRequest) (*models.Task, error) {
	if err := validateTaskFields(req.Title, req.Icon, req.Color); err != nil {
		return nil, err
	}

	task, err := s.repo.GetTaskByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Icon != nil {
		task.Icon = req.Icon
	}
	if req.Color != nil {
		task.Color = req.Color
	}

	updated, err := s.repo.UpdateTask(ctx, *task)
	if err != nil {
		return nil, err
	}
	s.log.Info("updated task", slog.String("id", updated.ID))

	s.cacheTask(updated)
	s.invalidateStats(userID)
	return updated, nil
}

// ToggleActive переключает флаг активности задачи.
func (s *TaskService) ToggleActive(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := s.repo.GetTaskByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	task.IsActive = !task.IsActive

	updated, err := s.repo.UpdateTask(ctx, *task)
	if err != nil {
		return nil, err
	}
	s.cacheTask(updated)
	s.invalidateStats(userID)
	return updated, nil
}

// Remove удаляет задачу. Таймерные сессии, ссылавшиеся на неё, сохраняются
// с обнулённой ссылкой.
func (s *TaskService) Remove(ctx context.Context, id, userID string) error {
	if err := s.repo.DeleteTask(ctx, id, userID); err != nil {
		return err
	}
	s.log.Info("removed task", slog.String("id", id))

	if err := s.cache.Invalidate(taskCacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate task cache", slog.String("id", id), sl.Err(err))
	}
	s.invalidateStats(userID)
	return nil
}

// IncrementTotalTime атомарно прибавляет deltaSeconds к накопленному времени
// задачи и обновляет отметку последнего использования. Вызывается таймерным
// сервисом при завершении сессии.
func (s *TaskService) IncrementTotalTime(ctx context.Context, id, userID string, deltaSeconds int64) error {
	if deltaSeconds < 0 {
		return models.NewValidationError("deltaSeconds", "must be non-negative")
	}
	if err := s.repo.IncrementTaskTotalTime(ctx, id, userID, deltaSeconds); err != nil {
		return err
	}

	if err := s.cache.Invalidate(taskCacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate task cache", slog.String("id", id), sl.Err(err))
	}
	s.invalidateStats(userID)
	return nil
}

// Stats возвращает агрегированную статистику по всем задачам пользователя.
func (s *TaskService) Stats(ctx context.Context, userID string) (*models.TaskStats, error) {
	var cached *models.TaskStats
	cacheKey := statsCacheKey(userID)
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read stats from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached != nil {
		return cached, nil
	}

	stats, err := s.repo.GetTaskStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, stats, time.Minute); err != nil {
		s.log.Warn("failed to cache stats", slog.String("key", cacheKey), sl.Err(err))
	}
	return stats, nil
}

func (s *TaskService) cacheTask(task *models.Task) {
	cacheKey := taskCacheKey(task.ID)
	if err := s.cache.Set(cacheKey, task, time.Hour); err != nil {
		s.log.Warn("failed to cache task", slog.String("key", cacheKey), sl.Err(err))
	}
}

func (s *TaskService) invalidateStats(userID string) {
	if err := s.cache.Invalidate(statsCacheKey(userID)); err != nil {
		s.log.Warn("failed to invalidate stats cache", slog.String("user_id", userID), sl.Err(err))
	}
}

func taskCacheKey(id string) string {
	return fmt.Sprintf("task:%s", id)
}

func statsCacheKey(userID string) string {
	return fmt.Sprintf("taskstats:%s", userID)
}

// validateTaskFields проверяет ограничения полей задачи и возвращает
// типизированную ошибку на первом нарушении. Nil-поля пропускаются.
func validateTaskFields(title, icon, color *string) error {
	if title != nil {
		if len(*title) == 0 {
			return models.NewValidationError("title", "must not be empty")
		}
		if len(*title) > 200 {
			return models.NewValidationError("title", "must not exceed 200 characters")
		}
	}
	if icon != nil && len(*icon) > 100 {
		return models.NewValidationError("icon", "must not exceed 100 characters")
	}
	if color != nil && !colorPattern.MatchString(*color) {
		return models.NewValidationError("color", "must be a valid hex color code")
	}
	return nil
}
