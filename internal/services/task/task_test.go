package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}
func (m *RepoMock) GetTaskByID(ctx context.Context, id, userID string) (*models.Task, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}
func (m *RepoMock) ListTasksByUser(ctx context.Context, userID string, onlyActive bool) ([]*models.Task, error) {
	args := m.Called(ctx, userID, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}
func (m *RepoMock) UpdateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}
func (m *RepoMock) DeleteTask(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}
func (m *RepoMock) IncrementTaskTotalTime(ctx context.Context, id, userID string, deltaSeconds int64) error {
	return m.Called(ctx, id, userID, deltaSeconds).Error(0)
}
func (m *RepoMock) GetTaskStats(ctx context.Context, userID string) (*models.TaskStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskStats), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func strPtr(s string) *string { return &s }

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        models.CreateTaskRequest
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    bool
	}{
		{
			name: "success with color and icon",
			req: models.CreateTaskRequest{
				Title: "Deep work",
				Icon:  strPtr("brain"),
				Color: strPtr("#3B82F6"),
			},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("CreateTask", mock.Anything, mock.MatchedBy(func(task models.Task) bool {
					return task.UserID == "user-1" && task.Title == "Deep work" &&
						task.IsActive && task.TotalTime == 0
				})).Return(&models.Task{ID: "task-1", UserID: "user-1", Title: "Deep work", IsActive: true}, nil).Once()
				c.On("Set", "task:task-1", mock.Anything, time.Hour).Return(nil).Once()
				c.On("Invalidate", "taskstats:user-1").Return(nil).Once()
			},
		},
		{
			name: "short hex color is accepted",
			req: models.CreateTaskRequest{
				Title: "Reading",
				Color: strPtr("#f0a"),
			},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("CreateTask", mock.Anything, mock.Anything).
					Return(&models.Task{ID: "task-2", UserID: "user-1"}, nil).Once()
				c.On("Set", "task:task-2", mock.Anything, time.Hour).Return(nil).Once()
				c.On("Invalidate", "taskstats:user-1").Return(nil).Once()
			},
		},
		{
			name: "invalid hex color",
			req: models.CreateTaskRequest{
				Title: "Reading",
				Color: strPtr("#zzz"),
			},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    true,
		},
		{
			name: "empty title",
			req: models.CreateTaskRequest{
				Title: "",
			},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := NewTaskService(repo, cache, newNoopLogger())

			task, err := svc.Create(context.Background(), "user-1", tt.req)
			if tt.wantErr {
				var validationErr *models.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Nil(t, task)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, task)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestTaskService_GetByID(t *testing.T) {
	t.Run("cache miss falls back to repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		task := &models.Task{ID: "task-1", UserID: "user-1", Title: "Deep work"}
		cache.On("Get", "task:task-1", mock.Anything).Return(false, nil).Once()
		repo.On("GetTaskByID", mock.Anything, "task-1", "user-1").Return(task, nil).Once()
		cache.On("Set", "task:task-1", task, time.Hour).Return(nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		got, err := svc.GetByID(context.Background(), "task-1", "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "Deep work", got.Title)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "task:task-1", mock.Anything).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(**models.Task)
			*ptr = &models.Task{ID: "task-1", UserID: "user-1", Title: "Deep work"}
		}).Return(true, nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		got, err := svc.GetByID(context.Background(), "task-1", "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "Deep work", got.Title)
		repo.AssertNotCalled(t, "GetTaskByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cached task of another user is not found", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "task:task-1", mock.Anything).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(**models.Task)
			*ptr = &models.Task{ID: "task-1", UserID: "user-1"}
		}).Return(true, nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		_, err := svc.GetByID(context.Background(), "task-1", "user-2")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("cache failure does not break the read", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		task := &models.Task{ID: "task-1", UserID: "user-1"}
		cache.On("Get", "task:task-1", mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetTaskByID", mock.Anything, "task-1", "user-1").Return(task, nil).Once()
		cache.On("Set", "task:task-1", task, time.Hour).Return(errors.New("redis down")).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		got, err := svc.GetByID(context.Background(), "task-1", "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "task-1", got.ID)
	})
}

func TestTaskService_Update(t *testing.T) {
	t.Run("merges only provided fields", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		existing := &models.Task{
			ID: "task-1", UserID: "user-1",
			Title: "Old title",
			Icon:  strPtr("book"),
			Color: strPtr("#3B82F6"),
		}
		repo.On("GetTaskByID", mock.Anything, "task-1", "user-1").Return(existing, nil).Once()
		repo.On("UpdateTask", mock.Anything, mock.MatchedBy(func(task models.Task) bool {
			return task.Title == "New title" && *task.Icon == "book" && *task.Color == "#3B82F6"
		})).Return(&models.Task{ID: "task-1", UserID: "user-1", Title: "New title"}, nil).Once()
		cache.On("Set", "task:task-1", mock.Anything, time.Hour).Return(nil).Once()
		cache.On("Invalidate", "taskstats:user-1").Return(nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		got, err := svc.Update(context.Background(), "task-1", "user-1",
			models.UpdateTaskRequest{Title: strPtr("New title")})
		assert.NoError(t, err)
		assert.Equal(t, "New title", got.Title)
		repo.AssertExpectations(t)
	})

	t.Run("invalid color rejected before read", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewTaskService(repo, cache, newNoopLogger())

		_, err := svc.Update(context.Background(), "task-1", "user-1",
			models.UpdateTaskRequest{Color: strPtr("blue")})
		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		repo.AssertNotCalled(t, "GetTaskByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown task", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("GetTaskByID", mock.Anything, "task-x", "user-1").Return(nil, models.ErrNotFound).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		_, err := svc.Update(context.Background(), "task-x", "user-1",
			models.UpdateTaskRequest{Title: strPtr("New title")})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestTaskService_ToggleActive(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("GetTaskByID", mock.Anything, "task-1", "user-1").
		Return(&models.Task{ID: "task-1", UserID: "user-1", IsActive: true}, nil).Once()
	repo.On("UpdateTask", mock.Anything, mock.MatchedBy(func(task models.Task) bool {
		return !task.IsActive
	})).Return(&models.Task{ID: "task-1", UserID: "user-1", IsActive: false}, nil).Once()
	cache.On("Set", "task:task-1", mock.Anything, time.Hour).Return(nil).Once()
	cache.On("Invalidate", "taskstats:user-1").Return(nil).Once()

	svc := NewTaskService(repo, cache, newNoopLogger())
	got, err := svc.ToggleActive(context.Background(), "task-1", "user-1")
	assert.NoError(t, err)
	assert.False(t, got.IsActive)
	repo.AssertExpectations(t)
}

func TestTaskService_Remove(t *testing.T) {
	t.Run("success invalidates caches", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("DeleteTask", mock.Anything, "task-1", "user-1").Return(nil).Once()
		cache.On("Invalidate", "task:task-1").Return(nil).Once()
		cache.On("Invalidate", "taskstats:user-1").Return(nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		assert.NoError(t, svc.Remove(context.Background(), "task-1", "user-1"))
		cache.AssertExpectations(t)
	})

	t.Run("unknown task", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("DeleteTask", mock.Anything, "task-x", "user-1").Return(models.ErrNotFound).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		assert.ErrorIs(t, svc.Remove(context.Background(), "task-x", "user-1"), models.ErrNotFound)
	})
}

func TestTaskService_IncrementTotalTime(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("IncrementTaskTotalTime", mock.Anything, "task-1", "user-1", int64(1500)).Return(nil).Once()
		cache.On("Invalidate", "task:task-1").Return(nil).Once()
		cache.On("Invalidate", "taskstats:user-1").Return(nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		assert.NoError(t, svc.IncrementTotalTime(context.Background(), "task-1", "user-1", 1500))
		repo.AssertExpectations(t)
	})

	t.Run("negative delta rejected", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewTaskService(repo, cache, newNoopLogger())

		err := svc.IncrementTotalTime(context.Background(), "task-1", "user-1", -1)
		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		repo.AssertNotCalled(t, "IncrementTaskTotalTime",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTaskService_List(t *testing.T) {
	t.Run("all tasks", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListTasksByUser", mock.Anything, "user-1", false).
			Return([]*models.Task{{ID: "task-1"}, {ID: "task-2"}}, nil).Once()

		svc := NewTaskService(repo, new(CacheMock), newNoopLogger())
		tasks, err := svc.List(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("only active", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListTasksByUser", mock.Anything, "user-1", true).
			Return([]*models.Task{{ID: "task-1", IsActive: true}}, nil).Once()

		svc := NewTaskService(repo, new(CacheMock), newNoopLogger())
		tasks, err := svc.ListActive(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Len(t, tasks, 1)
	})
}

func TestTaskService_Stats(t *testing.T) {
	t.Run("cache miss aggregates and caches", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		stats := &models.TaskStats{Total: 3, Active: 2, Inactive: 1, TotalTime: 4500}
		cache.On("Get", "taskstats:user-1", mock.Anything).Return(false, nil).Once()
		repo.On("GetTaskStats", mock.Anything, "user-1").Return(stats, nil).Once()
		cache.On("Set", "taskstats:user-1", stats, time.Minute).Return(nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		got, err := svc.Stats(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Equal(t, 3, got.Total)
		assert.Equal(t, int64(4500), got.TotalTime)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "taskstats:user-1", mock.Anything).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(**models.TaskStats)
			*ptr = &models.TaskStats{Total: 5}
		}).Return(true, nil).Once()

		svc := NewTaskService(repo, cache, newNoopLogger())
		got, err := svc.Stats(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Equal(t, 5, got.Total)
		repo.AssertNotCalled(t, "GetTaskStats", mock.Anything, mock.Anything)
	})
}
