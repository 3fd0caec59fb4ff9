package start

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// MockService реализует интерфейс start.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Start(ctx context.Context, userID string, taskID *string) (*models.TimerSession, error) {
	args := m.Called(ctx, userID, taskID)
	if res := args.Get(0); res != nil {
		return res.(*models.TimerSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStartHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	taskID := "6a0f7a3e-89ab-4cde-9012-345678901234"

	tests := []struct {
		name           string
		body           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "запуск без задачи с пустым телом",
			body:   "",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Start", mock.Anything, "user-1", (*string)(nil)).
					Return(&models.TimerSession{ID: "sess-1", UserID: "user-1", Status: models.SessionStatusActive}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"active"`,
		},
		{
			name:   "запуск с привязкой к задаче",
			body:   `{"task_id":"` + taskID + `"}`,
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Start", mock.Anything, "user-1", mock.MatchedBy(func(id *string) bool {
					return id != nil && *id == taskID
				})).Return(&models.TimerSession{ID: "sess-1", TaskID: &taskID, Status: models.SessionStatusActive}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   taskID,
		},
		{
			name:           "task_id не uuid",
			body:           `{"task_id":"not-a-uuid"}`,
			userID:         "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:   "конфликт с незавершенной сессией",
			body:   "",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Start", mock.Anything, "user-1", (*string)(nil)).
					Return(nil, models.ErrActiveSessionExists)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `active session already exists`,
		},
		{
			name:           "запрос без аутентификации",
			body:           "",
			userID:         "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/timer/start", strings.NewReader(tt.body))
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
