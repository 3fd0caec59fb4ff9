package create

import (
	"context"
	"errors"
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

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error) {
	args := m.Called(ctx, userID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешное создание задачи",
			body:   `{"title":"Deep work","color":"#3B82F6"}`,
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "user-1", mock.MatchedBy(func(req models.CreateTaskRequest) bool {
					return req.Title == "Deep work" && *req.Color == "#3B82F6"
				})).Return(&models.Task{ID: "task-1", UserID: "user-1", Title: "Deep work", IsActive: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"title":"Deep work"`,
		},
		{
			name:           "запрос без аутентификации",
			body:           `{"title":"Deep work"}`,
			userID:         "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"title":`,
			userID:         "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "пустой title",
			body:           `{"title":""}`,
			userID:         "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:   "ошибка сервиса",
			body:   `{"title":"Deep work"}`,
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "user-1", mock.Anything).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `internal error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(tt.body))
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
