package stop

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// MockService реализует интерфейс stop.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Stop(ctx context.Context, sessionID, userID string, faceStats map[string]any) (*models.TimerSession, error) {
	args := m.Called(ctx, sessionID, userID, faceStats)
	if res := args.Get(0); res != nil {
		return res.(*models.TimerSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStopHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		sessionID      string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "успешная остановка",
			sessionID: "sess-1",
			body:      "",
			setupMock: func(m *MockService) {
				m.On("Stop", mock.Anything, "sess-1", "user-1", map[string]any(nil)).
					Return(&models.TimerSession{
						ID:             "sess-1",
						Status:         models.SessionStatusCompleted,
						Duration:       1800,
						TotalPauseTime: 300,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"duration":1800`,
		},
		{
			name:      "остановка со сводкой статистики",
			sessionID: "sess-1",
			body:      `{"face_stats_summary":{"focused":0.85}}`,
			setupMock: func(m *MockService) {
				m.On("Stop", mock.Anything, "sess-1", "user-1", mock.MatchedBy(func(stats map[string]any) bool {
					return stats["focused"] == 0.85
				})).Return(&models.TimerSession{ID: "sess-1", Status: models.SessionStatusCompleted}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"completed"`,
		},
		{
			name:      "сессия уже завершена",
			sessionID: "sess-1",
			body:      "",
			setupMock: func(m *MockService) {
				m.On("Stop", mock.Anything, "sess-1", "user-1", map[string]any(nil)).
					Return(nil, models.ErrInvalidSessionState)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `not allowed in current session state`,
		},
		{
			name:      "чужая сессия не найдена",
			sessionID: "sess-x",
			body:      "",
			setupMock: func(m *MockService) {
				m.On("Stop", mock.Anything, "sess-x", "user-1", map[string]any(nil)).
					Return(nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/timer/"+tt.sessionID+"/stop", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "user-1"))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("sessionID", tt.sessionID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
