// Package pause реализует HTTP-обработчик постановки таймерной сессии на паузу.
package pause

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/http/response"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// Handler управляет HTTP-запросами на паузу таймера.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики таймера
}

// Service описывает интерфейс бизнес-логики паузы сессии.
type Service interface {
	Pause(ctx context.Context, sessionID, userID string) (*models.TimerSession, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Поставить таймер на паузу
// @Description Переводит активную сессию в состояние paused и открывает интервал паузы.
// @Tags Timer
// @Security BearerAuth
// @Produce  json
// @Param sessionID path string true "Идентификатор сессии"
// @Success 200 {object} map[string]any "Сессия на паузе"
// @Failure 400 {object} response.ErrorResponse "Сессия не может быть поставлена на паузу"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /timer/{sessionID}/pause [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.timer.pause"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("missing user id in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.service.Pause(r.Context(), sessionID, userID)
	if err != nil {
		log.Error("failed to pause timer", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("timer paused",
		slog.String("session_id", session.ID),
		slog.Int("pause_count", session.PauseCount))
	render.JSON(w, r, response.OKWithData(session))
}
