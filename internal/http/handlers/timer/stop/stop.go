// Package stop реализует HTTP-обработчик завершения таймерной сессии.
//
// Handler завершает сессию, фиксирует полную и чистую длительность и
// зачисляет отработанное время привязанной задаче.
package stop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
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

// Handler управляет HTTP-запросами на остановку таймера.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики таймера
}

// Service описывает интерфейс бизнес-логики остановки сессии.
type Service interface {
	Stop(ctx context.Context, sessionID, userID string, faceStats map[string]any) (*models.TimerSession, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Остановить таймер
// @Description Завершает сессию, закрывает открытую паузу и зачисляет чистое время задаче.
// @Tags Timer
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param sessionID path string true "Идентификатор сессии"
// @Param request body models.StopTimerRequest false "Дополнительные данные остановки"
// @Success 200 {object} map[string]any "Завершенная сессия"
// @Failure 400 {object} response.ErrorResponse "Сессия уже завершена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /timer/{sessionID}/stop [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.timer.stop"
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

	// Тело запроса опционально: сводка статистики может отсутствовать.
	var req models.StopTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.service.Stop(r.Context(), sessionID, userID, req.FaceStatsSummary)
	if err != nil {
		log.Error("failed to stop timer", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("timer stopped",
		slog.String("session_id", session.ID),
		slog.Int64("duration", session.Duration),
		slog.Int64("effective_duration", session.EffectiveDuration()))
	render.JSON(w, r, response.OKWithData(session))
}
