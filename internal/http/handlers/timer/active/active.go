// Package active реализует HTTP-обработчик чтения текущей незавершенной сессии.
//
// Если у пользователя нет активной или приостановленной сессии,
// возвращается успешный ответ с пустыми данными.
package active

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/http/response"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// Handler управляет HTTP-запросами на чтение активной сессии.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики таймера
}

// Service описывает интерфейс бизнес-логики чтения активной сессии.
type Service interface {
	GetActiveSession(ctx context.Context, userID string) (*models.TimerSession, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить текущую сессию
// @Description Возвращает активную или приостановленную сессию пользователя, либо null.
// @Tags Timer
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Текущая сессия или null"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /timer/active [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.timer.active"
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

	session, err := h.service.GetActiveSession(r.Context(), userID)
	if err != nil {
		log.Error("failed to get active session", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	if session == nil {
		log.Info("no running session")
	} else {
		log.Info("running session found", slog.String("session_id", session.ID))
	}
	render.JSON(w, r, response.OKWithData(session))
}
