// Package history реализует HTTP-обработчик истории таймерных сессий.
//
// Handler возвращает последние сессии пользователя, отсортированные от
// новых к старым. Количество ограничивается параметром limit.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/http/response"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

// Handler управляет HTTP-запросами на чтение истории сессий.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики таймера
}

// Service описывает интерфейс бизнес-логики истории сессий.
type Service interface {
	ListUserSessions(ctx context.Context, userID string, limit int) ([]*models.TimerSession, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить историю сессий
// @Description Возвращает последние сессии пользователя от новых к старым.
// @Tags Timer
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Максимальное количество сессий (по умолчанию 20)"
// @Success 200 {object} map[string]any "Список сессий"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /timer/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.timer.history"
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

	// Некорректный limit игнорируется, сервис подставит значение по умолчанию.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.service.ListUserSessions(r.Context(), userID, limit)
	if err != nil {
		log.Error("failed to list sessions", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("sessions listed", slog.Int("count", len(sessions)))
	render.JSON(w, r, response.OKWithData(sessions))
}
