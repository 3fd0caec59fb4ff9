// Package toggle реализует HTTP-обработчик переключения активности задачи.
//
// Handler инвертирует флаг is_active задачи текущего пользователя.
package toggle

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

// Handler управляет HTTP-запросами на переключение активности задачи.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики задач
}

// Service описывает интерфейс бизнес-логики переключения задачи.
type Service interface {
	ToggleActive(ctx context.Context, id, userID string) (*models.Task, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Переключить активность задачи
// @Description Инвертирует флаг активности задачи текущего пользователя.
// @Tags Tasks
// @Security BearerAuth
// @Produce  json
// @Param id path string true "Идентификатор задачи"
// @Success 200 {object} map[string]any "Обновленная задача"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /tasks/{id}/toggle [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.toggle"
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

	id := chi.URLParam(r, "id")
	task, err := h.service.ToggleActive(r.Context(), id, userID)
	if err != nil {
		log.Error("failed to toggle task", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("task toggled",
		slog.String("task_id", task.ID),
		slog.Bool("is_active", task.IsActive))
	render.JSON(w, r, response.OKWithData(task))
}
