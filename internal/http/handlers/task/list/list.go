// Package list реализует HTTP-обработчик получения списка задач пользователя.
//
// Handler возвращает все задачи текущего пользователя, отсортированные по
// последнему использованию. Параметр active=true оставляет только активные.
package list

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

// Handler управляет HTTP-запросами на чтение списка задач.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики задач
}

// Service описывает интерфейс бизнес-логики списка задач.
type Service interface {
	List(ctx context.Context, userID string) ([]*models.Task, error)
	ListActive(ctx context.Context, userID string) ([]*models.Task, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить список задач
// @Description Возвращает задачи текущего пользователя. При active=true возвращает только активные.
// @Tags Tasks
// @Security BearerAuth
// @Produce  json
// @Param active query bool false "Только активные задачи"
// @Success 200 {object} map[string]any "Список задач"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /tasks [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.list"
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

	var (
		tasks []*models.Task
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		tasks, err = h.service.ListActive(r.Context(), userID)
	} else {
		tasks, err = h.service.List(r.Context(), userID)
	}
	if err != nil {
		log.Error("failed to list tasks", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("tasks listed", slog.Int("count", len(tasks)))
	render.JSON(w, r, response.OKWithData(tasks))
}
