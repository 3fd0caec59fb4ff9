// Package logout реализует HTTP-обработчик выхода из системы.
//
// Handler отзывает все refresh-токены аутентифицированного пользователя,
// после чего активные сессии не могут быть продлены.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/http/response"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/sl"
)

// Handler управляет HTTP-запросами на выход пользователя.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики аутентификации
}

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, userID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выйти из системы
// @Description Отзывает все refresh-токены текущего пользователя.
// @Tags Auth
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response "Токены отозваны"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
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

	if err := h.service.Logout(r.Context(), userID); err != nil {
		log.Error("failed to logout", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("user logged out", slog.String("user_id", userID))
	render.JSON(w, r, response.OK())
}
