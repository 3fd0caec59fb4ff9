// Package focustracker предоставляет маршруты для основного приложения.
package focustracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/focus-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/focus-tracker/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/focus-tracker/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/focus-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/focus-tracker/internal/http/handlers/health"
	taskcreate "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/create"
	tasklist "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/list"
	taskread "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/read"
	taskremove "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/remove"
	taskstats "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/stats"
	tasktoggle "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/toggle"
	taskupdate "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/task/update"
	timeractive "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/active"
	timercancel "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/cancel"
	timerhistory "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/history"
	timerpause "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/pause"
	timerpauses "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/pauses"
	timerread "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/read"
	timerresume "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/resume"
	timerstart "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/start"
	timerstop "github.com/magabrotheeeer/focus-tracker/internal/http/handlers/timer/stop"
	"github.com/magabrotheeeer/focus-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/focus-tracker/internal/services/auth"
	taskservice "github.com/magabrotheeeer/focus-tracker/internal/services/task"
	timerservice "github.com/magabrotheeeer/focus-tracker/internal/services/timer"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.AuthService, taskService *taskservice.TaskService,
	timerService *timerservice.TimerService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)

			r.Post("/tasks", taskcreate.New(logger, taskService).ServeHTTP)
			r.Get("/tasks", tasklist.New(logger, taskService).ServeHTTP)
			r.Get("/tasks/stats", taskstats.New(logger, taskService).ServeHTTP)
			r.Get("/tasks/{id}", taskread.New(logger, taskService).ServeHTTP)
			r.Patch("/tasks/{id}", taskupdate.New(logger, taskService).ServeHTTP)
			r.Patch("/tasks/{id}/toggle", tasktoggle.New(logger, taskService).ServeHTTP)
			r.Delete("/tasks/{id}", taskremove.New(logger, taskService).ServeHTTP)

			r.Post("/timer/start", timerstart.New(logger, timerService).ServeHTTP)
			r.Get("/timer/active", timeractive.New(logger, timerService).ServeHTTP)
			r.Get("/timer/history", timerhistory.New(logger, timerService).ServeHTTP)
			r.Get("/timer/{sessionID}", timerread.New(logger, timerService).ServeHTTP)
			r.Get("/timer/{sessionID}/pauses", timerpauses.New(logger, timerService).ServeHTTP)
			r.Post("/timer/{sessionID}/pause", timerpause.New(logger, timerService).ServeHTTP)
			r.Post("/timer/{sessionID}/resume", timerresume.New(logger, timerService).ServeHTTP)
			r.Post("/timer/{sessionID}/stop", timerstop.New(logger, timerService).ServeHTTP)
			r.Post("/timer/{sessionID}/cancel", timercancel.New(logger, timerService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
