// Package focustracker собирает и запускает основное приложение трекера времени.
package focustracker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/focus-tracker/internal/cache"
	"github.com/magabrotheeeer/focus-tracker/internal/config"
	"github.com/magabrotheeeer/focus-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/focus-tracker/internal/migrations"
	authservice "github.com/magabrotheeeer/focus-tracker/internal/services/auth"
	taskservice "github.com/magabrotheeeer/focus-tracker/internal/services/task"
	timerservice "github.com/magabrotheeeer/focus-tracker/internal/services/timer"
	"github.com/magabrotheeeer/focus-tracker/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и ресурсы приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	auth   *authservice.AuthService
}

// New создает приложение: подключает хранилище, применяет миграции,
// инициализирует кэш и собирает сервисы с маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	authService := authservice.NewAuthService(db, db, jwtMaker,
		cfg.JWTToken.TokenTTL, cfg.JWTToken.RefreshTokenTTL, logger)
	taskService := taskservice.NewTaskService(db, cacheRedis, logger)
	timerService := timerservice.NewTimerService(db, taskService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, taskService, timerService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		auth:   authService,
	}, nil
}

// Run запускает HTTP-сервер и фоновую очистку истекших refresh-токенов.
// Блокируется до отмены контекста или ошибки сервера, затем корректно
// останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	go a.cleanupExpiredTokens(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}

// cleanupExpiredTokens периодически удаляет истекшие refresh-токены.
func (a *App) cleanupExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.auth.CleanupExpiredTokens(ctx); err != nil {
				a.logger.Error("failed to cleanup expired tokens",
					slog.String("error", err.Error()))
			}
		}
	}
}
