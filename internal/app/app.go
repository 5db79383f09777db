package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskapi/internal/config"
	"taskapi/internal/handlers"
	"taskapi/internal/logger"
	"taskapi/internal/middleware"
	repoPostgres "taskapi/internal/repository/postgres"
	taskInmemory "taskapi/internal/repository/task/inmemory"
	taskPostgres "taskapi/internal/repository/task/postgres"
	userInmemory "taskapi/internal/repository/user/inmemory"
	userPostgres "taskapi/internal/repository/user/postgres"
	"taskapi/internal/service"
	"taskapi/internal/token"
	"taskapi/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	worker    *worker.OverdueWorker
	shutdowns []func() // функции для graceful shutdown, в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	var taskRepo service.TaskRepository
	var userRepo service.UserRepository

	switch a.config.Repository.Type {
	case "postgres":
		if err := repoPostgres.Migrate(a.config.Database.URL); err != nil {
			return fmt.Errorf("миграции: %w", err)
		}

		pool, err := repoPostgres.Connect(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула PostgreSQL...")
			pool.Close()
		})

		taskRepo = taskPostgres.New(pool)
		userRepo = userPostgres.New(pool)

	case "inmemory":
		taskRepo = taskInmemory.NewTaskStorage()
		userRepo = userInmemory.NewUserStorage()

	default:
		return fmt.Errorf("неизвестный тип репозитория: %q", a.config.Repository.Type)
	}

	tokenManager := token.NewManager(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)

	authService := service.NewAuthService(userRepo, tokenManager, a.config.Auth.BcryptCost)
	taskService := service.NewTaskService(taskRepo)
	adminService := service.NewAdminService(userRepo, taskRepo)

	authHandler := handlers.NewAuthHandler(&authService)
	taskHandler := handlers.NewTaskHandler(&taskService)
	adminHandler := handlers.NewAdminHandler(&taskService, &adminService)

	a.worker = worker.NewOverdueWorker(taskRepo, 5*time.Minute)
	a.router = buildRouter(a.config, tokenManager, &authService, &authHandler, &taskHandler, &adminHandler)

	return nil
}

func buildRouter(cfg *config.Config, tokens *token.Manager, users middleware.UserLoader, authHandler *handlers.AuthHandler, taskHandler *handlers.TaskHandler, adminHandler *handlers.AdminHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(cfg.RateLimit.RPM))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	authMw := middleware.Auth(tokens, users)

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(authMw).Get("/profile", authHandler.Profile)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(authMw)

			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Get("/stats/summary", taskHandler.GetSummary)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)
				r.Put("/", taskHandler.UpdateTaskByID)
				r.Delete("/", taskHandler.DeleteTaskByID)
			})
		})

		// порядок фиксирован конструкцией: сначала Auth, затем RequireAdmin
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMw)
			r.Use(middleware.RequireAdmin)

			r.Get("/tasks", adminHandler.ListAllTasks)
			r.Delete("/tasks/{id}", adminHandler.DeleteAnyTask)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/status", adminHandler.UpdateUserStatus)
			r.Get("/stats", adminHandler.GetStats)
		})
	})

	return r
}

func (a *App) Run(ctx context.Context) error {
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	go a.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен: " + a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopWorker()
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Остановка сервера...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка graceful shutdown", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
