package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"timeTracker/internal/config"
	"timeTracker/internal/handlers"
	"timeTracker/internal/logger"
	"timeTracker/internal/middleware"
	"timeTracker/internal/repository/inmemory"
	"timeTracker/internal/repository/postgres"
	"timeTracker/internal/service"
	"timeTracker/internal/worker"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Repository объединяет все хранилища: и postgres, и inmemory
// реализуют его целиком
type Repository interface {
	service.EntryRepository
	service.ActivityRepository
	service.TaskRepository
	service.TagRepository
	service.HeatmapRepository
}

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	repo      Repository
	worker    *worker.StaleEntryWorker
	shutdowns []func() // функции для graceful shutdown, вызываются в обратном порядке
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

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	a.initRouter()
	a.initServer()
	a.initWorker()

	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "inmemory":
		logger.Info("App: Хранилище в памяти")
		a.repo = inmemory.New()
		return nil

	case "postgres":
		if err := a.migrateWithRetry(ctx); err != nil {
			return err
		}

		storage, err := a.connectWithRetry(ctx)
		if err != nil {
			return err
		}
		a.repo = storage

		a.shutdowns = append(a.shutdowns, func() {
			storage.Close()
		})
		return nil

	default:
		return fmt.Errorf("неизвестный тип хранилища: %s", a.config.Repository.Type)
	}
}

// база может подниматься дольше приложения, поэтому подключение
// и миграции повторяются с экспоненциальной задержкой
func (a *App) migrateWithRetry(ctx context.Context) error {
	operation := func() error {
		return postgres.Migrate(a.config.Database.URL)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("применение миграций: %w", err)
	}
	return nil
}

func (a *App) connectWithRetry(ctx context.Context) (*postgres.Storage, error) {
	var storage *postgres.Storage

	operation := func() error {
		var err error
		storage, err = postgres.New(ctx, a.config.Database.URL, postgres.PoolConfig{
			MaxConns:    int32(a.config.Database.MaxConnections),
			MinConns:    int32(a.config.Database.MinConnections),
			IdleTimeout: a.config.Database.IdleTimeout,
		})
		if err != nil {
			logger.Warn("App: PostgreSQL недоступен, повтор", zap.Error(err))
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
	}
	return storage, nil
}

func (a *App) initRouter() {
	entryService := service.NewEntryService(a.repo, a.repo, a.repo)
	activityService := service.NewActivityService(a.repo)
	taskService := service.NewTaskService(a.repo, a.repo)
	tagService := service.NewTagService(a.repo)
	heatmapService := service.NewHeatmapService(a.repo)

	entryHandler := handlers.NewEntryHandler(&entryService)
	activityHandler := handlers.NewActivityHandler(&activityService)
	taskHandler := handlers.NewTaskHandler(&taskService)
	tagHandler := handlers.NewTagHandler(&tagService)
	heatmapHandler := handlers.NewHeatmapHandler(&heatmapService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", entryHandler.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entryHandler.ListEntries)          // GET /entries
			r.Post("/", entryHandler.CreateManualEntry)   // POST /entries
			r.Post("/start", entryHandler.StartEntry)     // POST /entries/start
			r.Get("/active", entryHandler.GetActiveEntry) // GET /entries/active

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", entryHandler.UpdateEntry)  // PATCH /entries/{id}
				r.Delete("/", entryHandler.DeleteEntry) // DELETE /entries/{id}

				r.Post("/stop", entryHandler.StopEntry) // POST /entries/{id}/stop
			})
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", activityHandler.ListActivities) // GET /activities
			r.Post("/", activityHandler.CreateActivity)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", activityHandler.GetActivityByID)
				r.Put("/", activityHandler.RenameActivity)
				r.Delete("/", activityHandler.DeleteActivity)

				r.Post("/archive", activityHandler.ArchiveActivity)
				r.Post("/unarchive", activityHandler.UnarchiveActivity)
			})

			r.Get("/{activityID}/tasks", taskHandler.ListTasksByActivity) // GET /activities/{activityID}/tasks
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)
				r.Put("/", taskHandler.RenameTask)
				r.Delete("/", taskHandler.DeleteTask)

				r.Post("/archive", taskHandler.ArchiveTask)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.ListTags)
			r.Post("/", tagHandler.CreateTag)
			r.Delete("/{id}", tagHandler.DeleteTag)
		})

		r.Get("/heatmap", heatmapHandler.GetHeatmap) // GET /heatmap?from=&to=
	})

	a.router = r
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (a *App) initWorker() {
	a.worker = worker.NewStaleEntryWorker(
		a.repo,
		&a.config.Worker.Interval,
		&a.config.Worker.StaleThreshold,
		&a.config.Worker.BatchSize,
	)
}

// Run блокируется до отмены контекста, затем аккуратно гасит сервер
func (a *App) Run(ctx context.Context) error {
	workerCtx, cancelWorker := context.WithCancel(ctx)
	go a.worker.Start(workerCtx)

	a.shutdowns = append(a.shutdowns, cancelWorker)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("работа сервера: %w", err)
	case <-ctx.Done():
	}

	logger.Info("App: Получен сигнал остановки")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}

	a.Shutdown()
	return nil
}

// Shutdown вызывает накопленные функции завершения в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
