package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tagwise-console/internal/backend"
	"tagwise-console/internal/config"
	"tagwise-console/internal/database"
	"tagwise-console/internal/event"
	"tagwise-console/internal/handler"
	"tagwise-console/internal/middleware"
	"tagwise-console/internal/router"
	"tagwise-console/internal/service"
	"tagwise-console/internal/session"
	"tagwise-console/internal/storage"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

type healthCheck = func(ctx context.Context) error

func New(cfg *config.Config) (*App, error) {
	var cleanups []func()
	fail := func(err error) (*App, error) {
		runCleanups(cleanups)
		return nil, err
	}

	store, checks, storeCleanups, err := openStore(cfg)
	cleanups = append(cleanups, storeCleanups...)
	if err != nil {
		return fail(err)
	}

	bus := event.NewBus()
	auditCtx, auditCancel := context.WithCancel(context.Background())
	go event.NewAuditLogger(bus, slog.Default()).Run(auditCtx)
	cleanups = append(cleanups, auditCancel)

	client := backend.NewClient(cfg.BackendURL, cfg.BackendAuthPrefix, cfg.BackendTimeout)
	manager := session.NewManager(store, client, session.WithEventBus(bus), session.WithLogger(slog.Default()))
	client.SetTokenSource(session.TokenFromContext)
	client.OnUnauthorized(manager.HandleUnauthorized)

	views, err := handler.NewViews(manager)
	if err != nil {
		return fail(fmt.Errorf("failed to parse templates: %w", err))
	}

	datasetService := service.NewDatasetService(client, bus, cfg.MaxUploadSize)
	annotatorService := service.NewAnnotatorService(client)
	taskService := service.NewTaskService(client, bus)
	dashboardService := service.NewDashboardService(client)
	optionsService := service.NewOptionsService(client)

	sessionMiddleware := middleware.NewSessionMiddleware(manager, cfg.SessionCookieName, cfg.SessionCookieSecure, cfg.SessionTTL)
	appRouter := router.New(cfg, sessionMiddleware, router.Handlers{
		Session:   handler.NewSessionHandler(manager, views, checks),
		Auth:      handler.NewAuthHandler(manager, views),
		Admin:     handler.NewAdminHandler(dashboardService, optionsService, views),
		Dataset:   handler.NewDatasetHandler(datasetService, annotatorService, views),
		Annotator: handler.NewAnnotatorHandler(annotatorService, views),
		Task:      handler.NewTaskHandler(taskService, views),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	slog.Info("console configured",
		"backend", cfg.BackendURL,
		"session_store", cfg.SessionStore,
		"max_upload_size", cfg.MaxUploadSize,
	)

	return &App{server: server, cleanupFuncs: cleanups}, nil
}

// openStore builds the Session Store selected by SESSION_STORE together with
// the health checks and cleanups it needs.
func openStore(cfg *config.Config) (storage.Store, map[string]healthCheck, []func(), error) {
	checks := map[string]healthCheck{}

	switch cfg.SessionStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cleanups := []func(){func() { _ = client.Close() }}

		store := storage.NewRedisStore(client, "tagwise:", cfg.SessionTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return nil, nil, cleanups, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		checks["redis"] = store.Ping
		slog.Info("session store ready", "kind", "redis", "addr", cfg.RedisAddr)

		return store, checks, cleanups, nil

	case config.StorePostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanups := []func(){db.Close}

		if err := db.EnsureSchema(context.Background()); err != nil {
			return nil, nil, cleanups, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		store := storage.NewPostgresStore(db.Pool, cfg.SessionTTL)
		cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
		go store.StartCleanupTicker(cleanupCtx, time.Hour)
		cleanups = append([]func(){cleanupCancel}, cleanups...)

		checks["database"] = db.Health
		slog.Info("session store ready", "kind", "postgres")

		return store, checks, cleanups, nil

	default:
		slog.Info("session store ready", "kind", "memory")
		return storage.NewMemoryStore(), checks, nil, nil
	}
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		runCleanups(a.cleanupFuncs)
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	runCleanups(a.cleanupFuncs)
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func runCleanups(funcs []func()) {
	for _, cleanup := range funcs {
		cleanup()
	}
}
