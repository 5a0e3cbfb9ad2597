package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"habittracker/habits-api/internal/audit"
	"habittracker/habits-api/internal/auth"
	"habittracker/habits-api/internal/config"
	"habittracker/habits-api/internal/habitlogs"
	"habittracker/habits-api/internal/habits"
	"habittracker/habits-api/internal/httpserver"
	"habittracker/habits-api/internal/migrations"
	"habittracker/habits-api/internal/observability"
)

const (
	migrateTimeout    = 30 * time.Second
	limiterSweepEvery = 5 * time.Minute
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	db      *sql.DB
	audit   *audit.Logger
	limiter *httpserver.RateLimiter
	server  *httpserver.Server
}

type stores struct {
	users     auth.UserStore
	habits    habits.Store
	habitLogs habitlogs.Store
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLoggerWithLevel(os.Stdout, cfg.LogLevel)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = openDatabase(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("database schema up to date")
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
	}

	a, err := newWithDB(cfg, logger, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	return a, nil
}

func openDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := migrations.NewService().Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newWithDB wires stores, services and the HTTP server. A nil db selects the
// in-memory stores.
func newWithDB(cfg config.Config, logger *slog.Logger, db *sql.DB) (*App, error) {
	st, err := buildStores(db)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(st.users, auth.ServiceConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	habitService, err := habits.NewService(st.habits)
	if err != nil {
		return nil, fmt.Errorf("create habit service: %w", err)
	}
	habitLogService, err := habitlogs.NewService(st.habitLogs, habitService)
	if err != nil {
		return nil, fmt.Errorf("create habit log service: %w", err)
	}

	auditLogger := audit.NewLogger(cfg.AuditLogFile)
	limiter := httpserver.NewRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst, logger.With("component", "ratelimit"))

	deps := httpserver.Deps{
		Auth:         authService,
		Habits:       habitService,
		HabitLogs:    habitLogService,
		Audit:        auditLogger,
		Logger:       logger.With("component", "http"),
		SessionTTL:   cfg.Auth.SessionTTL,
		CookieSecure: cfg.Auth.CookieSecure,
		ClientOrigin: cfg.ClientOrigin,
		AuthLimiter:  limiter,
	}
	if db != nil {
		deps.DB = db
	}

	return &App{
		cfg:     cfg,
		log:     logger,
		db:      db,
		audit:   auditLogger,
		limiter: limiter,
		server:  httpserver.New(cfg.HTTP, deps),
	}, nil
}

func buildStores(db *sql.DB) (stores, error) {
	if db == nil {
		habitStore := habits.NewInMemoryStore()
		return stores{
			users:     auth.NewInMemoryUserStore(),
			habits:    habitStore,
			habitLogs: habitlogs.NewInMemoryStore(habitStore),
		}, nil
	}

	users, err := auth.NewPostgresUserStore(db)
	if err != nil {
		return stores{}, fmt.Errorf("create postgres user store: %w", err)
	}
	habitStore, err := habits.NewPostgresStore(db)
	if err != nil {
		return stores{}, fmt.Errorf("create postgres habit store: %w", err)
	}
	logStore, err := habitlogs.NewPostgresStore(db)
	if err != nil {
		return stores{}, fmt.Errorf("create postgres habit log store: %w", err)
	}
	return stores{users: users, habits: habitStore, habitLogs: logStore}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.audit.Close(); err != nil {
			a.log.Warn("close audit log", "error", err)
		}
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	a.limiter.StartCleanup(ctx, limiterSweepEvery)

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
