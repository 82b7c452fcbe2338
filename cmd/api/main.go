package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/freelancehours/internal/auth"
	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/db"
	httpx "github.com/geocoder89/freelancehours/internal/http"
	"github.com/geocoder89/freelancehours/internal/http/handlers"
	"github.com/geocoder89/freelancehours/internal/identity"
	"github.com/geocoder89/freelancehours/internal/notifications"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/geocoder89/freelancehours/internal/repo/memory"
	"github.com/geocoder89/freelancehours/internal/repo/postgres"
	"github.com/geocoder89/freelancehours/internal/session"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()
	checks := map[string]handlers.Check{}

	store, err := openStorage(ctx, cfg, prom, log, checks)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	defer store.close()

	deps := store.deps

	sessions, closeSessions := openSessions(ctx, cfg, checks)
	defer closeSessions()

	deps.Sessions = sessions
	deps.Tokens = auth.NewManager(cfg.SessionSecret, 0)
	deps.Provider = identity.NewGoogleProvider(identity.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		CallbackURL:  cfg.GoogleCallbackURL,
	})
	deps.Prom = prom
	deps.Checks = checks
	deps.Notifier = notifications.NewProtectedNotifier(notifications.NewLogNotifier(log), notifications.ProtectedNotifierConfig{})

	seedCtx, cancel := config.WithTimeout(5 * time.Second)
	err = db.EnsureAdminUser(seedCtx, store.admins, cfg, log)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	router := httpx.NewRouter(log, deps, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage, "sessions", cfg.SessionStore)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	// Graceful shutdown

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

type storage struct {
	deps   httpx.Deps
	admins db.AdminSeeder
	close  func()
}

// openStorage builds the repositories for cfg.Storage. The postgres backend
// migrates the schema before anything reads from it.
func openStorage(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger, checks map[string]handlers.Check) (storage, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")

		mem := memory.New()
		return storage{
			deps:   httpx.Deps{Users: mem.Users, Clients: mem.Clients, Hours: mem.Hours},
			admins: mem.Users,
			close:  func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return storage{}, fmt.Errorf("db connect: %w", err)
	}

	if _, err := db.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return storage{}, fmt.Errorf("migrate: %w", err)
	}

	checks["database"] = pool.Ping

	users := postgres.NewUsersRepo(pool, prom)

	return storage{
		deps: httpx.Deps{
			Users:   users,
			Clients: postgres.NewClientsRepo(pool, prom),
			Hours:   postgres.NewHoursRepo(pool, prom),
		},
		admins: users,
		close:  pool.Close,
	}, nil
}

func openSessions(ctx context.Context, cfg config.Config, checks map[string]handlers.Check) (session.Store, func()) {
	if cfg.SessionStore == "redis" {
		store := session.NewRedisStore(session.NewRedisClient(session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), cfg.SessionTTL)

		checks["sessions"] = store.Ping
		return store, func() { _ = store.Close() }
	}

	store := session.NewMemoryStore(cfg.SessionTTL)
	go store.RunPruner(ctx, cfg.SessionPruneEvery)

	checks["sessions"] = store.Ping
	return store, func() {}
}
