package main

import (
	"context"
	"database/sql"
	"dispatch-board-service/internal/adapters/cache"
	"dispatch-board-service/internal/adapters/fleetapi"
	"dispatch-board-service/internal/adapters/push"
	"dispatch-board-service/internal/adapters/repositories"
	"dispatch-board-service/internal/api"
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/config"
	"dispatch-board-service/internal/platform/db"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"dispatch-board-service/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	flush, err := obs.Init(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal(err)
	}
	defer flush()

	if err := run(cfg); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	var sqlite *sql.DB
	openSqlite := func() (*sql.DB, error) {
		if sqlite != nil {
			return sqlite, nil
		}
		conn, err := db.Open(db.DriverSqlite, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, conn.Close)
		if err := repositories.InitSchema(conn); err != nil {
			return nil, err
		}
		sqlite = conn
		return conn, nil
	}

	backend, err := newBackend(cfg, openSqlite)
	if err != nil {
		return err
	}

	store, err := newPreferenceStore(cfg, openSqlite, &closers)
	if err != nil {
		return err
	}

	hub := push.NewHub()
	go hub.Run(ctx)

	watcher := services.NewBoardWatcher(backend, hub, dto.EncodeBoard, cfg.RefreshInterval)
	go watcher.Run(ctx)

	router := api.NewRouter(api.Deps{
		Backend:        backend,
		Watcher:        watcher,
		Prefs:          services.NewPreferenceService(store, backend),
		Hub:            hub,
		OriginPatterns: cfg.WSOriginPatterns,
	})

	// WriteTimeout stays zero: board websockets are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("fleet_backend", cfg.FleetBackend),
			zap.String("preference_store", cfg.PreferenceStore),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBackend(cfg *config.Config, openSqlite func() (*sql.DB, error)) (ports.FleetBackend, error) {
	switch cfg.FleetBackend {
	case "api":
		return fleetapi.NewClient(cfg.FleetAPIURL, cfg.FleetAPIToken, cfg.FleetAPITimeout)
	case "sqlite":
		conn, err := openSqlite()
		if err != nil {
			return nil, err
		}
		// Seed demo data on startup for local runs.
		if err := repositories.SeedFromJSON(conn, cfg.SeedPath); err != nil {
			return nil, err
		}
		return repositories.NewSqliteFleetRepository(conn), nil
	}
	return nil, fmt.Errorf("unknown fleet backend %q", cfg.FleetBackend)
}

func newPreferenceStore(cfg *config.Config, openSqlite func() (*sql.DB, error), closers *[]func() error) (ports.PreferenceStore, error) {
	switch cfg.PreferenceStore {
	case "memory":
		return cache.NewMemoryPreferenceStore(), nil
	case "redis":
		store, err := cache.NewRedisPreferenceStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PreferenceTTL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, store.Close)
		return store, nil
	case "sqlite":
		conn, err := openSqlite()
		if err != nil {
			return nil, err
		}
		return cache.NewSqlitePreferenceStore(conn), nil
	case "postgres":
		conn, err := db.Open(db.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, conn.Close)
		if err := repositories.InitPostgresSchema(conn); err != nil {
			return nil, err
		}
		return cache.NewSQLPreferenceStore(conn), nil
	}
	return nil, fmt.Errorf("unknown preference store %q", cfg.PreferenceStore)
}
