package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocketplan/pocketplan/internal/config"
	"github.com/pocketplan/pocketplan/internal/database"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg  config.Application
	db   *pgxpool.Pool
	deps *Dependencies
	srv  *http.Server
}

// NewApplication opens the database, applies migrations and builds the HTTP server.
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	deps, err := BuildDependencies(ctx, db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	srv := &http.Server{
		Handler:      NewRouter(deps),
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, srv: srv}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and closes connections.
func (a *Application) Run(ctx context.Context) error {
	defer a.db.Close()
	defer a.deps.Close()

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		serveErr <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}
