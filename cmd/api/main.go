package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warungmbahmanto/backend-api/config"
	"github.com/warungmbahmanto/backend-api/internal/container"
	"github.com/warungmbahmanto/backend-api/internal/router"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
	"github.com/warungmbahmanto/backend-api/pkg/validation"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	if err := runMigrations(cfg); err != nil {
		logger.WithError(err).Fatal("database migration failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("container init failed")
	}
	defer c.Close()

	validation.Init()
	engine := router.Setup(c)

	go pruneBlacklist(ctx, c, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http server shutdown failed")
	}
}

func runMigrations(cfg *config.Config) error {
	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// pruneBlacklist clears expired revoked tokens once an hour so the table
// stays bounded by the session TTL.
func pruneBlacklist(ctx context.Context, c *container.Container, logger *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Blacklist.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.WithError(err).Warn("blacklist prune failed")
				continue
			}
			if n > 0 {
				logger.WithField("deleted", n).Info("pruned expired blacklisted tokens")
			}
		}
	}
}
