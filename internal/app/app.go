package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/config"
	"github.com/you/otams/internal/services"
)

// Run serves the HTTP API until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			c.Logger.Error("failed to close resources", "error", err)
		}
	}()

	if cfg.JanitorEnabled {
		janitor := c.Janitor()
		janitor.Start(ctx)
		defer janitor.Stop()
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, cfg.ShutdownTimeout, c.Logger)
}

func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// PromoteAdmin grants the Admin role to the user registered under email.
// Promoting an existing admin is a no-op.
func PromoteAdmin(ctx context.Context, users domain.UserRepository, email string) (*domain.User, error) {
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return user, nil
	}
	if err := users.UpdateRole(ctx, user.ID, domain.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	user.Role = domain.RoleAdmin
	return user, nil
}

// PurgeTokens runs one janitor pass with the given retention
func PurgeTokens(ctx context.Context, store domain.RefreshTokenStore, retention time.Duration, logger *slog.Logger) (int64, error) {
	return services.NewTokenJanitor(store, time.Hour, retention, logger).RunOnce(ctx)
}
