package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/logging"
)

// TokenJanitor periodically deletes refresh tokens that expired longer than
// the retention window ago. Tokens inside the window are kept so a late
// replay is still recognised.
type TokenJanitor struct {
	store     domain.RefreshTokenStore
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	clock     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTokenJanitor creates a janitor; a nil logger discards output
func NewTokenJanitor(store domain.RefreshTokenStore, interval, retention time.Duration, logger *slog.Logger) *TokenJanitor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TokenJanitor{
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger.With("component", "token_janitor"),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce executes a single purge and returns the number of deleted records
func (j *TokenJanitor) RunOnce(ctx context.Context) (int64, error) {
	before := j.clock().Add(-j.retention)
	purged, err := j.store.PurgeExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired refresh tokens: %w", err)
	}
	if purged > 0 {
		j.logger.InfoContext(ctx, "purged expired refresh tokens", "count", purged, "before", before)
	}
	return purged, nil
}

// Start runs a purge immediately and then on every interval until Stop or ctx cancellation
func (j *TokenJanitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run(ctx)
}

// Stop cancels the loop and waits for an in-flight purge to finish
func (j *TokenJanitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *TokenJanitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.cycle(ctx)
		}
	}
}

func (j *TokenJanitor) cycle(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
		j.logger.ErrorContext(ctx, "token purge failed", "error", err)
	}
}
