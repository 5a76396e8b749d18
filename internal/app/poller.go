package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/state"
)

const (
	defaultPollInterval = time.Second
	maxBackoff          = 30 * time.Second
)

// StatusFetcher is the part of a client the poller needs.
type StatusFetcher interface {
	Status(ctx context.Context, opts ...bouyomi.CallOption) (bouyomi.Status, error)
}

// StartPoller launches a background goroutine that refreshes the store, slowing down while
// the application is unreachable. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client StatusFetcher, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, client StatusFetcher, logger *log.Logger) {
	status, err := client.Status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(bouyomi.Status{}, err)
		logger.Debug("status poll failed", "err", err)
		return
	}
	store.Update(status, nil)
}

// calculateBackoff doubles the interval for each consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
