package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/config"
	"github.com/five82/bouyomi/internal/prefs"
	"github.com/five82/bouyomi/internal/state"
	"github.com/five82/bouyomi/internal/ui"
)

// Options configure the monitor.
type Options struct {
	Config    config.Config
	PrefsPath string        // empty uses default ~/.config/bouyomi/prefs.toml
	PollEvery time.Duration // zero uses the configured interval
}

// Run boots the monitor until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := opts.Config

	logFile, err := OpenLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	logger := NewLogger(logFile, cfg.Level())

	remote, err := NewRemote(cfg, logger)
	if err != nil {
		return err
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	prefsUpdates := make(chan prefs.Prefs, 1)
	go func() {
		err := prefs.Watch(ctx, opts.PrefsPath, func(p prefs.Prefs) {
			select {
			case prefsUpdates <- p:
			case <-ctx.Done():
			}
		})
		if err != nil {
			logger.Warn("preferences will not reload", "err", err)
		}
	}()

	store := &state.Store{}
	talker := bouyomi.NewTalker(ctx, remote, bouyomi.WithTalkerLogger(logger))

	interval := cfg.PollInterval()
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}
	StartPoller(ctx, store, remote, interval, logger)

	logger.Info("monitor started", "transport", cfg.Transport, "addr", remote.Addr(), "poll", interval)

	err = ui.Run(ui.Options{
		Context:      ctx,
		Remote:       remote,
		Talker:       talker,
		Store:        store,
		Prefs:        userPrefs,
		PrefsPath:    opts.PrefsPath,
		PrefsUpdates: prefsUpdates,
		Transport:    cfg.Transport,
		LogPath:      cfg.LogFile,
		PollTick:     interval,
	})
	if err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}

	stats := talker.Stats()
	logger.Info("monitor stopped", "sent", stats.Sent, "failed", stats.Failed, "dropped", stats.Dropped)
	return nil
}
