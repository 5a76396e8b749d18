package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/app"
	"github.com/five82/bouyomi/internal/config"
)

// Version is set at build time.
var Version = "dev"

type globalFlags struct {
	configPath string
	prefsPath  string
	transport  string
	addr       string
	timeout    time.Duration
	poll       time.Duration
	verbose    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bouyomi: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "bouyomi",
		Short:         "Control a local BouyomiChan speech application",
		Long:          "Send lines and control commands to a running BouyomiChan-compatible speech application over its socket or HTTP interface. Without a subcommand the interactive monitor starts.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/bouyomi/config.toml)")
	pf.StringVar(&flags.transport, "transport", "", "transport to use: socket or http")
	pf.StringVar(&flags.addr, "addr", "", "application address (host:port, or a URL for http)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-command timeout")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	monitor := &cobra.Command{
		Use:   "monitor",
		Short: "Start the interactive monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, flags)
		},
	}
	for _, c := range []*cobra.Command{root, monitor} {
		c.Flags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/bouyomi/prefs.toml)")
		c.Flags().DurationVar(&flags.poll, "poll", 0, "status refresh interval")
	}

	root.AddCommand(
		monitor,
		newSayCmd(flags),
		newControlCmd(flags, "pause", "Pause speech", bouyomi.Remote.Pause),
		newControlCmd(flags, "resume", "Resume paused speech", bouyomi.Remote.Resume),
		newControlCmd(flags, "skip", "Skip the line being spoken", bouyomi.Remote.Skip),
		newControlCmd(flags, "clear", "Discard every queued line", bouyomi.Remote.Clear),
		newStatusCmd(flags),
		newVoicesCmd(flags),
		newVersionCmd(),
	)
	return root
}

func runMonitor(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	return app.Run(cmd.Context(), app.Options{
		Config:    cfg,
		PrefsPath: flags.prefsPath,
		PollEvery: flags.poll,
	})
}

// loadConfig reads the config file and environment, then applies flags the user set.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(flags.transport))
	}
	if changed("addr") {
		if cfg.Transport == config.TransportHTTP {
			cfg.HTTPAddr = strings.TrimSpace(flags.addr)
		} else {
			cfg.SocketAddr = strings.TrimSpace(flags.addr)
		}
	}
	if changed("timeout") {
		cfg.TimeoutMS = int(flags.timeout / time.Millisecond)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newRemote builds a client whose diagnostics go to stderr.
func newRemote(cmd *cobra.Command, flags *globalFlags) (bouyomi.Remote, config.Config, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, config.Config{}, err
	}
	level := log.WarnLevel
	if flags.verbose {
		level = log.DebugLevel
	}
	remote, err := app.NewRemote(cfg, app.NewLogger(cmd.ErrOrStderr(), level))
	if err != nil {
		return nil, config.Config{}, err
	}
	return remote, cfg, nil
}
