package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/bouyomi/bouyomi"
)

// Transport names accepted in the config file.
const (
	TransportSocket = "socket"
	TransportHTTP   = "http"
)

// Config controls how the CLI and monitor reach the speech application.
type Config struct {
	Transport  string `toml:"transport" env:"TRANSPORT"`
	SocketAddr string `toml:"socket_addr" env:"SOCKET_ADDR"`
	HTTPAddr   string `toml:"http_addr" env:"HTTP_ADDR"`
	TimeoutMS  int    `toml:"timeout_ms" env:"TIMEOUT_MS"`
	PollMS     int    `toml:"poll_ms" env:"POLL_MS"`
	LogLevel   string `toml:"log_level" env:"LOG_LEVEL"`
	LogFile    string `toml:"log_file" env:"LOG_FILE"`
}

const (
	defaultConfigPath = "~/.config/bouyomi/config.toml"
	defaultLogFile    = "~/.local/state/bouyomi/bouyomi.log"
	defaultTimeoutMS  = 3000
	defaultPollMS     = 1000
	defaultLogLevel   = "info"
	envPrefix         = "BOUYOMI_"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Transport:  TransportSocket,
		SocketAddr: bouyomi.DefaultSocketAddr,
		HTTPAddr:   bouyomi.DefaultHTTPAddr,
		TimeoutMS:  defaultTimeoutMS,
		PollMS:     defaultPollMS,
		LogLevel:   defaultLogLevel,
		LogFile:    defaultLogFile,
	}
}

// Load reads the config file at path (or the default location), falling back to defaults when
// it is missing, then applies BOUYOMI_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	def := Default()
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if c.Transport == "" {
		c.Transport = def.Transport
	}
	c.SocketAddr = strings.TrimSpace(c.SocketAddr)
	if c.SocketAddr == "" {
		c.SocketAddr = def.SocketAddr
	}
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	if c.HTTPAddr == "" {
		c.HTTPAddr = def.HTTPAddr
	}
	c.LogLevel = strings.TrimSpace(c.LogLevel)
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.LogFile = strings.TrimSpace(c.LogFile)
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	c.LogFile = mustExpand(c.LogFile)
}

// Validate reports settings the CLI cannot work with.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportSocket, TransportHTTP:
	default:
		return fmt.Errorf("transport must be one of socket|http, got %q", c.Transport)
	}
	if c.TimeoutMS < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	if c.PollMS < 0 {
		return errors.New("poll_ms must be >= 0")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Addr returns the address for the configured transport.
func (c Config) Addr() string {
	if c.Transport == TransportHTTP {
		return c.HTTPAddr
	}
	return c.SocketAddr
}

// Timeout is the per-call timeout. Zero disables it.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// PollInterval is how often the monitor refreshes the status.
func (c Config) PollInterval() time.Duration {
	if c.PollMS <= 0 {
		return defaultPollMS * time.Millisecond
	}
	return time.Duration(c.PollMS) * time.Millisecond
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
