package app

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/config"
)

// NewRemote builds the client for the configured transport.
func NewRemote(cfg config.Config, logger *log.Logger) (bouyomi.Remote, error) {
	opts := []bouyomi.ClientOption{
		bouyomi.WithDefaultTimeout(cfg.Timeout()),
		bouyomi.WithLogger(logger),
	}
	switch cfg.Transport {
	case config.TransportHTTP:
		c, err := bouyomi.NewHTTPClient(cfg.HTTPAddr, opts...)
		if err != nil {
			return nil, fmt.Errorf("init http client: %w", err)
		}
		return c, nil
	case config.TransportSocket:
		return bouyomi.NewClient(cfg.SocketAddr, opts...), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
