package bouyomi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultSocketAddr is where the application listens for socket commands.
	DefaultSocketAddr = "127.0.0.1:50001"
	// DefaultHTTPAddr is where the application serves its HTTP endpoint.
	DefaultHTTPAddr = "127.0.0.1:50080"
)

// DialFunc opens a stream connection to addr.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ClientOption configures a Client or HTTPClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	timeout time.Duration
	logger  *log.Logger
	dial    DialFunc
	http    *http.Client
}

// WithDefaultTimeout bounds every call that does not carry its own timeout.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.timeout = d }
}

// WithLogger routes client diagnostics to logger. Clients are silent by default.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *clientConfig) { c.logger = logger }
}

// WithDialer replaces the socket dialer.
func WithDialer(dial DialFunc) ClientOption {
	return func(c *clientConfig) { c.dial = dial }
}

// WithHTTPClient replaces the HTTP client used by HTTPClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) { c.http = hc }
}

func newClientConfig(opts []ClientOption) clientConfig {
	var d net.Dialer
	cfg := clientConfig{dial: d.DialContext}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	return cfg
}

// Client speaks the application's binary socket protocol. Every call opens its own
// short-lived connection, so a Client is safe for concurrent use.
type Client struct {
	addr    string
	timeout time.Duration
	dial    DialFunc
	logger  *log.Logger
}

// NewClient returns a socket client for addr ("host:port"). An empty addr uses
// DefaultSocketAddr.
func NewClient(addr string, opts ...ClientOption) *Client {
	cfg := newClientConfig(opts)
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = DefaultSocketAddr
	}
	return &Client{
		addr:    addr,
		timeout: cfg.timeout,
		dial:    cfg.dial,
		logger:  cfg.logger.With("transport", "socket"),
	}
}

// Addr returns the default connection target.
func (c *Client) Addr() string { return c.addr }

// Talk delivers one talk message and returns once it has been written.
func (c *Client) Talk(ctx context.Context, req TalkRequest) error {
	opts := []CallOption{}
	if req.Host != "" {
		opts = append(opts, WithHost(req.Host))
	}
	if req.Timeout > 0 {
		opts = append(opts, WithTimeout(req.Timeout))
	}
	_, err := c.exchange(ctx, CommandTalk, EncodeTalk(req), false, opts)
	return err
}

// Query sends cmd and, for commands that answer, returns the decoded reply. Commands without
// a reply return 0. Any transport failure or short reply is reported as ErrUnavailable.
func (c *Client) Query(ctx context.Context, cmd Command, opts ...CallOption) (uint32, error) {
	if cmd == CommandTalk {
		return 0, fmt.Errorf("%w: talk needs a request body, use Talk", ErrInvalidRequest)
	}
	return c.exchange(ctx, cmd, EncodeCommand(cmd), cmd.ExpectsReply(), opts)
}

// Pause halts playback.
func (c *Client) Pause(ctx context.Context, opts ...CallOption) error {
	_, err := c.Query(ctx, CommandPause, opts...)
	return err
}

// Resume continues paused playback.
func (c *Client) Resume(ctx context.Context, opts ...CallOption) error {
	_, err := c.Query(ctx, CommandResume, opts...)
	return err
}

// Skip abandons the current line and moves to the next one.
func (c *Client) Skip(ctx context.Context, opts ...CallOption) error {
	_, err := c.Query(ctx, CommandSkip, opts...)
	return err
}

// Clear cancels every line the application has queued.
func (c *Client) Clear(ctx context.Context, opts ...CallOption) error {
	_, err := c.Query(ctx, CommandClear, opts...)
	return err
}

// GetPause reports whether playback is paused.
func (c *Client) GetPause(ctx context.Context, opts ...CallOption) (bool, error) {
	v, err := c.Query(ctx, CommandGetPause, opts...)
	return v != 0, err
}

// GetNowPlaying reports whether a line is being spoken.
func (c *Client) GetNowPlaying(ctx context.Context, opts ...CallOption) (bool, error) {
	v, err := c.Query(ctx, CommandGetNowPlaying, opts...)
	return v != 0, err
}

// GetTaskCount returns the number of lines waiting in the application.
func (c *Client) GetTaskCount(ctx context.Context, opts ...CallOption) (int, error) {
	v, err := c.Query(ctx, CommandGetTaskCount, opts...)
	return int(v), err
}

// Status runs the three status queries.
func (c *Client) Status(ctx context.Context, opts ...CallOption) (Status, error) {
	var (
		st  Status
		err error
	)
	if st.Paused, err = c.GetPause(ctx, opts...); err != nil {
		return Status{}, err
	}
	if st.NowPlaying, err = c.GetNowPlaying(ctx, opts...); err != nil {
		return Status{}, err
	}
	if st.TaskCount, err = c.GetTaskCount(ctx, opts...); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (c *Client) exchange(ctx context.Context, cmd Command, msg []byte, wantReply bool, opts []CallOption) (uint32, error) {
	call := resolveCall(c.addr, c.timeout, opts)
	if call.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.timeout)
		defer cancel()
	}

	conn, err := c.dial(ctx, "tcp", call.host)
	if err != nil {
		c.logger.Debug("connect failed", "cmd", cmd, "addr", call.host, "err", err)
		return 0, fmt.Errorf("%w: connect %s: %w", ErrUnavailable, call.host, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock I/O when the caller cancels without a deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	if _, err := conn.Write(msg); err != nil {
		return 0, fmt.Errorf("%w: send %s: %w", ErrUnavailable, cmd, err)
	}
	c.logger.Debug("sent", "cmd", cmd, "addr", call.host, "bytes", len(msg))
	if !wantReply {
		return 0, nil
	}

	var reply [replyLen]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: %s reply: %w", ErrUnavailable, cmd, errors.Join(ErrMalformedResponse, err))
		}
		return 0, fmt.Errorf("%w: receive %s: %w", ErrUnavailable, cmd, err)
	}
	return decodeReply(reply), nil
}
