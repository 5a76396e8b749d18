package bouyomi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultUserAgent = "bouyomi/0.1"
	// postThreshold is the escaped text length from which /talk switches to POST.
	postThreshold = 1000
)

// HTTPClient speaks the application's HTTP endpoint. It is safe for concurrent use.
type HTTPClient struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    *log.Logger
}

// NewHTTPClient builds an HTTPClient for addr ("host:port" or a URL). An empty addr uses
// DefaultHTTPAddr.
func NewHTTPClient(addr string, opts ...ClientOption) (*HTTPClient, error) {
	cfg := newClientConfig(opts)
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	hc := cfg.http
	if hc == nil {
		hc = &http.Client{}
	}
	return &HTTPClient{
		baseURL:   base,
		http:      hc,
		timeout:   cfg.timeout,
		userAgent: defaultUserAgent,
		logger:    cfg.logger.With("transport", "http"),
	}, nil
}

// Addr returns the default connection target.
func (c *HTTPClient) Addr() string { return c.baseURL.Host }

// Talk asks the application to speak req. Long texts are posted as a form body.
func (c *HTTPClient) Talk(ctx context.Context, req TalkRequest) error {
	escaped := escapeText(req.Text)
	values := talkParams(req)

	var body string
	method := http.MethodGet
	if len(escaped) >= postThreshold {
		method = http.MethodPost
		body = "text=" + escaped
	} else {
		values = append([]string{"text=" + escaped}, values...)
	}
	rel := &url.URL{Path: "/talk", RawQuery: strings.Join(values, "&")}

	opts := []CallOption{}
	if req.Host != "" {
		opts = append(opts, WithHost(req.Host))
	}
	if req.Timeout > 0 {
		opts = append(opts, WithTimeout(req.Timeout))
	}
	return c.doURL(ctx, method, rel, body, nil, opts)
}

// Pause halts playback.
func (c *HTTPClient) Pause(ctx context.Context, opts ...CallOption) error {
	return c.command(ctx, "pause", nil, opts)
}

// Resume continues paused playback.
func (c *HTTPClient) Resume(ctx context.Context, opts ...CallOption) error {
	return c.command(ctx, "resume", nil, opts)
}

// Skip abandons the current line and moves to the next one.
func (c *HTTPClient) Skip(ctx context.Context, opts ...CallOption) error {
	return c.command(ctx, "skip", nil, opts)
}

// Clear cancels every line the application has queued.
func (c *HTTPClient) Clear(ctx context.Context, opts ...CallOption) error {
	return c.command(ctx, "clear", nil, opts)
}

// GetPause reports whether playback is paused.
func (c *HTTPClient) GetPause(ctx context.Context, opts ...CallOption) (bool, error) {
	var paused bool
	err := c.command(ctx, "getpause", &paused, opts)
	return paused, err
}

// GetNowPlaying reports whether a line is being spoken.
func (c *HTTPClient) GetNowPlaying(ctx context.Context, opts ...CallOption) (bool, error) {
	var playing bool
	err := c.command(ctx, "getnowplaying", &playing, opts)
	return playing, err
}

// GetNowTaskID returns the id of the line being spoken.
func (c *HTTPClient) GetNowTaskID(ctx context.Context, opts ...CallOption) (int, error) {
	var id int
	err := c.command(ctx, "getnowtaskid", &id, opts)
	return id, err
}

// GetTaskCount returns the number of lines waiting in the application.
func (c *HTTPClient) GetTaskCount(ctx context.Context, opts ...CallOption) (int, error) {
	var n int
	err := c.command(ctx, "gettalktaskcount", &n, opts)
	return n, err
}

// Voices lists the synthesis voices the application offers.
func (c *HTTPClient) Voices(ctx context.Context, opts ...CallOption) ([]VoiceInfo, error) {
	var voices []VoiceInfo
	if err := c.command(ctx, "getvoicelist", &voices, opts); err != nil {
		return nil, err
	}
	return voices, nil
}

// Status runs the status queries, including the current task id.
func (c *HTTPClient) Status(ctx context.Context, opts ...CallOption) (Status, error) {
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
	if st.NowTaskID, err = c.GetNowTaskID(ctx, opts...); err != nil {
		return Status{}, err
	}
	return st, nil
}

// command issues GET /name and decodes the JSON reply into dest. A reply
// object with exactly one field is unwrapped to that field's value; any other
// object is decoded whole, so only struct or map destinations accept it.
func (c *HTTPClient) command(ctx context.Context, name string, dest any, opts []CallOption) error {
	rel := &url.URL{Path: "/" + name}
	if dest == nil {
		return c.doURL(ctx, http.MethodGet, rel, "", nil, opts)
	}
	var body json.RawMessage
	if err := c.doURL(ctx, http.MethodGet, rel, "", &body, opts); err != nil {
		return err
	}
	raw, err := replyValue(body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %s: %w: %w", ErrUnavailable, name, ErrMalformedResponse, err)
	}
	return nil
}

func (c *HTTPClient) doURL(ctx context.Context, method string, rel *url.URL, body string, dest any, opts []CallOption) error {
	call := resolveCall(c.baseURL.Host, c.timeout, opts)
	if call.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.timeout)
		defer cancel()
	}

	base := *c.baseURL
	base.Host = call.host
	reqURL := base.ResolveReference(rel)

	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, reqURL.String(), strings.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", rel.Path, "err", err)
		return fmt.Errorf("%w: execute request: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, rel.Path, resp.StatusCode)
	}
	c.logger.Debug("sent", "method", method, "path", rel.Path, "status", resp.StatusCode)
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %w: %w", ErrUnavailable, ErrMalformedResponse, err)
	}
	return nil
}

// replyValue returns the only field of a single-field reply object, or the
// whole object otherwise.
func replyValue(body json.RawMessage) (json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(payload) == 1 {
		for _, v := range payload {
			return v, nil
		}
	}
	return body, nil
}

// escapeText percent-encodes every byte except ASCII letters, digits and
// "_.-~/", matching the encoding the application's query parser expects.
func escapeText(text string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("_.-~/", c) >= 0
}

func talkParams(req TalkRequest) []string {
	var params []string
	if req.Voice != VoiceDefault {
		params = append(params, "voice="+strconv.Itoa(int(req.Voice)))
	}
	if req.Volume != Unset {
		params = append(params, "volume="+strconv.Itoa(req.Volume))
	}
	if req.Speed != Unset {
		params = append(params, "speed="+strconv.Itoa(req.Speed))
	}
	if req.Tone != Unset {
		params = append(params, "tone="+strconv.Itoa(req.Tone))
	}
	return params
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = DefaultHTTPAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse http addr %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
