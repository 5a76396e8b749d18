package bouyomi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != DefaultHTTPAddr {
		t.Fatalf("url = %q, want http://%s", u.String(), DefaultHTTPAddr)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestHTTPClient_TalkUsesGetForShortText(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		method   string
		rawQuery string
		agent    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, rawQuery, agent = r.Method, r.URL.RawQuery, r.Header.Get("User-Agent")
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(server.URL)
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	req := NewTalkRequest("hello world", WithVoice(VoiceFemale1), WithVolume(100), WithSpeed(100))
	if err := c.Talk(context.Background(), req); err != nil {
		t.Fatalf("Talk returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodGet {
		t.Fatalf("method = %s, want GET", method)
	}
	if rawQuery != "text=hello%20world&voice=1&volume=100&speed=100" {
		t.Fatalf("query = %q", rawQuery)
	}
	if !strings.HasPrefix(agent, "bouyomi/") {
		t.Fatalf("User-Agent = %q, want bouyomi/*", agent)
	}
}

func TestHTTPClient_TalkPostsLongText(t *testing.T) {
	t.Parallel()

	type seen struct {
		method string
		query  url.Values
		form   string
	}
	got := make(chan seen, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- seen{method: r.Method, query: r.URL.Query(), form: string(body)}
	}))
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(server.URL)
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	// Each "あ" escapes to 9 bytes, so 112 of them cross the 1000-byte threshold.
	text := strings.Repeat("あ", 112)
	if err := c.Talk(context.Background(), NewTalkRequest(text, WithTone(120))); err != nil {
		t.Fatalf("Talk returned error: %v", err)
	}

	s := <-got
	if s.method != http.MethodPost {
		t.Fatalf("method = %s, want POST", s.method)
	}
	if s.query.Has("text") {
		t.Fatalf("query carries text for POST: %v", s.query)
	}
	if s.query.Get("tone") != "120" {
		t.Fatalf("tone = %q, want 120", s.query.Get("tone"))
	}
	form, err := url.ParseQuery(s.form)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if form.Get("text") != text {
		t.Fatalf("posted text mismatch")
	}
}

func TestHTTPClient_CommandsDecodeSingleValue(t *testing.T) {
	t.Parallel()

	var paths []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/getpause":
			_, _ = w.Write([]byte(`{"pause": true}`))
		case "/getnowplaying":
			_, _ = w.Write([]byte(`{"nowPlaying": false}`))
		case "/gettalktaskcount":
			_, _ = w.Write([]byte(`{"talkTaskCount": 3}`))
		case "/getnowtaskid":
			_, _ = w.Write([]byte(`{"nowTaskId": 42}`))
		case "/getvoicelist":
			_ = json.NewEncoder(w).Encode(map[string][]VoiceInfo{
				"voiceList": {{ID: 1, Kind: "AquesTalk", Name: "女性1", Alias: "f1"}},
			})
		case "/pause", "/resume", "/skip", "/clear":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(server.URL, WithDefaultTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	ctx := context.Background()

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	want := Status{Paused: true, NowPlaying: false, TaskCount: 3, NowTaskID: 42}
	if st != want {
		t.Fatalf("Status = %#v, want %#v", st, want)
	}

	voices, err := c.Voices(ctx)
	if err != nil {
		t.Fatalf("Voices returned error: %v", err)
	}
	if len(voices) != 1 || voices[0].ID != 1 || voices[0].Alias != "f1" {
		t.Fatalf("Voices = %#v", voices)
	}

	for _, fn := range []func(context.Context, ...CallOption) error{c.Pause, c.Resume, c.Skip, c.Clear} {
		if err := fn(ctx); err != nil {
			t.Fatalf("control command returned error: %v", err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	tail := strings.Join(paths[len(paths)-4:], ",")
	if tail != "/pause,/resume,/skip,/clear" {
		t.Fatalf("paths = %s", tail)
	}
}

func TestHTTPClient_ErrorsAreUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getpause":
			_, _ = w.Write([]byte("{not-json"))
		case "/getnowplaying":
			_, _ = w.Write([]byte(`{"a": 1, "b": 2}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(server.URL)
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.GetPause(ctx); !errors.Is(err, ErrMalformedResponse) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("GetPause error = %v, want malformed + unavailable", err)
	}
	if _, err := c.GetNowPlaying(ctx); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("GetNowPlaying error = %v, want malformed", err)
	}
	if _, err := c.GetTaskCount(ctx); err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("GetTaskCount error = %v, want status 500", err)
	}

	dead, err := NewHTTPClient(closedAddr(t), WithDefaultTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	if _, err := dead.GetTaskCount(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("GetTaskCount error = %v, want ErrUnavailable", err)
	}
}

func TestHTTPClient_CommandDecodesMultiFieldReplyWhole(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pause": true, "nowPlaying": true, "talkTaskCount": 2}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(server.URL)
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}

	var reply struct {
		Pause         bool `json:"pause"`
		NowPlaying    bool `json:"nowPlaying"`
		TalkTaskCount int  `json:"talkTaskCount"`
	}
	if err := c.command(context.Background(), "getstatus", &reply, nil); err != nil {
		t.Fatalf("command returned error: %v", err)
	}
	if !reply.Pause || !reply.NowPlaying || reply.TalkTaskCount != 2 {
		t.Fatalf("reply = %#v, want every field decoded", reply)
	}

	var fields map[string]json.RawMessage
	if err := c.command(context.Background(), "getstatus", &fields, nil); err != nil {
		t.Fatalf("command returned error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("fields = %v, want 3 entries", fields)
	}
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a b&c", want: "a%20b%26c"},
		{in: "path/to-file_v1.0~", want: "path/to-file_v1.0~"},
		{in: "1+1=2", want: "1%2B1%3D2"},
		{in: "what?#", want: "what%3F%23"},
		{in: "*'()!", want: "%2A%27%28%29%21"},
		{in: "あ", want: "%E3%81%82"},
	}
	for _, tt := range tests {
		if got := escapeText(tt.in); got != tt.want {
			t.Errorf("escapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
