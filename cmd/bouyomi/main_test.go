package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/config"
)

type lineRecorder struct {
	lines  []string
	failOn string
}

func (r *lineRecorder) Talk(_ context.Context, req bouyomi.TalkRequest) error {
	if req.Text == r.failOn {
		return bouyomi.ErrUnavailable
	}
	r.lines = append(r.lines, req.Text)
	return nil
}

func TestSayLines_SendsNonBlankLinesInOrder(t *testing.T) {
	rec := &lineRecorder{}
	input := "first\n\n  second  \nthird\n"
	err := sayLines(context.Background(), rec, strings.NewReader(input), func(s string) bouyomi.TalkRequest {
		return bouyomi.NewTalkRequest(s)
	})
	if err != nil {
		t.Fatalf("sayLines returned error: %v", err)
	}
	if got := strings.Join(rec.lines, ","); got != "first,second,third" {
		t.Fatalf("lines = %s", got)
	}
}

func TestSayLines_StopsAtFirstFailure(t *testing.T) {
	rec := &lineRecorder{failOn: "b"}
	err := sayLines(context.Background(), rec, strings.NewReader("a\nb\nc\n"), func(s string) bouyomi.TalkRequest {
		return bouyomi.NewTalkRequest(s)
	})
	if !errors.Is(err, bouyomi.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if len(rec.lines) != 1 || rec.lines[0] != "a" {
		t.Fatalf("lines = %v, want [a]", rec.lines)
	}
}

func TestSay_RejectsInvalidSettings(t *testing.T) {
	rec := &lineRecorder{}
	err := say(context.Background(), rec, bouyomi.NewTalkRequest("x", bouyomi.WithSpeed(10)))
	if !errors.Is(err, bouyomi.ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	if len(rec.lines) != 0 {
		t.Fatal("invalid request was sent")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("BOUYOMI_TRANSPORT", "")
	t.Setenv("BOUYOMI_HTTP_ADDR", "")
	cmd := newRootCmd()
	path := filepath.Join(t.TempDir(), "missing.toml")
	if err := cmd.ParseFlags([]string{"--config", path, "--transport", "HTTP", "--addr", "10.0.0.2:8080", "--timeout", "250ms"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	flags := &globalFlags{configPath: path, transport: "HTTP", addr: "10.0.0.2:8080"}
	flags.timeout, _ = cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.Transport != config.TransportHTTP || cfg.HTTPAddr != "10.0.0.2:8080" || cfg.TimeoutMS != 250 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.SocketAddr != bouyomi.DefaultSocketAddr {
		t.Fatalf("socket addr changed to %q", cfg.SocketAddr)
	}
}

func TestVoicesRequiresHTTP(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "--transport", "socket", "voices"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "http transport") {
		t.Fatalf("error = %v, want http transport hint", err)
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	writeStatus(&buf, cfg, cfg.SocketAddr, bouyomi.Status{Paused: true, TaskCount: 2})
	out := buf.String()
	for _, want := range []string{"paused:      true", "tasks:       2", "(socket)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "now task id") {
		t.Fatal("socket status printed a task id")
	}
}
