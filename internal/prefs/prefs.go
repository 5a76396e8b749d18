// Package prefs handles persistence of the monitor's user preferences.
// Preferences are stored in ~/.config/bouyomi/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/bouyomi/bouyomi"
)

// Prefs holds the theme and the talk settings applied to lines typed in the monitor.
type Prefs struct {
	Theme  string `toml:"theme"`
	Voice  int    `toml:"voice"`
	Speed  int    `toml:"speed"`
	Tone   int    `toml:"tone"`
	Volume int    `toml:"volume"`
}

const (
	defaultPrefsPath = "~/.config/bouyomi/prefs.toml"
	defaultTheme     = "Dracula"
)

// Default returns preferences that leave every talk setting to the application.
func Default() Prefs {
	return Prefs{
		Theme:  defaultTheme,
		Voice:  int(bouyomi.VoiceDefault),
		Speed:  bouyomi.Unset,
		Tone:   bouyomi.Unset,
		Volume: bouyomi.Unset,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	prefs := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}

	return prefs.sanitize(), nil
}

// Save writes preferences to the given path, creating directories as needed. The file is
// replaced atomically so a concurrent reader or Watch never sees it truncated.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}

	return nil
}

// Request builds a talk request for text using these settings.
func (p Prefs) Request(text string) bouyomi.TalkRequest {
	return bouyomi.NewTalkRequest(text,
		bouyomi.WithVoice(bouyomi.Voice(p.Voice)),
		bouyomi.WithSpeed(p.Speed),
		bouyomi.WithTone(p.Tone),
		bouyomi.WithVolume(p.Volume),
	)
}

// sanitize resets any setting the application would reject.
func (p Prefs) sanitize() Prefs {
	def := Default()
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = def.Theme
	}
	check := func(field *int, fallback int, opt bouyomi.TalkOption) {
		if bouyomi.NewTalkRequest("", opt).Validate() != nil {
			*field = fallback
		}
	}
	check(&p.Voice, def.Voice, bouyomi.WithVoice(bouyomi.Voice(p.Voice)))
	check(&p.Speed, def.Speed, bouyomi.WithSpeed(p.Speed))
	check(&p.Tone, def.Tone, bouyomi.WithTone(p.Tone))
	check(&p.Volume, def.Volume, bouyomi.WithVolume(p.Volume))
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
