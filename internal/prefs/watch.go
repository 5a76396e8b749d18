package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with freshly loaded preferences whenever the file at path is written,
// created or replaced. It blocks until ctx is done. The parent directory is watched, and
// created if missing, so that editors which save by renaming are picked up too. An empty
// file is skipped: it is the truncated midpoint of an in-place rewrite, not a reset.
func Watch(ctx context.Context, path string, onChange func(Prefs)) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch prefs dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != resolved {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if info, err := os.Stat(resolved); err != nil || info.Size() == 0 {
				continue
			}
			p, _ := Load(resolved)
			onChange(p)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch prefs: %w", err)
		}
	}
}
