// Package watch re-runs validation when an architecture's YAML files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajitpratap0/adlint/internal/metrics"
)

// Watcher debounces file events in one directory and calls OnChange once per burst.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context, changed []string)
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// New starts watching dir. The caller must call Run and then Close.
func New(dir string, debounce time.Duration, logger *slog.Logger, onChange func(ctx context.Context, changed []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch: adding %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange, logger: logger, fsw: fsw}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[string]struct{}{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			pending[filepath.Base(event.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch: fsnotify error", "dir", w.dir, "error", err)

		case <-timerC:
			timerC = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			slices.Sort(changed)
			metrics.Inc(metrics.WatchRuns)
			w.logger.Debug("watch: change detected", "dir", w.dir, "files", changed)
			w.onChange(ctx, changed)
		}
	}
}

// relevant reports whether an event touches a collection file. Hidden files
// cover the temporary files used for atomic writes.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := filepath.Ext(base)
	return ext == ".yaml" || ext == ".yml"
}
