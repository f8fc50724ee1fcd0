package generation

import (
	"context"
	"path/filepath"
	"time"

	"fntablegen/internal/logging"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls OnChange whenever one of its files settles after a change.
type Watcher struct {
	paths    []string
	debounce time.Duration
	logger   *zap.SugaredLogger
	onChange func()
}

func NewWatcher(paths []string, debounce time.Duration, logger *zap.SugaredLogger, onChange func()) *Watcher {
	cleaned := make([]string, 0, len(paths))
	for _, path := range paths {
		if path != "" {
			cleaned = append(cleaned, filepath.Clean(path))
		}
	}
	return &Watcher{
		paths:    cleaned,
		debounce: debounce,
		logger:   logging.OrNop(logger),
		onChange: onChange,
	}
}

// Run blocks until ctx is done. Directories are watched rather than the
// files so that editors replacing a file on save are still noticed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	for _, path := range w.paths {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "watching %s", dir)
		}
		watched[dir] = true
	}
	w.logger.Infow("watching for changes", "files", w.paths)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, path := range w.paths {
		if name == path {
			return true
		}
	}
	return false
}
