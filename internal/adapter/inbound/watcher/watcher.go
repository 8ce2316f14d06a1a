// Package watcher re-runs extraction when contract sources change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"contractabi/internal/application/common/logging"
	"contractabi/internal/application/common/slogger"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 250 * time.Millisecond

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// ChangeHandler receives the sorted set of changed source paths after a quiet period.
type ChangeHandler func(ctx context.Context, paths []string)

// Config holds watcher settings.
type Config struct {
	Target   string
	Pattern  string
	Debounce time.Duration
}

// SourceWatcher watches a file or directory tree for source changes.
type SourceWatcher struct {
	target   string
	isDir    bool
	pattern  string
	debounce time.Duration
	onChange ChangeHandler
	logger   logging.ApplicationLogger
}

// NewSourceWatcher validates cfg and resolves the target.
func NewSourceWatcher(cfg Config, onChange ChangeHandler) (*SourceWatcher, error) {
	if onChange == nil {
		return nil, errors.New("change handler cannot be nil")
	}
	if cfg.Target == "" {
		return nil, errors.New("watch target cannot be empty")
	}
	if cfg.Pattern != "" {
		if _, err := filepath.Match(cfg.Pattern, "x"); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", cfg.Pattern, err)
		}
	}

	target, err := filepath.Abs(cfg.Target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &SourceWatcher{
		target:   filepath.Clean(target),
		isDir:    info.IsDir(),
		pattern:  cfg.Pattern,
		debounce: debounce,
		onChange: onChange,
		logger:   slogger.WithComponent("source-watcher"),
	}, nil
}

// Run watches until ctx is done. It returns nil on cancellation and the
// watcher error otherwise.
func (w *SourceWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	root := w.target
	if !w.isDir {
		root = filepath.Dir(w.target)
		if err := fsw.Add(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	} else if err := w.addRecursive(fsw, root); err != nil {
		return err
	}

	w.logger.Info(ctx, "Watching for source changes", logging.Fields{
		"target":   w.target,
		"pattern":  w.pattern,
		"debounce": w.debounce.String(),
	})

	return w.loop(ctx, fsw.Events, fsw.Errors, func(dir string) {
		if err := w.addRecursive(fsw, dir); err != nil {
			w.logger.Warn(ctx, "Failed to watch new directory", logging.Fields{"path": dir, "error": err.Error()})
		}
	})
}

// loop debounces events into onChange calls. addDir is called for created
// directories inside a watched tree.
func (w *SourceWatcher) loop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	addDir func(string),
) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)

			if w.isDir && event.Has(fsnotify.Create) {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if !skipDir(info.Name()) {
						addDir(path)
					}
					continue
				}
			}
			if event.Op&relevantOps == 0 || !w.matches(path) {
				continue
			}

			if len(pending) > 0 && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			pending[path] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			slices.Sort(changed)
			clear(pending)

			w.logger.Debug(ctx, "Sources changed", logging.Fields{"paths": changed})
			w.onChange(ctx, changed)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.target, err)
		}
	}
}

// matches reports whether path is a source this watcher reports on.
func (w *SourceWatcher) matches(path string) bool {
	if !w.isDir {
		return path == w.target
	}

	rel, err := filepath.Rel(w.target, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part != "." && skipDir(part) {
			return false
		}
	}
	if w.pattern == "" {
		return true
	}
	ok, _ := filepath.Match(w.pattern, filepath.Base(path))
	return ok
}

func (w *SourceWatcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && skipDir(entry.Name()) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// skipDir excludes hidden directories and build output.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "target"
}
