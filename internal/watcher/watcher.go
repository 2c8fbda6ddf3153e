// Package watcher watches the two book directories and reports chapter file changes,
// batched over a debounce interval, so that open alignment sessions can be invalidated.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/extract"
)

const defaultDebounce = 400 * time.Millisecond

// ChangeFunc receives the sorted, de-duplicated chapter files changed during one
// debounce interval.
type ChangeFunc func(paths []string)

// Watcher watches book directories (non-recursively) for chapter file changes.
type Watcher struct {
	dirs     []string
	onChange ChangeFunc
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]bool
	timer   *time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long the watcher waits for more events before reporting.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New returns a watcher over dirs that calls onChange after chapter files change.
func New(dirs []string, onChange ChangeFunc, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:     dirs,
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		pending:  make(map[string]bool),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); err != nil {
			_ = fw.Close()
			return err
		}
		if err := fw.Add(filepath.Clean(dir)); err != nil {
			_ = fw.Close()
			return err
		}
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("watching book directories", zap.Strings("dirs", w.dirs), zap.Duration("debounce", w.debounce))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !Relevant(ev.Name) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("chapter file event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[ev.Name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush reports the pending paths.
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 || w.onChange == nil {
		return
	}
	sort.Strings(paths)
	w.logger.Debug("chapter files changed", zap.Strings("paths", paths))
	w.onChange(paths)
}

// Relevant reports whether path names a chapter file: a supported extension and not a
// hidden or editor temporary file.
func Relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return extract.Supported(filepath.Ext(base))
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Stop stops the watcher and drops pending events.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]bool)
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
