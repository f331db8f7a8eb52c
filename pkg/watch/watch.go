// Package watch re-decodes an STL file every time it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"meshchat/pkg/logging"
	"meshchat/pkg/stl"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// ErrStopped is returned by Start once the Watcher has been stopped.
var ErrStopped = errors.New("watcher stopped")

// Handler receives the freshly prepared mesh, or the decode error.
type Handler func(stl.Prepared, error)

// Watcher watches a single STL file. The parent directory is watched so
// that atomic saves (write temp file, rename over target) are seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	dir      string
	onChange Handler
	running  bool
	stopped  bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	// Debounce is the quiet period after the last event before reloading.
	Debounce time.Duration
	// Options is passed to stl.Prepare on every reload.
	Options stl.Options
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, onChange Handler) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		watcher:  fsw,
		path:     abs,
		dir:      filepath.Dir(abs),
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		Debounce: DefaultDebounce,
	}, nil
}

// Load reads, decodes and prepares the STL file at path.
func Load(path string, opts stl.Options) (stl.Prepared, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stl.Prepared{}, fmt.Errorf("read stl: %w", err)
	}
	g, err := stl.Decode(data)
	if err != nil {
		return stl.Prepared{}, err
	}
	return stl.Prepare(g, opts), nil
}

// Start begins watching in a background goroutine. It returns once the
// directory watch is registered. A stopped Watcher cannot be restarted.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.running = true

	slog.Debug("watch_started", "path", w.path)
	go w.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit. It is safe to
// call more than once and after the context is cancelled.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.stopped = true
	w.mu.Unlock()

	if wasRunning {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		slog.Debug("watch_close_error", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Log(ctx, logging.LevelTrace, "watch_event", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch_error", "error", err)
		case <-timer.C:
			prepared, err := Load(w.path, w.Options)
			if err != nil {
				slog.Debug("watch_reload_failed", "path", w.path, "error", err)
			} else {
				slog.Debug("watch_reloaded", "path", w.path, "triangles", prepared.Geometry.TriangleCount())
			}
			if w.onChange != nil {
				w.onChange(prepared, err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
