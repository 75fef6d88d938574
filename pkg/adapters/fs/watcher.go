package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is how long a file must stay quiet before a change is reported.
const DebounceDelay = 50 * time.Millisecond

// Event reports that the watched file was written, created or replaced.
type Event struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Op, e.Path)
}

// Watcher is a lifecycle worker that watches a single file.
//
// The parent directory is watched so that editors replacing the file through a rename
// are still seen. Bursts of events are coalesced into one Event per quiet period, and
// the Events channel is closed when the worker stops.
type Watcher struct {
	*worker.BaseWorker
	path      string
	logger    *slog.Logger
	events    chan Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	done      chan struct{}
	active    atomic.Bool
}

// NewWatcher creates a watcher for path. A nil logger discards log output.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		BaseWorker: worker.NewBaseWorker("scenario-watcher"),
		path:       abs,
		logger:     logger.With("path", abs),
		events:     make(chan Event, 1),
		done:       make(chan struct{}),
	}, nil
}

// Events returns the debounced change stream.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Active reports whether the event loop is running.
func (w *Watcher) Active() bool {
	return w.active.Load()
}

func (w *Watcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(DebounceDelay)
	w.active.Store(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *Watcher) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.path,
		}
	})
}

func (w *Watcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.active.Store(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	close(w.done)
	if w.debouncer.stopAndWait(5 * time.Second) {
		close(w.events)
	} else {
		w.logger.Warn("debounced events still pending at shutdown")
	}
	return err
}

func (w *Watcher) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processEvent(event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)
		}
	}
}

// processEvent forwards relevant events on the watched file through the debouncer.
func (w *Watcher) processEvent(event fsnotify.Event) bool {
	w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if filepath.Clean(event.Name) != w.path || isTempFile(event.Name) {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	e := Event{Path: w.path, Op: event.Op, Time: time.Now()}
	w.debouncer.add(w.path, func() {
		select {
		case w.events <- e:
		case <-w.done:
		}
	})
	return true
}
