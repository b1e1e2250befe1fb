package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
	"github.com/vaultsync/vaultsync/internal/vault"
)

const (
	eventBufferSize = 64
	defaultDebounce = 200 * time.Millisecond
)

// watchAction is the pending intent for a path. A single slot per path is
// shared between sync and delete; the last observed event type wins.
type watchAction int

const (
	actionSync watchAction = iota
	actionDelete
)

func (a watchAction) String() string {
	if a == actionDelete {
		return "delete"
	}
	return "sync"
}

type pendingAction struct {
	action watchAction
	timer  *time.Timer
}

// Watcher observes the vault recursively and dispatches debounced, coalesced
// sync/delete calls into the engine. Rapid successive events for one path
// collapse into a single dispatch once the path has been quiet for the
// debounce interval.
type Watcher struct {
	engine   *Engine
	vault    *vault.Vault
	filter   *PathFilter
	ignore   *IgnoreList
	debounce time.Duration

	rawEvents chan notify.EventInfo
	done      chan struct{}
	loopWg    sync.WaitGroup
	inflight  sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*pendingAction
	closed  bool

	ctx context.Context
}

func NewWatcher(engine *Engine, v *vault.Vault, filter *PathFilter, ignore *IgnoreList, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		engine:   engine,
		vault:    v,
		filter:   filter,
		ignore:   ignore,
		debounce: debounce,
		done:     make(chan struct{}),
		pending:  make(map[string]*pendingAction),
	}
}

// Start begins watching the vault root recursively. It returns once the
// watch is established; dispatching happens in the background until Close.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New("watcher closed")
	}
	if w.rawEvents != nil {
		w.mu.Unlock()
		return errors.New("watcher already started")
	}
	w.rawEvents = make(chan notify.EventInfo, eventBufferSize)
	w.ctx = ctx
	w.mu.Unlock()

	slog.Info("watcher start", "dir", w.vault.Root, "debounce", w.debounce)

	recursivePath := w.vault.Root + "/..."
	events := notify.Write | notify.Create | notify.Remove | notify.Rename
	if err := notify.Watch(recursivePath, w.rawEvents, events); err != nil {
		return err
	}

	w.loopWg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops accepting filesystem events, cancels pending timers, and waits
// for any in-flight dispatch to finish.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for path, pa := range w.pending {
		pa.timer.Stop()
		delete(w.pending, path)
	}
	rawEvents := w.rawEvents
	w.mu.Unlock()

	slog.Info("watcher stopping")
	if rawEvents != nil {
		notify.Stop(rawEvents)
	}
	close(w.done)
	w.loopWg.Wait()
	w.inflight.Wait()
	slog.Info("watcher stopped")
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.loopWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.rawEvents:
			if !ok {
				return
			}
			w.handleEvent(event)
		}
	}
}

func (w *Watcher) handleEvent(event notify.EventInfo) {
	rel, err := w.vault.Rel(event.Path())
	if err != nil {
		slog.Debug("event outside vault", "path", event.Path())
		return
	}

	// filter before anything else
	if w.ignore.ShouldIgnore(rel) || !w.filter.Allowed(rel) {
		return
	}

	action := actionSync
	if event.Event()&(notify.Remove|notify.Rename) != 0 {
		action = actionDelete
	}

	w.arm(rel, action)
}

// arm schedules (or reschedules) the path's single pending action. Any new
// event cancels the existing timer and re-arms it with a fresh interval and
// the latest intent.
func (w *Watcher) arm(path string, action watchAction) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if pa, exists := w.pending[path]; exists {
		pa.timer.Stop()
	}

	pa := &pendingAction{action: action}
	pa.timer = time.AfterFunc(w.debounce, func() {
		w.fire(path)
	})
	w.pending[path] = pa

	slog.Debug("debounce armed", "path", path, "action", action)
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	pa, exists := w.pending[path]
	if !exists || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.inflight.Add(1)
	w.mu.Unlock()

	defer w.inflight.Done()

	slog.Debug("dispatch", "path", path, "action", pa.action)

	result := w.engine.SyncPaths(w.ctx, []string{path}, SyncOptions{
		Delete: pa.action == actionDelete,
	})
	// dispatch failures never stop the watcher
	for _, pathErr := range result.Errors {
		slog.Error("watch dispatch failed", "path", pathErr.Path, "error", pathErr.Err)
	}
}
