// Package fswatch watches preference files and resource directories for
// external changes and reports them after a debounce delay.
//
// A watched file is tracked through its parent directory, so editors that
// save by writing a temporary file and renaming it over the original are
// still seen. Multiple rapid events for the same target are coalesced into
// one callback.
package fswatch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event is delivered once per debounce window per target.
type Event struct {
	// Target is the path passed to Watch.
	Target string

	// Ops is the union of operations seen during the window.
	Ops Op

	// Time is when the last underlying event arrived.
	Time time.Time
}

// Handler is called when a watched target changes.
type Handler func(event Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithErrorHandler sets a callback for fsnotify errors.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

type target struct {
	path    string
	isDir   bool
	handler Handler

	pendingOps Op
	lastSeen   time.Time
	timer      *time.Timer
}

// Watcher reports debounced changes for a set of targets.
type Watcher struct {
	mu sync.Mutex

	fsw     *fsnotify.Watcher
	delay   time.Duration
	onError func(error)

	// Targets by absolute path.
	targets map[string]*target

	// Reference count of fsnotify watches per directory.
	dirs map[string]int

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		delay:   100 * time.Millisecond,
		targets: make(map[string]*target),
		dirs:    make(map[string]int),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts reporting changes to path. A file path need not exist yet,
// but its directory must. A directory path reports changes to its direct
// children.
func (w *Watcher) Watch(path string, handler Handler) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.targets[absPath]; ok {
		return ErrAlreadyWatching
	}

	t := &target{path: absPath, handler: handler}
	dir := filepath.Dir(absPath)
	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		t.isDir = true
		dir = absPath
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.targets[absPath] = t
	return nil
}

// Unwatch stops reporting changes to path.
func (w *Watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.targets[absPath]
	if !ok {
		return nil
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	delete(w.targets, absPath)

	dir := filepath.Dir(absPath)
	if t.isDir {
		dir = absPath
	}
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Close stops the watcher. Pending debounced events are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.targets {
		if t.timer != nil {
			t.timer.Stop()
		}
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.fsw.Close()
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// handleFSEvent routes an fsnotify event to the targets it affects.
func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}

	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if t, ok := w.targets[name]; ok && !t.isDir {
		w.schedule(t, op)
	}
	if t, ok := w.targets[filepath.Dir(name)]; ok && t.isDir {
		w.schedule(t, op)
	}
}

// schedule records op for t and (re)arms its debounce timer. Caller holds mu.
func (w *Watcher) schedule(t *target, op Op) {
	t.pendingOps |= op
	t.lastSeen = time.Now()

	if t.timer != nil {
		t.timer.Reset(w.delay)
		return
	}
	t.timer = time.AfterFunc(w.delay, func() { w.fire(t) })
}

func (w *Watcher) fire(t *target) {
	w.mu.Lock()
	if w.closed || w.targets[t.path] != t {
		w.mu.Unlock()
		return
	}
	ev := Event{Target: t.path, Ops: t.pendingOps, Time: t.lastSeen}
	t.pendingOps = 0
	t.timer = nil
	handler := t.handler
	w.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

// convertOp converts fsnotify.Op to Op. Chmod-only events are dropped.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
