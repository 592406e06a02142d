// Package nav maintains the stack of displayed settings screens.
//
// The bottom frame is always the root screen and cannot be undone. Entering
// a sub-screen pushes a frame; Back pops it. Every switch is handed to the
// Presenter as a single call, so there is never a moment with zero or two
// screens displayed.
package nav

import (
	"errors"
	"log/slog"

	"github.com/dshills/prefscreen/internal/screen"
)

var (
	// ErrClosed indicates the controller has been torn down.
	ErrClosed = errors.New("navigation closed")

	// ErrRootEntry indicates an attempt to push the root screen. The root
	// is only ever the bottom frame; use Reset to return to it.
	ErrRootEntry = errors.New("root screen cannot be entered")
)

// Frame is one entry of the navigation stack.
type Frame struct {
	// Key is the screen key; screen.RootKey for the root frame.
	Key string

	// Undoable is false only for the root frame.
	Undoable bool
}

// Resolver looks up screens by key. *screen.Tree implements it.
type Resolver interface {
	Resolve(key string) (*screen.Screen, error)
}

// Presenter replaces the displayed screen. from is nil on the initial
// display.
type Presenter interface {
	Present(from, to *screen.Screen, t Transition)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(from, to *screen.Screen, t Transition)

// Present calls f.
func (f PresenterFunc) Present(from, to *screen.Screen, t Transition) {
	f(from, to, t)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller is the navigation state machine.
type Controller struct {
	tree      Resolver
	presenter Presenter
	log       *slog.Logger

	frames    []Frame
	displayed *screen.Screen
	closed    bool
}

// New resolves the root screen and displays it. A missing root is a
// configuration error.
func New(tree Resolver, presenter Presenter, opts ...Option) (*Controller, error) {
	c := &Controller{
		tree:      tree,
		presenter: presenter,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	root, err := tree.Resolve(screen.RootKey)
	if err != nil {
		return nil, err
	}

	c.log.Debug("creating root settings screen")
	c.frames = []Frame{{Key: screen.RootKey, Undoable: false}}
	c.show(root, transitionFor(DirectionInitial, false, true))
	return c, nil
}

// EnterScreen pushes the screen with key and displays it. An unknown key
// or the root key leaves the stack unchanged and returns an error.
func (c *Controller) EnterScreen(key string) error {
	if c.closed {
		return ErrClosed
	}
	if key == screen.RootKey {
		return ErrRootEntry
	}

	next, err := c.tree.Resolve(key)
	if err != nil {
		return err
	}

	c.log.Debug("creating settings subscreen", "key", key)
	fromRoot := c.displayed == nil || c.displayed.IsRoot()
	c.frames = append(c.frames, Frame{Key: key, Undoable: true})
	c.show(next, transitionFor(DirectionForward, fromRoot, next.IsRoot()))
	return nil
}

// Back pops the top frame and displays the one beneath it. It returns
// false, leaving everything unchanged, when only the root frame remains so
// an outer controller can handle the event.
func (c *Controller) Back() bool {
	if c.closed || !c.Top().Undoable {
		return false
	}

	prev := c.frames[len(c.frames)-2]
	target, err := c.tree.Resolve(prev.Key)
	if err != nil {
		// Frames are only pushed after a successful resolve.
		c.log.Error("resolving previous screen", "key", prev.Key, "error", err)
		return false
	}

	c.frames = c.frames[:len(c.frames)-1]
	c.log.Debug("navigating back", "key", prev.Key, "depth", len(c.frames))
	c.show(target, transitionFor(DirectionBackward, false, target.IsRoot()))
	return true
}

// Reset pops every sub-screen and displays the root. It reports whether
// anything was popped.
func (c *Controller) Reset() bool {
	if c.closed || len(c.frames) == 1 {
		return false
	}

	root, err := c.tree.Resolve(screen.RootKey)
	if err != nil {
		c.log.Error("resolving root screen", "error", err)
		return false
	}

	c.frames = c.frames[:1]
	c.show(root, transitionFor(DirectionBackward, false, true))
	return true
}

// Top returns the top frame. A closed controller returns the zero Frame.
func (c *Controller) Top() Frame {
	if len(c.frames) == 0 {
		return Frame{}
	}
	return c.frames[len(c.frames)-1]
}

// Depth returns the number of frames.
func (c *Controller) Depth() int {
	return len(c.frames)
}

// Frames returns a copy of the stack, bottom first.
func (c *Controller) Frames() []Frame {
	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Displayed returns the displayed screen, or nil once closed.
func (c *Controller) Displayed() *screen.Screen {
	return c.displayed
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	return c.closed
}

// Close tears the stack down.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.frames = nil
	c.displayed = nil
}

func (c *Controller) show(to *screen.Screen, t Transition) {
	from := c.displayed
	c.displayed = to
	if c.presenter != nil {
		c.presenter.Present(from, to, t)
	}
}
