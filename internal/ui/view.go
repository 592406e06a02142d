// Package ui draws settings screens on a terminal and turns key presses
// into navigation and preference edits.
//
// A View is both the navigation presenter and the engine's prompter. All
// of its methods must run on the goroutine that calls Run; other
// goroutines hand work over with Post.
package ui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/prefscreen/internal/nav"
	"github.com/dshills/prefscreen/internal/reconcile"
	"github.com/dshills/prefscreen/internal/screen"
	"github.com/dshills/prefscreen/internal/text"
)

// ErrQuit is returned by Run when the user leaves the root screen.
var ErrQuit = errors.New("quit requested")

// Engine is the part of the reconcile engine the view drives.
type Engine interface {
	Activate(s *screen.Screen)
	Screen() *screen.Screen
	Nodes() []reconcile.Node
	Set(key string, value any) error
	Value(key string) (any, bool)
}

// Navigator moves between screens.
type Navigator interface {
	EnterScreen(key string) error
	Back() bool
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.log = l
		}
	}
}

// WithLocalizer sets the localizer used for prompt buttons.
func WithLocalizer(l *text.Localizer) Option {
	return func(v *View) {
		if l != nil {
			v.text = l
		}
	}
}

// WithAction registers the handler run when an action setting is chosen.
func WithAction(key string, fn func()) Option {
	return func(v *View) {
		v.actions[key] = fn
	}
}

// prompt is a pending yes/no question.
type prompt struct {
	message string
	onYes   func()
}

// edit is an in-progress text or numeric entry.
type edit struct {
	key    string
	kind   screen.Kind
	buffer []rune
}

// View renders the active screen.
type View struct {
	scr     tcell.Screen
	engine  Engine
	nav     Navigator
	log     *slog.Logger
	text    *text.Localizer
	actions map[string]func()

	cursor     int
	cursors    map[string]int
	transition nav.Transition
	prompts    []prompt
	editing    *edit
	status     string
	dirty      bool
	quit       bool
}

// New creates a view drawing on scr. The screen must already be
// initialized.
func New(scr tcell.Screen, engine Engine, opts ...Option) *View {
	v := &View{
		scr:     scr,
		engine:  engine,
		log:     slog.New(slog.DiscardHandler),
		text:    text.FromEnv(),
		actions: make(map[string]func()),
		cursors: make(map[string]int),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Attach sets the navigator used for link settings and back presses.
func (v *View) Attach(n Navigator) {
	v.nav = n
}

// Present activates to and draws it. The cursor position of from is
// remembered so returning to it restores the selection.
func (v *View) Present(from, to *screen.Screen, t nav.Transition) {
	if from != nil {
		v.cursors[from.Key] = v.cursor
	}
	v.editing = nil
	v.status = ""
	v.transition = t

	v.log.Debug("presenting screen",
		"screen", to.Key,
		"direction", t.Direction.String(),
		"enter", t.Enter.String(),
		"exit", t.Exit.String())

	v.engine.Activate(to)
	v.cursor = v.cursors[to.Key]
	v.clampCursor()
	v.Draw()
}

// Transition returns the transition of the last switch.
func (v *View) Transition() nav.Transition {
	return v.transition
}

// Confirm queues a yes/no question. onYes runs only if the user accepts.
func (v *View) Confirm(message string, onYes func()) {
	v.prompts = append(v.prompts, prompt{message: message, onYes: onYes})
	v.Invalidate("")
}

// Prompting reports whether a question is waiting for an answer.
func (v *View) Prompting() bool {
	return len(v.prompts) > 0
}

// Invalidate marks the view for redraw. The key is the setting whose
// state changed; the whole screen is redrawn either way.
func (v *View) Invalidate(string) {
	v.dirty = true
}

// Cursor returns the index of the selected setting.
func (v *View) Cursor() int {
	return v.cursor
}

// Status returns the status line text.
func (v *View) Status() string {
	return v.status
}

// SetStatus replaces the status line text.
func (v *View) SetStatus(s string) {
	v.status = s
	v.dirty = true
}

// Post runs fn on the view goroutine.
func (v *View) Post(fn func()) error {
	return v.scr.PostEvent(tcell.NewEventInterrupt(fn))
}

// Run processes events until the user quits or ctx is done. It returns
// ErrQuit when the user leaves the root screen and ctx.Err() on
// cancellation.
func (v *View) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = v.Post(nil) // wake PollEvent; ctx.Err is checked below
	})
	defer stop()

	v.Draw()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev := v.scr.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventResize:
			v.scr.Sync()
			v.dirty = true
		case *tcell.EventKey:
			v.HandleKey(e)
		case *tcell.EventInterrupt:
			if fn, ok := e.Data().(func()); ok && fn != nil {
				fn()
			}
		}

		if v.quit {
			return ErrQuit
		}
		if v.dirty {
			v.Draw()
		}
	}
}

func (v *View) clampCursor() {
	n := len(v.engine.Nodes())
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

var (
	_ nav.Presenter      = (*View)(nil)
	_ reconcile.Prompter = (*View)(nil)
)
