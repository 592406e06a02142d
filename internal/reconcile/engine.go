// Package reconcile keeps the derived display state of the active settings
// screen consistent with stored preferences and installed map packs.
//
// An Engine is bound to one screen at a time. Activate builds the screen's
// nodes, runs every refresh once and subscribes a single store observer;
// Deactivate cancels it. All work runs synchronously on the goroutine that
// delivers the triggering event.
package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/dshills/prefscreen/internal/account"
	"github.com/dshills/prefscreen/internal/catalog"
	"github.com/dshills/prefscreen/internal/prefs"
	"github.com/dshills/prefscreen/internal/prefs/notify"
	"github.com/dshills/prefscreen/internal/screen"
	"github.com/dshills/prefscreen/internal/text"
)

// Prompter shows a blocking yes/no confirmation. onYes runs only when the
// user accepts.
type Prompter interface {
	Confirm(message string, onYes func())
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(message string, onYes func())

// Confirm calls f.
func (f PrompterFunc) Confirm(message string, onYes func()) {
	f(message, onYes)
}

// Config names the settings with special synchronization rules.
type Config struct {
	// MapStyleKey is the map style choice.
	MapStyleKey string

	// MapFileKey is the offline map choice that depends on the style.
	MapFileKey string

	// AccountKey is the setting whose summary shows account status.
	AccountKey string

	// OfflineStyle is the style value that needs an installed map pack.
	OfflineStyle string

	// FallbackStyle replaces OfflineStyle when no pack is installed.
	FallbackStyle string
}

// DefaultConfig returns the keys used by the built-in screens.
func DefaultConfig() Config {
	return Config{
		MapStyleKey:   "mapstyle",
		MapFileKey:    "mapfile",
		AccountKey:    "cyclestreets-account",
		OfflineStyle:  "mapsforge",
		FallbackStyle: "osm",
	}
}

// Node is the derived display state of one setting.
type Node struct {
	Setting *screen.Setting

	// Icon is applied once per activation; nil means no icon.
	Icon *screen.Icon

	Summary string
	Enabled bool

	// Choices is the current ChoiceList for choice settings.
	Choices screen.ChoiceList
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the special setting keys.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithOracle sets the account status oracle.
func WithOracle(o account.Oracle) Option {
	return func(e *Engine) {
		e.oracle = o
	}
}

// WithPrompter sets the confirmation prompt.
func WithPrompter(p Prompter) Option {
	return func(e *Engine) {
		e.prompt = p
	}
}

// WithLocalizer sets the string source for summaries and prompts.
func WithLocalizer(l *text.Localizer) Option {
	return func(e *Engine) {
		if l != nil {
			e.text = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRedraw registers a callback run after a node's state may have
// changed.
func WithRedraw(fn func(key string)) Option {
	return func(e *Engine) {
		e.redraw = fn
	}
}

// Engine synchronizes the nodes of the active screen.
type Engine struct {
	cfg     Config
	store   prefs.Store
	catalog catalog.Catalog
	oracle  account.Oracle
	prompt  Prompter
	text    *text.Localizer
	log     *slog.Logger
	redraw  func(key string)

	screen *screen.Screen
	nodes  []*Node
	index  map[string]*Node
	sub    prefs.Subscription
}

// New creates an engine.
func New(store prefs.Store, cat catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		cfg:     DefaultConfig(),
		store:   store,
		catalog: cat,
		oracle:  account.StoreOracle{Store: store},
		text:    text.FromEnv(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Activate binds the engine to s. Activating the screen that is already
// active does nothing; activating another screen deactivates the current
// one first.
func (e *Engine) Activate(s *screen.Screen) {
	if e.sub != nil {
		if e.screen == s {
			return
		}
		e.Deactivate()
	}

	e.screen = s
	e.build()

	e.RefreshMapStyleChoice()
	for _, n := range e.nodes {
		if n.Setting.Dynamic || n.Setting.Key == e.cfg.MapFileKey {
			e.RefreshChoiceList(n.Setting.Key)
		}
	}
	for _, n := range e.nodes {
		e.RefreshSummary(n.Setting.Key)
	}

	e.sub = e.store.OnChange(e.onStoreChange)
	e.RefreshAccountSummary()

	e.log.Debug("screen activated", "screen", s.Key, "settings", len(e.nodes))
}

// Deactivate cancels the store subscription. Node state is kept so a
// departing screen can still be drawn during a transition.
func (e *Engine) Deactivate() {
	if e.sub == nil {
		return
	}
	e.sub.Cancel()
	e.sub = nil
	if e.screen != nil {
		e.log.Debug("screen deactivated", "screen", e.screen.Key)
	}
}

// Active reports whether a store subscription is held.
func (e *Engine) Active() bool {
	return e.sub != nil
}

// Screen returns the bound screen, or nil.
func (e *Engine) Screen() *screen.Screen {
	return e.screen
}

// Nodes returns copies of the nodes in setting order.
func (e *Engine) Nodes() []Node {
	out := make([]Node, len(e.nodes))
	for i, n := range e.nodes {
		out[i] = *n
	}
	return out
}

// Node returns a copy of the node for key.
func (e *Engine) Node(key string) (Node, bool) {
	n, ok := e.index[key]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Set validates value against the setting definition and stores it.
func (e *Engine) Set(key string, value any) error {
	n, ok := e.index[key]
	if !ok {
		return fmt.Errorf("%w: %s is not on this screen", screen.ErrInvalidValue, key)
	}
	if !n.Enabled {
		return fmt.Errorf("%w: %s is disabled", screen.ErrInvalidValue, key)
	}
	if err := n.Setting.Validate(value); err != nil {
		return err
	}
	return e.store.Set(key, value)
}

// Value returns the stored value for key, falling back to the setting's
// default when nothing is stored.
func (e *Engine) Value(key string) (any, bool) {
	if v, ok := e.store.Get(key); ok {
		return v, true
	}
	if n, ok := e.index[key]; ok && n.Setting.Default != nil {
		return n.Setting.Default, true
	}
	return nil, false
}

// build creates nodes for the bound screen and applies icons in order.
func (e *Engine) build() {
	e.nodes = make([]*Node, 0, len(e.screen.Settings))
	e.index = make(map[string]*Node, len(e.screen.Settings))

	for _, st := range e.screen.Settings {
		n := &Node{Setting: st, Enabled: true}
		if st.Kind == screen.KindChoice && !st.Dynamic {
			n.Choices = append(screen.ChoiceList(nil), st.Entries...)
		}
		if icon, ok := screen.IconFor(st.Key).Icon(); ok {
			n.Icon = &icon
		}
		e.nodes = append(e.nodes, n)
		e.index[st.Key] = n
	}
}

func (e *Engine) onStoreChange(c notify.Change) {
	if c.Type == notify.ChangeReload {
		for _, n := range e.nodes {
			e.RefreshSummary(n.Setting.Key)
		}
		e.RefreshAccountSummary()
		return
	}

	e.RefreshSummary(c.Key)
	if account.Affects(c.Key) {
		e.RefreshAccountSummary()
	}
}

func (e *Engine) stringValue(key string) string {
	v, ok := e.Value(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (e *Engine) changed(key string) {
	if e.redraw != nil {
		e.redraw(key)
	}
}
