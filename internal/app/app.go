package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/language"

	"github.com/dshills/prefscreen/internal/catalog"
	"github.com/dshills/prefscreen/internal/fswatch"
	"github.com/dshills/prefscreen/internal/nav"
	"github.com/dshills/prefscreen/internal/prefs"
	"github.com/dshills/prefscreen/internal/reconcile"
	"github.com/dshills/prefscreen/internal/screen"
	"github.com/dshills/prefscreen/internal/text"
	"github.com/dshills/prefscreen/internal/ui"
)

// Options configures the application.
type Options struct {
	// PrefsPath is the TOML preference file. Empty uses DefaultPrefsPath.
	PrefsPath string

	// PacksDir is the directory scanned for offline map packs. Empty uses
	// a "maps" directory next to the preference file.
	PacksDir string

	// ScreensPath is an optional TOML file replacing the built-in screens.
	ScreensPath string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogFile receives log output. Empty disables logging.
	LogFile string

	// Language overrides the locale from the environment (BCP 47).
	Language string

	// Watch reloads preferences and packs when they change on disk.
	Watch bool

	// Version is shown by the version action.
	Version string
}

// DefaultPrefsPath returns the preference file under the user config
// directory.
func DefaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "prefscreen.toml"
	}
	return filepath.Join(dir, "prefscreen", "prefs.toml")
}

// Application owns the settings components and their lifecycle.
type Application struct {
	mu sync.Mutex

	opts    Options
	log     *slog.Logger
	logFile io.Closer

	tree      *screen.Tree
	store     *prefs.FileStore
	catalog   *catalog.Dir
	localizer *text.Localizer
	watcher   *fswatch.Watcher

	scr    tcell.Screen
	engine *reconcile.Engine
	view   *ui.View
	nav    *nav.Controller

	running   atomic.Bool
	closed    atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
}

// New loads definitions and preferences. The terminal is attached later
// with SetScreen.
func New(opts Options) (*Application, error) {
	if opts.PrefsPath == "" {
		opts.PrefsPath = DefaultPrefsPath()
	}
	if opts.PacksDir == "" {
		opts.PacksDir = filepath.Join(filepath.Dir(opts.PrefsPath), "maps")
	}

	app := &Application{
		opts:  opts,
		ready: make(chan struct{}),
	}
	if err := app.bootstrap(); err != nil {
		app.closeResources()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes the non-terminal components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Logging
	f, err := openLogFile(app.opts.LogFile)
	if err != nil {
		return &InitError{Component: "log file", Err: err}
	}
	var out io.Writer
	if f != nil {
		app.logFile = f
		out = f
	}
	app.log = NewLogger(LoggerConfig{Level: ParseLogLevel(app.opts.LogLevel), Output: out})

	// 2. Screen definitions
	if app.opts.ScreensPath != "" {
		app.tree, err = screen.LoadFile(app.opts.ScreensPath)
	} else {
		app.tree, err = screen.Default()
	}
	if err != nil {
		return &InitError{Component: "screens", Err: err}
	}

	// 3. Preferences
	if dir := filepath.Dir(app.opts.PrefsPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &InitError{Component: "preferences", Err: err}
		}
	}
	app.store, err = prefs.OpenFile(app.opts.PrefsPath)
	if err != nil {
		return &InitError{Component: "preferences", Err: err}
	}

	// 4. Map packs; the directory must exist to be watched for new packs
	if err := os.MkdirAll(app.opts.PacksDir, 0o755); err != nil {
		app.log.Warn("creating map pack directory", "dir", app.opts.PacksDir, "error", err)
	}
	app.catalog = catalog.NewDir(app.opts.PacksDir, catalog.WithLogger(app.log.With("component", "catalog")))

	// 5. Localized text
	if app.opts.Language != "" {
		tag, err := language.Parse(app.opts.Language)
		if err != nil {
			return &InitError{Component: "language", Err: err}
		}
		app.localizer = text.New(tag)
	} else {
		app.localizer = text.FromEnv()
	}

	// 6. File watcher; failure only disables live reload
	if app.opts.Watch {
		app.watcher, err = fswatch.New(fswatch.WithErrorHandler(func(err error) {
			app.log.Warn("file watcher", "error", err)
		}))
		if err != nil {
			app.log.Warn("live reload disabled", "error", err)
			app.watcher = nil
		}
	}

	app.log.Info("application initialized",
		"prefs", app.opts.PrefsPath,
		"packs", app.opts.PacksDir,
		"language", app.localizer.Tag().String())
	return nil
}

// SetScreen sets the terminal screen. Must be called before Run.
func (app *Application) SetScreen(scr tcell.Screen) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}
	app.scr = scr
	return nil
}

// Run initializes the terminal, shows the root screen and processes input
// until the user quits or ctx is cancelled. A user quit returns ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.mu.Lock()
	scr := app.scr
	app.mu.Unlock()
	if scr == nil {
		return ErrNoScreen
	}

	if err := scr.Init(); err != nil {
		return &InitError{Component: "terminal", Err: err}
	}
	defer scr.Fini()

	if err := app.start(scr); err != nil {
		return err
	}
	defer app.stop()

	app.readyOnce.Do(func() { close(app.ready) })
	return app.view.Run(ctx)
}

// Ready is closed once the root screen is displayed.
func (app *Application) Ready() <-chan struct{} {
	return app.ready
}

// start builds the UI-bound components and displays the root screen.
func (app *Application) start(scr tcell.Screen) error {
	app.engine = reconcile.New(app.store, app.catalog,
		reconcile.WithLocalizer(app.localizer),
		reconcile.WithLogger(app.log.With("component", "reconcile")),
		reconcile.WithPrompter(reconcile.PrompterFunc(func(msg string, onYes func()) {
			app.view.Confirm(msg, onYes)
		})),
		reconcile.WithRedraw(func(key string) { app.view.Invalidate(key) }),
	)

	app.view = ui.New(scr, app.engine,
		ui.WithLogger(app.log.With("component", "ui")),
		ui.WithLocalizer(app.localizer),
		ui.WithAction("version", func() {
			app.view.SetStatus("prefscreen " + app.version())
		}),
	)

	ctrl, err := nav.New(app.tree, app.view, nav.WithLogger(app.log.With("component", "nav")))
	if err != nil {
		return &InitError{Component: "navigation", Err: err}
	}
	app.nav = ctrl
	app.view.Attach(ctrl)

	app.watch()
	return nil
}

// stop releases the UI-bound components.
func (app *Application) stop() {
	app.unwatch()
	if app.engine != nil {
		app.engine.Deactivate()
	}
	if app.nav != nil {
		app.nav.Close()
	}
}

func (app *Application) watch() {
	if app.watcher == nil {
		return
	}

	err := app.watcher.Watch(app.store.Path(), func(fswatch.Event) {
		app.post(app.ReloadPreferences)
	})
	if err != nil {
		app.log.Warn("watching preferences", "path", app.store.Path(), "error", err)
	}

	err = app.watcher.Watch(app.opts.PacksDir, func(fswatch.Event) {
		app.post(app.RefreshPacks)
	})
	if err != nil {
		app.log.Debug("not watching map packs", "dir", app.opts.PacksDir, "error", err)
	}
}

func (app *Application) unwatch() {
	if app.watcher == nil {
		return
	}
	_ = app.watcher.Unwatch(app.store.Path())
	_ = app.watcher.Unwatch(app.opts.PacksDir)
}

func (app *Application) post(fn func()) {
	if err := app.Do(fn); err != nil {
		app.log.Debug("dropping event", "error", err)
	}
}

// Do runs fn on the UI goroutine. It fails before Run has displayed the
// root screen.
func (app *Application) Do(fn func()) error {
	select {
	case <-app.ready:
	default:
		return ErrNoScreen
	}
	return app.view.Post(fn)
}

// ReloadPreferences re-reads the preference file. Observers refresh the
// active screen. Must run on the UI goroutine.
func (app *Application) ReloadPreferences() {
	changed, err := app.store.Reload()
	if err != nil {
		var perr *prefs.ParseError
		if errors.As(err, &perr) {
			app.view.SetStatus(perr.Error())
		}
		app.log.Warn("reloading preferences", "path", app.store.Path(), "error", err)
		return
	}
	if changed {
		app.log.Info("preferences reloaded", "path", app.store.Path())
	}
}

// RefreshPacks rescans map packs by re-activating the displayed screen.
// Must run on the UI goroutine.
func (app *Application) RefreshPacks() {
	app.log.Debug("map packs changed", "dir", app.opts.PacksDir)
	app.Pause()
	app.Resume()
}

// Pause releases the store subscription of the displayed screen. Must run
// on the UI goroutine.
func (app *Application) Pause() {
	app.engine.Deactivate()
}

// Resume re-activates the displayed screen, recomputing every summary and
// the map pack list. Must run on the UI goroutine.
func (app *Application) Resume() {
	if s := app.nav.Displayed(); s != nil {
		app.engine.Activate(s)
		app.view.Invalidate("")
	}
}

// Back pops the displayed screen. It returns false at the root. Must run
// on the UI goroutine.
func (app *Application) Back() bool {
	return app.nav.Back()
}

// Engine returns the sync engine; nil before Run.
func (app *Application) Engine() *reconcile.Engine {
	return app.engine
}

// Navigation returns the navigation controller; nil before Run.
func (app *Application) Navigation() *nav.Controller {
	return app.nav
}

// Store returns the preference store.
func (app *Application) Store() *prefs.FileStore {
	return app.store
}

// Tree returns the screen definitions.
func (app *Application) Tree() *screen.Tree {
	return app.tree
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.log
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Shutdown releases files and watchers. It is safe to call more than once.
func (app *Application) Shutdown() {
	if !app.closed.CompareAndSwap(false, true) {
		return
	}
	app.closeResources()
}

func (app *Application) closeResources() {
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil && app.log != nil {
			app.log.Warn("closing watcher", "error", err)
		}
	}
	if app.store != nil {
		_ = app.store.Close()
	}
	if app.log != nil {
		app.log.Info("application shut down")
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

func (app *Application) version() string {
	if app.opts.Version == "" {
		return "dev"
	}
	return app.opts.Version
}
