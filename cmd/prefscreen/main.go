// Package main is the entry point for the prefscreen settings browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/prefscreen/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	scr, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := application.SetScreen(scr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to set screen: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags() app.Options {
	opts := app.Options{Version: version}
	var showVersion bool
	var noWatch bool

	flag.StringVar(&opts.PrefsPath, "prefs", app.DefaultPrefsPath(), "Preference file (TOML)")
	flag.StringVar(&opts.PacksDir, "packs", "", "Offline map pack directory (default: maps/ next to the preference file)")
	flag.StringVar(&opts.ScreensPath, "screens", "", "Screen definition file replacing the built-in screens")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")
	flag.StringVar(&opts.Language, "lang", "", "Language for summaries (default: from LANG)")
	flag.BoolVar(&noWatch, "no-watch", false, "Do not reload files changed on disk")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "prefscreen - browse and edit application settings\n\n")
		fmt.Fprintf(os.Stderr, "Usage: prefscreen [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  up/down, j/k     Select a setting\n")
		fmt.Fprintf(os.Stderr, "  enter, right     Open, cycle or edit the selected setting\n")
		fmt.Fprintf(os.Stderr, "  space            Toggle a switch\n")
		fmt.Fprintf(os.Stderr, "  esc, left       Back; quits at the top level\n")
		fmt.Fprintf(os.Stderr, "  q                Quit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("prefscreen %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if !app.ValidLogLevel(opts.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	opts.Watch = !noWatch
	return opts
}
