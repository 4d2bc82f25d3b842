package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/engine"
	"github.com/specialistvlad/talkbot/internal/script"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer // dialogue output
	logW   io.Writer
	in     io.Reader
	logger *slog.Logger
	config *Config
	script *script.Script

	ctx        context.Context
	httpServer *http.Server
	sessions   func() int
}

// Option customizes an App.
type Option func(*App)

// WithInput reads dialogue input from r instead of the terminal.
func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = r }
}

// WithLogOutput sends log records to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) { a.logW = w }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger and, unless it runs as a
// remote client, the loaded script. A script that fails to load is a fatal
// startup error and panics.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	a := &App{
		outW:   outW,
		logW:   os.Stderr,
		config: cfg,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, a.logW)
	a.ctx = ctxlog.WithLogger(context.Background(), a.logger)
	a.logger.Debug("Logger configured successfully.")

	if cfg.ConnectURL != "" {
		a.logger.Debug("Remote client mode, no script is loaded.", "url", cfg.ConnectURL)
		return a
	}

	sc, err := LoadScript(a.ctx, cfg.ScriptPath)
	if err != nil {
		panic(fmt.Errorf("failed to load script: %w", err))
	}
	a.script = sc

	entry := cfg.Entry
	if entry == "" {
		entry = engine.EntryModule
	}
	if _, ok := sc.Module(entry); !ok {
		a.logger.Warn("Entry module is not defined, every session will fail.", "entry", entry)
	}
	return a
}

// Script returns the loaded script. This is primarily for testing.
func (a *App) Script() *script.Script {
	return a.script
}
