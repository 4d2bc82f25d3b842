package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync/atomic"

	"github.com/specialistvlad/talkbot/internal/client"
	"github.com/specialistvlad/talkbot/internal/console"
	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/engine"
	"github.com/specialistvlad/talkbot/internal/server"
)

// Run executes the configured mode until it finishes or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.With(ctxlog.WithLogger(ctx, a.logger), "mode", a.mode())
	a.ctx = ctx
	a.logger.Debug("App.Run method started.", "mode", a.mode())
	defer a.logger.Debug("App.Run method finished.")

	var srv *server.Server
	if a.config.ServeAddress != "" {
		srv = server.New(a.script, server.Options{
			Path:    a.config.ServePath,
			Session: a.config.sessionOptions(),
		})
		a.sessions = srv.Sessions
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	switch {
	case a.config.ConnectURL != "":
		return a.runClient(ctx)
	case srv != nil:
		return srv.ListenAndServe(ctx, a.config.ServeAddress)
	default:
		return a.runConsole(ctx)
	}
}

func (a *App) mode() string {
	switch {
	case a.config.ConnectURL != "":
		return "client"
	case a.config.ServeAddress != "":
		return "server"
	default:
		return "console"
	}
}

// runConsole runs one dialogue against the local terminal or the configured
// input. Exhausted input reads as empty lines until the dialogue comes back
// to a module that already saw the end of input; Ctrl-C ends it at once.
func (a *App) runConsole(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	src := a.source()
	defer src.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	in := &hangupSource{src: src, cancel: cancel}

	session := engine.New(a.script, in, engine.NewWriterSink(a.outW), a.config.sessionOptions())
	in.current = session.Current
	logger.Info("🚀 Starting dialogue...", "entry", session.Current())

	err := session.Run(runCtx)
	if errors.Is(err, context.Canceled) {
		switch {
		case ctx.Err() != nil:
			logger.Info("Dialogue interrupted.", "module", session.Current())
			return nil
		case in.hungUp.Load():
			logger.Info("Input closed, dialogue ended.", "module", session.Current())
			return nil
		}
	}
	if err != nil {
		return err
	}
	logger.Info("🏁 Dialogue finished.", "status", session.Status().String())
	return nil
}

func (a *App) runClient(ctx context.Context) error {
	src := a.source()
	defer src.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	in := &hangupSource{src: src, cancel: cancel}

	err := client.Run(ctx, client.Options{URL: a.config.ConnectURL}, in, a.outW)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("Remote dialogue interrupted.")
		return nil
	}
	return err
}

func (a *App) source() console.Source {
	if a.in != nil {
		return console.Wrap(a.in)
	}
	return console.Open(a.config.Prompt, os.Stdin)
}

// hangupSource decides when a console dialogue is over. Ctrl-C cancels the
// run. With current set, the end of input is handed to the session as an
// empty line, and the run is canceled when the end of input is read again
// in a module that already received it. Without current, io.EOF is passed
// through.
type hangupSource struct {
	src     engine.LineSource
	cancel  context.CancelFunc
	current func() string

	exhausted map[string]bool
	hungUp    atomic.Bool
}

func (h *hangupSource) ReadLine(ctx context.Context) (string, error) {
	line, err := h.src.ReadLine(ctx)
	switch {
	case errors.Is(err, console.ErrInterrupted):
		return "", h.hangUp()
	case errors.Is(err, io.EOF) && h.current != nil:
		module := h.current()
		if h.exhausted[module] {
			return "", h.hangUp()
		}
		if h.exhausted == nil {
			h.exhausted = make(map[string]bool)
		}
		h.exhausted[module] = true
		return "", nil
	}
	return line, err
}

func (h *hangupSource) hangUp() error {
	h.hungUp.Store(true)
	h.cancel()
	return context.Canceled
}
