package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/engine"
	"github.com/specialistvlad/talkbot/internal/script"
	"github.com/specialistvlad/talkbot/internal/sessionstore"
	"github.com/zishang520/socket.io/v2/socket"
)

// DefaultPath is where the socket.io endpoint is mounted.
const DefaultPath = "/socket.io/"

// Options configures a Server.
type Options struct {
	// Path of the socket.io endpoint, DefaultPath when empty.
	Path string
	// Session is the template for every session; ID is set per connection.
	Session engine.Options
}

// Server runs one dialogue session per connected socket.io client.
type Server struct {
	script   *script.Script
	opts     Options
	sessions *sessionstore.Store
}

// New creates a server for sc.
func New(sc *script.Script, opts Options) *Server {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	return &Server{
		script:   sc,
		opts:     opts,
		sessions: sessionstore.New(),
	}
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// Open starts a session for a new connection and returns the function that
// delivers client input to it. disconnect is called once the session ended
// on its own (exit or failure); cancel the connection through Close.
func (s *Server) Open(ctx context.Context, id string, emit EmitFunc, disconnect func()) func(args ...any) {
	logger := ctxlog.FromContext(ctx).With("session", id)
	conn := newConnection(id, emit, logger)

	sessCtx, cancel := context.WithCancel(ctx)
	opts := s.opts.Session
	opts.ID = id
	session := engine.New(s.script, conn, conn, opts)
	s.sessions.Add(id, &sessionstore.Entry{Session: session, Cancel: cancel, Started: time.Now()})
	logger.Info("Session opened.", "live_sessions", s.sessions.Len())

	go func() {
		defer cancel()
		defer s.sessions.Remove(id)

		err := session.Run(sessCtx)
		switch session.Status() {
		case engine.StatusExited:
			emit(EventExit)
		case engine.StatusFailed:
			emit(EventFailure, session.Err().Error())
		case engine.StatusCanceled:
			logger.Debug("Session canceled.", "error", err)
			return
		}
		logger.Info("Session finished.", "status", session.Status().String())
		if disconnect != nil {
			disconnect()
		}
	}()

	return conn.push
}

// Close cancels the session of connection id, if it is still running.
func (s *Server) Close(id string) {
	if entry, ok := s.sessions.Get(id); ok && entry.Cancel != nil {
		entry.Cancel()
	}
}

// Handler returns an http.Handler serving the socket.io endpoint and a
// /health probe. ctx carries the logger and bounds every session.
func (s *Server) Handler(ctx context.Context) http.Handler {
	logger := ctxlog.FromContext(ctx)

	opts := socket.DefaultServerOptions()
	opts.SetPath(s.opts.Path)
	io := socket.NewServer(nil, opts)

	io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			logger.Error("Unexpected connection type.", "type", fmt.Sprintf("%T", clients[0]))
			return
		}
		id := string(client.Id())
		logger.Debug("Client connected.", "sid", id)

		push := s.Open(ctx, id,
			func(event string, args ...any) { client.Emit(event, args...) },
			func() { client.Disconnect(true) },
		)
		client.On(EventInput, func(args ...any) { push(args...) })
		client.On("disconnect", func(reason ...any) {
			logger.Debug("Client disconnected.", "sid", id, "reason", argString(reason))
			s.Close(id)
		})
	})

	go func() {
		<-ctx.Done()
		s.sessions.CancelAll()
		io.Close(nil)
	}()

	mux := http.NewServeMux()
	mux.Handle(s.opts.Path, io.ServeHandler(opts))
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK sessions=%d\n", s.Sessions())
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := ctxlog.FromContext(ctx)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(ctx),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("💬 Dialogue server starting", "address", addr, "path", s.opts.Path)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dialogue server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down dialogue server...", "live_sessions", s.Sessions())
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dialogue server shutdown failed: %w", err)
	}
	return nil
}
