// Package client is a remote console for a dialogue server: it forwards
// local input lines to the server and prints what the script outputs.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/engine"
	"github.com/specialistvlad/talkbot/internal/server"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultConnectTimeout bounds the initial handshake.
const DefaultConnectTimeout = 15 * time.Second

// ErrDisconnected is returned when the server drops the connection before
// the dialogue ended.
var ErrDisconnected = errors.New("server closed the connection")

// RemoteError carries a failure reported by the server.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "dialogue failed on server: " + e.Message
}

// Options configures Run.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Run connects to the server at opts.URL and relays the dialogue until the
// script exits, fails, or ctx is done. Exhausting in does not end the
// dialogue; the server decides when it is over.
func Run(ctx context.Context, opts Options, in engine.LineSource, out io.Writer) error {
	ctx = ctxlog.With(ctx, "url", opts.URL)
	logger := ctxlog.FromContext(ctx)

	baseURL, path, err := endpoint(opts.URL)
	if err != nil {
		return err
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	connected := make(chan error, 1)
	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	var outMu sync.Mutex
	signalConnect := func(err error) {
		select {
		case connected <- err:
		default:
		}
	}
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		signalConnect(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		signalConnect(connectError(errs))
	})
	io.On(types.EventName(server.EventOutput), func(data ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		if _, err := fmt.Fprintln(out, firstString(data)); err != nil {
			finish(fmt.Errorf("failed to write output: %w", err))
		}
	})
	io.On(types.EventName(server.EventExit), func(...any) {
		logger.Debug("Dialogue exited on server")
		finish(nil)
	})
	io.On(types.EventName(server.EventFailure), func(data ...any) {
		finish(&RemoteError{Message: firstString(data)})
	})
	io.On(types.EventName(server.EventRejected), func(data ...any) {
		logger.Warn("Server dropped an input line, send it again.", "input", firstString(data))
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		logger.Debug("Disconnected", "reason", firstString(reason))
		finish(ErrDisconnected)
	})

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}

	relayCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go relay(relayCtx, in, func(line string) { io.Emit(server.EventInput, line) })

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// relay forwards lines from in until it is exhausted or ctx is done.
func relay(ctx context.Context, in engine.LineSource, send func(string)) {
	logger := ctxlog.FromContext(ctx)
	for {
		line, err := in.ReadLine(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.Warn("Failed to read input.", "error", err)
			}
			return
		}
		send(line)
	}
}

// endpoint splits a server URL into the manager base URL and socket.io path.
func endpoint(raw string) (string, string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", "", fmt.Errorf("URL %q must include scheme and host", raw)
	}
	path := parsed.Path
	if path == "" || path == "/" {
		path = server.DefaultPath
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), path, nil
}

func connectError(errs []any) error {
	if len(errs) > 0 {
		if err, ok := errs[0].(error); ok {
			return err
		}
	}
	return fmt.Errorf("connect error: %v", errs)
}

func firstString(data []any) string {
	if len(data) == 0 || data[0] == nil {
		return ""
	}
	if s, ok := data[0].(string); ok {
		return s
	}
	return fmt.Sprint(data[0])
}
