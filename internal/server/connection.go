package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Event names shared with the client package.
const (
	EventInput   = "input"
	EventOutput  = "output"
	EventExit    = "exit"
	EventFailure = "failure"
	// EventRejected returns an input line the session had no room for.
	EventRejected = "rejected"
)

// inputBuffer bounds how many lines a client may send ahead of the script.
const inputBuffer = 32

// EmitFunc sends one event to the remote client.
type EmitFunc func(event string, args ...any)

// connection bridges one remote client to one engine session. It is the
// session's LineSource and Sink at the same time.
type connection struct {
	id     string
	emit   EmitFunc
	lines  chan string
	logger *slog.Logger
}

func newConnection(id string, emit EmitFunc, logger *slog.Logger) *connection {
	return &connection{
		id:     id,
		emit:   emit,
		lines:  make(chan string, inputBuffer),
		logger: logger,
	}
}

// ReadLine blocks until the client sends a line or the session ends.
func (c *connection) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// WriteLine forwards an output line to the client.
func (c *connection) WriteLine(line string) error {
	c.emit(EventOutput, line)
	return nil
}

// push queues a line received from the client. It never blocks the
// transport; a line beyond the buffer is dropped and sent back to the
// client as EventRejected.
func (c *connection) push(args ...any) {
	line := argString(args)
	select {
	case c.lines <- line:
	default:
		c.logger.Warn("Input dropped, session is not reading.", "session", c.id)
		c.emit(EventRejected, line)
	}
}

func argString(args []any) string {
	if len(args) == 0 || args[0] == nil {
		return ""
	}
	if s, ok := args[0].(string); ok {
		return s
	}
	return fmt.Sprint(args[0])
}
