// Package console provides the terminal-facing line source used when a
// dialogue runs in the foreground. Interactive terminals get line editing
// and history through peterh/liner; anything else (pipes, files, tests)
// falls back to a plain reader.
package console

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/specialistvlad/talkbot/internal/engine"
)

// ErrInterrupted is returned when the user aborts the prompt with Ctrl-C.
var ErrInterrupted = errors.New("input interrupted")

// Source is a closable engine.LineSource.
type Source interface {
	engine.LineSource
	io.Closer
}

// Liner reads lines from the terminal with editing and history.
type Liner struct {
	state  *liner.State
	prompt string
}

// New puts the terminal under liner's control. Close must be called to
// restore the terminal.
func New(prompt string) *Liner {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &Liner{state: state, prompt: prompt}
}

// ReadLine prompts for one line. Ctrl-D is reported as io.EOF and Ctrl-C as
// ErrInterrupted.
func (l *Liner) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := l.state.Prompt(l.prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(line) != "" {
		l.state.AppendHistory(line)
	}
	return line, nil
}

// Close restores the terminal.
func (l *Liner) Close() error {
	return l.state.Close()
}

type readerSource struct {
	*engine.ReaderSource
}

func (readerSource) Close() error { return nil }

// Open returns a liner-backed source when the terminal supports line
// editing, otherwise a plain source reading from fallback.
func Open(prompt string, fallback io.Reader) Source {
	if liner.TerminalSupported() {
		return New(prompt)
	}
	return Wrap(fallback)
}

// Wrap turns a reader into a Source without terminal handling.
func Wrap(r io.Reader) Source {
	return readerSource{engine.NewReaderSource(r)}
}
