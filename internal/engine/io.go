package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LineSource supplies one line per input instruction. io.EOF means no more
// input and is treated by the session as an empty line.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// Sink receives one line per output instruction.
type Sink interface {
	WriteLine(line string) error
}

// ReaderSource reads lines from an io.Reader. A blocked read cannot be
// interrupted; the context is only checked before each read.
type ReaderSource struct {
	r *bufio.Reader
}

// NewReaderSource wraps r as a LineSource.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: bufio.NewReader(r)}
}

// ReadLine returns the next line without its line terminator.
func (s *ReaderSource) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := s.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// WriterSink writes each line followed by a newline.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w as a Sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteLine(line string) error {
	_, err := fmt.Fprintln(s.w, line)
	return err
}
