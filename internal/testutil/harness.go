package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/engine"
	"github.com/specialistvlad/talkbot/internal/script"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// LoggerContext returns a context carrying a debug-level text logger that
// writes into the returned buffer. The log is dumped through t.Logf at the
// end of the test when TALKBOT_TEST_LOGS=true.
func LoggerContext(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Cleanup(func() {
		if os.Getenv("TALKBOT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return ctxlog.WithLogger(context.Background(), logger), logBuffer
}

// WriteFiles writes name->content pairs below a fresh temporary directory and
// returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// RunResult holds the outcome of RunScript.
type RunResult struct {
	Output    string
	LogOutput string
	Err       error
	Session   *engine.Session
}

// OutputLines returns the non-empty output lines.
func (r *RunResult) OutputLines() []string {
	var lines []string
	for _, line := range strings.Split(r.Output, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// RunScript parses src, feeds input (one line per input instruction) and
// runs a session to completion.
func RunScript(t *testing.T, src, input string, opts engine.Options) *RunResult {
	t.Helper()

	sc, err := script.ParseString(src)
	require.NoError(t, err, "script fixture must parse")

	ctx, logBuffer := LoggerContext(t)
	out := &SafeBuffer{}
	session := engine.New(sc, engine.NewReaderSource(strings.NewReader(input)), engine.NewWriterSink(out), opts)
	runErr := session.Run(ctx)

	return &RunResult{
		Output:    out.String(),
		LogOutput: logBuffer.String(),
		Err:       runErr,
		Session:   session,
	}
}
