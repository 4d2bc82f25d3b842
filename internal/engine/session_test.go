package engine_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/talkbot/internal/engine"
	"github.com/specialistvlad/talkbot/internal/script"
	"github.com/specialistvlad/talkbot/internal/testutil"
	"github.com/specialistvlad/talkbot/internal/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankScript = `
main {
    output "Hello, how can I help you?"
    goto menu
}

menu {
    output "1) balance 2) deposit 3) quit"
    input
    for /^(1|balance)$/ goto balance
    for /^(2|deposit)$/ goto deposit
    for /^(3|quit)$/ goto bye
    default goto unknown
}

unknown {
    output "Sorry, I did not understand '${last_input}'."
    goto menu
}

balance {
    output "Your balance is ${balance}."
    goto menu
}

deposit {
    output "How much?"
    input
    save amount
    eval balance=Number(balance)+Number(amount)
    output "Deposited ${amount}, balance is now ${balance}."
    goto menu
}

bye {
    output "Goodbye."
    exit
}
`

func TestRun_HelloNextExit(t *testing.T) {
	t.Parallel()

	src := `
main {
    output "hi"
    goto next
}
next {
    exit
}
`
	result := testutil.RunScript(t, src, "", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, "hi\n", result.Output)
	assert.Equal(t, engine.StatusExited, result.Session.Status())
	assert.Equal(t, "next", result.Session.Current())
	assert.Equal(t, 1, result.Session.Transitions())
	assert.Contains(t, result.LogOutput, "Script exited.")
}

func TestRun_BankDialogue(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	input := strings.Join([]string{"balance", "2", "25", "what?", "  1  ", "quit"}, "\n") + "\n"

	// --- Act ---
	result := testutil.RunScript(t, bankScript, input, engine.Options{
		Variables: map[string]string{"balance": "100"},
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	expected := []string{
		"Hello, how can I help you?",
		"1) balance 2) deposit 3) quit",
		"Your balance is 100.",
		"1) balance 2) deposit 3) quit",
		"How much?",
		"Deposited 25, balance is now 125.",
		"1) balance 2) deposit 3) quit",
		"Sorry, I did not understand 'what?'.",
		"1) balance 2) deposit 3) quit",
		"Your balance is 125.",
		"1) balance 2) deposit 3) quit",
		"Goodbye.",
	}
	assert.Equal(t, expected, result.OutputLines())

	vs := result.Session.Vars()
	assert.Equal(t, "125", vs["balance"])
	assert.Equal(t, "25", vs["amount"])
	assert.Equal(t, "quit", vs[vars.LastInput])
}

func TestRun_MissingMain(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "other {\n exit\n}\n", "", engine.Options{})

	require.Error(t, result.Err)
	var stateErr *engine.StateError
	require.True(t, errors.As(result.Err, &stateErr))
	assert.Equal(t, "main", stateErr.Module)
	assert.Contains(t, result.Err.Error(), "main")
	assert.Equal(t, engine.StatusFailed, result.Session.Status())
}

func TestRun_CustomEntry(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "start {\n output \"from start\"\n exit\n}\n", "", engine.Options{Entry: "start"})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"from start"}, result.OutputLines())
}

func TestRun_GotoUndefinedModule(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		src  string
	}{
		{name: "goto", src: "main {\n goto foo\n}\n"},
		{name: "default goto", src: "main {\n default goto foo\n}\n"},
		{name: "for", src: "main {\n input\n for /yes/ goto foo\n}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := testutil.RunScript(t, tc.src, "yes\n", engine.Options{})

			require.Error(t, result.Err)
			var transErr *engine.TransitionError
			require.True(t, errors.As(result.Err, &transErr))
			assert.Equal(t, "foo", transErr.Target)
			assert.Equal(t, "main", transErr.From)
			assert.Contains(t, result.Err.Error(), "cannot jump to nonexistent module: foo")
		})
	}
}

func TestRun_ReportPolicy(t *testing.T) {
	t.Parallel()

	src := `
main {
    output "before"
    goto foo
    output "never"
}
`
	result := testutil.RunScript(t, src, "", engine.Options{Policy: engine.PolicyReport})

	// The host keeps control: no error is returned.
	require.NoError(t, result.Err)
	assert.Equal(t, engine.StatusFailed, result.Session.Status())

	var transErr *engine.TransitionError
	require.True(t, errors.As(result.Session.Err(), &transErr))
	assert.Equal(t, "foo", transErr.Target)

	assert.Equal(t, []string{
		"before",
		"error: module execution error: cannot jump to nonexistent module: foo",
	}, result.OutputLines())
	assert.Contains(t, result.LogOutput, "Module execution failed")
}

func TestRun_AbortPolicy(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "main {\n output \"before\"\n goto foo\n}\n", "", engine.Options{Policy: engine.PolicyAbort})

	require.Error(t, result.Err)
	assert.Equal(t, "module execution error: cannot jump to nonexistent module: foo", result.Err.Error())
	assert.Equal(t, result.Err, result.Session.Err())
	assert.Equal(t, []string{"before"}, result.OutputLines(), "abort must not write the error to the dialogue")
}

func TestRun_SaveWithoutInput(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "main {\n save name\n exit\n}\n", "", engine.Options{})

	var varErr *engine.VariableError
	require.True(t, errors.As(result.Err, &varErr))
	assert.Equal(t, "name", varErr.Name)
}

func TestRun_SaveAfterInput(t *testing.T) {
	t.Parallel()

	src := `
main {
    output "What is your name?"
    input
    save name
    output "Nice to meet you, ${name}."
    exit
}
`
	result := testutil.RunScript(t, src, "  Ada \n", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"What is your name?", "Nice to meet you, Ada."}, result.OutputLines())
}

func TestRun_EvalError(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "main {\n eval bad\n exit\n}\n", "", engine.Options{})

	var exprErr *engine.ExpressionError
	require.True(t, errors.As(result.Err, &exprErr))
	assert.Equal(t, "bad", exprErr.Expr)
	assert.ErrorIs(t, result.Err, vars.ErrInvalidAssignment)
}

func TestRun_EvalAndInterpolation(t *testing.T) {
	t.Parallel()

	src := `
main {
    eval a = 2
    eval b=5
    eval total=Number(a)+Number(b)
    eval label = sum
    output "${label}: ${total}, missing ${nope}"
    exit
}
`
	result := testutil.RunScript(t, src, "", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"sum: 7, missing {nope} is not initialized"}, result.OutputLines())
}

func TestRun_ForWithoutInputFallsThrough(t *testing.T) {
	t.Parallel()

	src := `
main {
    for /.*/ goto matched
    default goto fallback
}
matched {
    output "matched"
    exit
}
fallback {
    output "fallback"
    exit
}
`
	result := testutil.RunScript(t, src, "", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"fallback"}, result.OutputLines())
}

func TestRun_EmptyInputKeepsPreviousValue(t *testing.T) {
	t.Parallel()

	src := `
main {
    input
    input
    output "last=${last_input}"
    exit
}
`
	result := testutil.RunScript(t, src, "first\n   \n", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"last=first"}, result.OutputLines())
}

func TestRun_ExitStopsImmediately(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "main {\n output \"a\"\n exit\n output \"b\"\n}\n", "", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"a"}, result.OutputLines())
}

func TestRun_TransitionSkipsRestOfModule(t *testing.T) {
	t.Parallel()

	src := `
main {
    goto next
    output "skipped"
}
next {
    output "next"
    exit
}
`
	result := testutil.RunScript(t, src, "", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"next"}, result.OutputLines())
}

func TestRun_FallThroughRerunsModule(t *testing.T) {
	t.Parallel()

	// The module has no default branch: after an unmatched answer it is
	// re-run from the top and asks again.
	src := `
main {
    output "Continue? (yes)"
    input
    for /^yes$/ goto done
}
done {
    output "done"
    exit
}
`
	result := testutil.RunScript(t, src, "no\nmaybe\nyes\n", engine.Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{
		"Continue? (yes)",
		"Continue? (yes)",
		"Continue? (yes)",
		"done",
	}, result.OutputLines())
}

func TestRun_SpinLimit(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "main {\n output \"tick\"\n}\n", "", engine.Options{SpinLimit: 3})

	var stallErr *engine.StallError
	require.True(t, errors.As(result.Err, &stallErr))
	assert.Equal(t, "main", stallErr.Module)
	assert.Equal(t, 3, stallErr.Passes)
	assert.Equal(t, []string{"tick", "tick", "tick"}, result.OutputLines())
}

func TestRun_SpinLimitResetByInput(t *testing.T) {
	t.Parallel()

	result := testutil.RunScript(t, "main {\n input\n output \"echo ${last_input}\"\n}\n", "a\nb\n", engine.Options{SpinLimit: 2})

	var stallErr *engine.StallError
	require.True(t, errors.As(result.Err, &stallErr))
	assert.Equal(t, []string{"echo a", "echo b", "echo b", "echo b"}, result.OutputLines())
}

// cancelingSink cancels the run after a fixed number of lines.
type cancelingSink struct {
	after  int
	lines  []string
	cancel context.CancelFunc
}

func (s *cancelingSink) WriteLine(line string) error {
	s.lines = append(s.lines, line)
	if len(s.lines) == s.after {
		s.cancel()
	}
	return nil
}

func TestRun_UnlimitedSpinStopsOnCancel(t *testing.T) {
	t.Parallel()

	sc, err := script.ParseString("main {\n output \"tick\"\n}\n")
	require.NoError(t, err)

	ctx, _ := testutil.LoggerContext(t)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := &cancelingSink{after: 5, cancel: cancel}
	session := engine.New(sc, engine.NewReaderSource(strings.NewReader("")), sink, engine.Options{Policy: engine.PolicyReport})

	runErr := session.Run(ctx)

	require.ErrorIs(t, runErr, context.Canceled)
	assert.Equal(t, engine.StatusCanceled, session.Status())
	assert.Len(t, sink.lines, 5)
}

// failingSource returns a fixed error on every read.
type failingSource struct{ err error }

func (s failingSource) ReadLine(context.Context) (string, error) { return "", s.err }

func TestRun_InputReadError(t *testing.T) {
	t.Parallel()

	sc, err := script.ParseString("main {\n input\n exit\n}\n")
	require.NoError(t, err)

	ctx, _ := testutil.LoggerContext(t)
	readErr := errors.New("terminal gone")
	session := engine.New(sc, failingSource{err: readErr}, engine.NewWriterSink(io.Discard), engine.Options{})

	runErr := session.Run(ctx)
	require.ErrorIs(t, runErr, readErr)
	assert.Equal(t, engine.StatusFailed, session.Status())
}

func TestRun_ConcurrentSessionsShareScript(t *testing.T) {
	t.Parallel()

	sc, err := script.ParseString(bankScript)
	require.NoError(t, err)

	const numSessions = 20
	var wg sync.WaitGroup
	wg.Add(numSessions)

	results := make([]map[string]string, numSessions)
	for i := 0; i < numSessions; i++ {
		go func(i int) {
			defer wg.Done()
			ctx, _ := testutil.LoggerContext(t)
			out := &testutil.SafeBuffer{}
			in := engine.NewReaderSource(strings.NewReader("deposit\n" + strings.Repeat("1", i%3+1) + "\nquit\n"))
			session := engine.New(sc, in, engine.NewWriterSink(out), engine.Options{Variables: map[string]string{"balance": "0"}})
			if err := session.Run(ctx); err != nil {
				t.Errorf("session %d failed: %v", i, err)
				return
			}
			results[i] = session.Vars()
		}(i)
	}
	wg.Wait()

	for i, vs := range results {
		expected := strings.Repeat("1", i%3+1)
		assert.Equal(t, expected, vs["balance"], "session %d leaked state", i)
	}
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in        string
		expected  engine.ErrorPolicy
		expectErr bool
	}{
		{in: "abort", expected: engine.PolicyAbort},
		{in: "", expected: engine.PolicyAbort},
		{in: "REPORT", expected: engine.PolicyReport},
		{in: " report ", expected: engine.PolicyReport},
		{in: "ignore", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			p, err := engine.ParsePolicy(tc.in)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}

	assert.Equal(t, "abort", engine.PolicyAbort.String())
	assert.Equal(t, "report", engine.PolicyReport.String())
	assert.Equal(t, "exited", engine.StatusExited.String())
}
