// Package systemtest holds the fixtures and the app harness shared by the
// system test categories.
package systemtest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/talkbot/internal/app"
	"github.com/specialistvlad/talkbot/internal/testutil"
	"github.com/stretchr/testify/require"
)

// BankScript is a menu-driven dialogue used across scenarios.
const BankScript = `
main {
    output "Welcome to the bank."
    goto menu
}

menu {
    output "Choose: balance, deposit or quit."
    input
    for /^bal/ goto balance
    for /^dep/ goto deposit
    for /^(quit|q)$/ goto bye
    default goto unknown
}

unknown {
    output "Unknown option '${last_input}'."
    goto menu
}

balance {
    output "Balance: ${balance}"
    goto menu
}

deposit {
    output "Amount?"
    input
    save amount
    eval balance=Number(balance)+Number(amount)
    output "Deposited ${amount}."
    goto menu
}

bye {
    output "Goodbye."
    exit
}
`

// AppResult is what a console run produced.
type AppResult struct {
	Output string
	Logs   string
	Err    error
}

// Lines returns the output split into lines.
func (r AppResult) Lines() []string {
	return strings.Split(strings.TrimSuffix(r.Output, "\n"), "\n")
}

// RunApp writes files into a temp dir, points the app at scriptPath
// (relative to that dir, "" for the dir itself) and runs it with input.
func RunApp(t *testing.T, files map[string]string, scriptPath, input string, mutate func(*app.Config)) AppResult {
	t.Helper()

	dir := testutil.WriteFiles(t, files)
	raw := app.Config{ScriptPath: filepath.Join(dir, scriptPath), LogLevel: "debug"}
	if mutate != nil {
		mutate(&raw)
	}
	cfg, err := app.NewConfig(raw)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a := app.NewApp(out, cfg, app.WithInput(strings.NewReader(input)), app.WithLogOutput(logs))
	runErr := a.Run(context.Background())

	return AppResult{Output: out.String(), Logs: logs.String(), Err: runErr}
}
