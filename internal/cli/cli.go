package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/talkbot/internal/app"
	"github.com/specialistvlad/talkbot/internal/config"
	"github.com/specialistvlad/talkbot/internal/ctxlog"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// variablesFlag collects repeated -var name=value flags.
type variablesFlag map[string]string

func (v variablesFlag) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	return strings.Join(pairs, ",")
}

func (v variablesFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return errors.New("expected name=value")
	}
	v[strings.TrimSpace(name)] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseWith(args, output, app.ConfigLoaders())
}

// ParseWith is Parse with an explicit set of run-config loaders.
func ParseWith(args []string, output io.Writer, loaders config.Loaders) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("talkbot", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Talkbot - A line-oriented chatbot scripting engine.

Usage:
  talkbot [options] [SCRIPT_PATH]

Arguments:
  SCRIPT_PATH
    Path to a single script file or a directory containing .talk files.

Options:
`)
		flagSet.PrintDefaults()
	}

	scriptFlag := flagSet.String("script", "", "Path to the script file or directory.")
	sFlag := flagSet.String("s", "", "Path to the script file or directory (shorthand).")
	configFlag := flagSet.String("config", "", "Path to a run-config file (.hcl, .yaml or .yml).")
	entryFlag := flagSet.String("entry", "main", "Name of the module every dialogue starts in.")
	policyFlag := flagSet.String("error-policy", "abort", "What a module execution error does. Options: 'abort' or 'report'.")
	spinFlag := flagSet.Int("spin-limit", 0, "Fail after this many idle passes over a module. 0 is unlimited.")
	logFormatFlag := flagSet.String("log-format", app.DefaultLogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", app.DefaultLogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	promptFlag := flagSet.String("prompt", app.DefaultPrompt, "Prompt shown by the interactive console.")
	serveFlag := flagSet.String("serve", "", "Serve the script over socket.io on this address, e.g. ':3000'.")
	servePathFlag := flagSet.String("serve-path", "/socket.io/", "Path of the socket.io endpoint in server mode.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	connectFlag := flagSet.String("connect", "", "Talk to a remote talkbot server at this URL instead of running a script.")
	vars := variablesFlag{}
	flagSet.Var(vars, "var", "Seed a variable as name=value. Can be repeated.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	cfg := app.Config{}
	if *configFlag != "" {
		ctx := ctxlog.WithLogger(context.Background(), slog.Default())
		model, err := loaders.Load(ctx, *configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 1, Message: fmt.Sprintf("failed to load config: %v", err)}
		}
		cfg.ApplyModel(model)
		slog.Debug("Run-config file applied.", "path", *configFlag)
	}

	// Flags set on the command line win over the run-config file.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "entry":
			cfg.Entry = *entryFlag
		case "error-policy":
			cfg.ErrorPolicy = *policyFlag
		case "spin-limit":
			cfg.SpinLimit = *spinFlag
		case "log-format":
			cfg.LogFormat = *logFormatFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		case "prompt":
			cfg.Prompt = *promptFlag
		case "serve":
			cfg.ServeAddress = *serveFlag
		case "serve-path":
			cfg.ServePath = *servePathFlag
		case "healthcheck-port":
			cfg.HealthcheckPort = *healthPortFlag
		case "connect":
			cfg.ConnectURL = *connectFlag
		case "var":
			if cfg.Variables == nil {
				cfg.Variables = make(map[string]string, len(vars))
			}
			for k, v := range vars {
				cfg.Variables[k] = v
			}
		}
	})

	switch {
	case *scriptFlag != "":
		cfg.ScriptPath = *scriptFlag
	case *sFlag != "":
		cfg.ScriptPath = *sFlag
	case flagSet.NArg() > 0:
		cfg.ScriptPath = flagSet.Arg(0)
	}
	slog.Debug("Script path determined.", "path", cfg.ScriptPath)

	if cfg.ScriptPath == "" && cfg.ConnectURL == "" && *configFlag == "" {
		slog.Debug("No script path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", appConfig)
	return appConfig, false, nil
}
