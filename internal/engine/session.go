package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/script"
	"github.com/specialistvlad/talkbot/internal/vars"
)

// EntryModule is the module every session starts in unless Options.Entry
// says otherwise.
const EntryModule = "main"

// Options configures a Session.
type Options struct {
	// ID labels the session in logs.
	ID string
	// Entry overrides EntryModule.
	Entry string
	// Policy selects how module-execution errors end the run.
	Policy ErrorPolicy
	// SpinLimit, when positive, fails the run after that many consecutive
	// passes over a module that neither transitions nor reads input.
	// Zero keeps re-running such a module forever.
	SpinLimit int
	// Variables are copied into the store before the first instruction.
	Variables map[string]string
}

// Session is the execution context of a single dialogue. It must be driven
// from one goroutine; accessors are meant to be read after Run returns.
type Session struct {
	script *script.Script
	in     LineSource
	out    Sink
	opts   Options

	current     string
	store       *vars.Store
	status      Status
	err         error
	transitions int
}

// New creates a session positioned at the entry module.
func New(sc *script.Script, in LineSource, out Sink, opts Options) *Session {
	entry := opts.Entry
	if entry == "" {
		entry = EntryModule
	}
	store := vars.NewStore()
	store.Seed(opts.Variables)

	return &Session{
		script:  sc,
		in:      in,
		out:     out,
		opts:    opts,
		current: entry,
		store:   store,
		status:  StatusIdle,
	}
}

// outcome is what a single module visit produced.
type outcome struct {
	exit     bool
	target   string
	gotInput bool
}

// Run drives the dialogue until an exit instruction, an error, or context
// cancellation. It returns nil when the script exits. Execution errors are
// returned or reported depending on Options.Policy; cancellation always
// returns the context's error.
func (s *Session) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if s.opts.ID != "" {
		logger = logger.With("session", s.opts.ID)
	}
	logger.Debug("Session started.", "entry", s.current, "policy", s.opts.Policy.String())

	s.status = StatusRunning
	err := s.loop(ctx, logger)
	return s.finish(logger, err)
}

func (s *Session) loop(ctx context.Context, logger *slog.Logger) error {
	idle := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		module, ok := s.script.Module(s.current)
		if !ok {
			return &StateError{Module: s.current}
		}
		logger.Debug("Entering module.", "module", module.Name, "instructions", len(module.Instructions))

		res, err := s.visit(ctx, logger, module)
		if err != nil {
			return err
		}

		switch {
		case res.exit:
			return nil
		case res.target != "":
			logger.Debug("Transition taken.", "from", s.current, "to", res.target)
			s.current = res.target
			s.transitions++
			idle = 0
		case res.gotInput:
			idle = 0
		default:
			idle++
			if s.opts.SpinLimit > 0 && idle >= s.opts.SpinLimit {
				return &StallError{Module: s.current, Passes: idle}
			}
		}
	}
}

// visit executes module instructions in order until one of them transitions
// or exits, or the body is exhausted.
func (s *Session) visit(ctx context.Context, logger *slog.Logger, module *script.Module) (outcome, error) {
	var res outcome
	for _, ins := range module.Instructions {
		switch ins := ins.(type) {
		case script.Output:
			if err := s.out.WriteLine(vars.Interpolate(ins.Text, s.store)); err != nil {
				return res, fmt.Errorf("failed to write output: %w", err)
			}

		case script.Input:
			line, err := s.in.ReadLine(ctx)
			if errors.Is(err, io.EOF) {
				logger.Debug("Input source exhausted.", "module", module.Name)
				line, err = "", nil
			}
			if err != nil {
				return res, err
			}
			if line = strings.TrimSpace(line); line != "" {
				s.store.Set(vars.LastInput, line)
				res.gotInput = true
				logger.Debug("Input received.", "module", module.Name, "input", line)
			}

		case script.Goto:
			return s.jump(module.Name, ins.Target)

		case *script.For:
			last, ok := s.store.Lookup(vars.LastInput)
			if ok && ins.Match(last) {
				return s.jump(module.Name, ins.Target)
			}

		case script.DefaultGoto:
			return s.jump(module.Name, ins.Target)

		case script.Save:
			last, ok := s.store.Lookup(vars.LastInput)
			if !ok {
				return res, &VariableError{Name: ins.Name}
			}
			s.store.Set(ins.Name, last)

		case script.Eval:
			name, value, err := vars.Evaluate(ins.Expr, s.store)
			if err != nil {
				return res, &ExpressionError{Expr: ins.Expr, Err: err}
			}
			s.store.Set(name, value)

		case script.Exit:
			res.exit = true
			return res, nil

		default:
			return res, fmt.Errorf("unsupported instruction %T", ins)
		}
	}
	return res, nil
}

func (s *Session) jump(from, target string) (outcome, error) {
	if _, ok := s.script.Module(target); !ok {
		return outcome{}, &TransitionError{From: from, Target: target}
	}
	return outcome{target: target}, nil
}

func (s *Session) finish(logger *slog.Logger, err error) error {
	switch {
	case err == nil:
		s.status = StatusExited
		logger.Info("Script exited.", "module", s.current, "transitions", s.transitions)
		return nil

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.status = StatusCanceled
		s.err = err
		logger.Debug("Session canceled.", "module", s.current)
		return err
	}

	s.status = StatusFailed
	s.err = fmt.Errorf("module execution error: %w", err)

	if s.opts.Policy == PolicyReport {
		logger.Error("Module execution failed, dialogue stopped.", "module", s.current, "error", err)
		if werr := s.out.WriteLine("error: " + s.err.Error()); werr != nil {
			logger.Warn("Failed to report error to output.", "error", werr)
		}
		return nil
	}
	return s.err
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// Err returns the error that ended the session, if any.
func (s *Session) Err() error {
	return s.err
}

// Current returns the name of the current module.
func (s *Session) Current() string {
	return s.current
}

// Transitions returns how many module switches happened.
func (s *Session) Transitions() int {
	return s.transitions
}

// Vars returns a copy of the variable store.
func (s *Session) Vars() map[string]string {
	return s.store.Snapshot()
}
