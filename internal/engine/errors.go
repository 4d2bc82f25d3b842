package engine

import "fmt"

// TransitionError is returned when goto, for or default goto names a module
// that the script does not define.
type TransitionError struct {
	From   string
	Target string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot jump to nonexistent module: %s", e.Target)
}

// StateError is returned when the current module, including the entry
// module, is not part of the script.
type StateError struct {
	Module string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("module `%s` does not exist", e.Module)
}

// VariableError is returned by save when nothing has been read yet.
type VariableError struct {
	Name string
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("no input to save into `%s`", e.Name)
}

// ExpressionError wraps an eval failure.
type ExpressionError struct {
	Expr string
	Err  error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("cannot evaluate `%s`: %v", e.Expr, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// StallError is returned when a module keeps running without transitioning
// or receiving input for more passes than Options.SpinLimit allows.
type StallError struct {
	Module string
	Passes int
}

func (e *StallError) Error() string {
	return fmt.Sprintf("module `%s` made no progress after %d passes", e.Module, e.Passes)
}
