package script

import "fmt"

// ParseError reports a malformed script. Line is 1-based when the error was
// found while parsing a whole script and 0 for a lone ParseLine call.
type ParseError struct {
	Line int
	Text string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func instructionError(line string, err error) *ParseError {
	msg := fmt.Sprintf("cannot parse instruction: `%s`", line)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &ParseError{Text: line, Msg: msg, Err: err}
}
