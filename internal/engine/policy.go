package engine

import (
	"fmt"
	"strings"
)

// ErrorPolicy decides what Run does with a module-execution error.
type ErrorPolicy int

const (
	// PolicyAbort returns the error from Run so the host can terminate.
	PolicyAbort ErrorPolicy = iota
	// PolicyReport logs the error, writes it to the sink and ends the
	// dialogue while Run returns nil. The error stays available via Err.
	PolicyReport
)

func (p ErrorPolicy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyReport:
		return "report"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// ParsePolicy converts "abort" or "report" into an ErrorPolicy.
func ParsePolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "":
		return PolicyAbort, nil
	case "report":
		return PolicyReport, nil
	default:
		return PolicyAbort, fmt.Errorf("invalid error policy %q: must be 'abort' or 'report'", s)
	}
}

// Status is the lifecycle state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusExited
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
