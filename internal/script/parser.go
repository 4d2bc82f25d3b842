package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	outputRegex      = regexp.MustCompile(`^output\s+"(.*)"$`)
	gotoRegex        = regexp.MustCompile(`^goto\s+(\w+)$`)
	forRegex         = regexp.MustCompile(`^for\s+/(.*)/\s+goto\s+(\w+)$`)
	defaultGotoRegex = regexp.MustCompile(`^default\s+goto\s+(\w+)$`)
	saveRegex        = regexp.MustCompile(`^save\s+(\w+)$`)
	evalRegex        = regexp.MustCompile(`^eval\s+(.*)$`)

	// moduleStartRegex matches a prefix; anything after the brace is ignored.
	moduleStartRegex = regexp.MustCompile(`^(\w+)\s*\{`)
)

// ParseLine converts one source line into an instruction. Blank lines yield
// a nil instruction and a nil error.
func ParseLine(line string) (Instruction, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	if m := outputRegex.FindStringSubmatch(line); m != nil {
		return Output{Text: m[1]}, nil
	}
	if m := gotoRegex.FindStringSubmatch(line); m != nil {
		return Goto{Target: m[1]}, nil
	}
	if m := forRegex.FindStringSubmatch(line); m != nil {
		ins, err := NewFor(m[1], m[2])
		if err != nil {
			return nil, instructionError(line, err)
		}
		return ins, nil
	}
	if m := defaultGotoRegex.FindStringSubmatch(line); m != nil {
		return DefaultGoto{Target: m[1]}, nil
	}
	if m := saveRegex.FindStringSubmatch(line); m != nil {
		return Save{Name: m[1]}, nil
	}
	if m := evalRegex.FindStringSubmatch(line); m != nil {
		return Eval{Expr: m[1]}, nil
	}

	switch line {
	case "input":
		return Input{}, nil
	case "exit":
		return Exit{}, nil
	}

	return nil, instructionError(line, nil)
}

// ParseString parses a whole script held in memory.
func ParseString(src string) (*Script, error) {
	return Parse(strings.NewReader(src))
}

// Parse reads a script line by line and builds its module graph in a single
// pass. Any error aborts the parse; no partial script is returned.
func Parse(r io.Reader) (*Script, error) {
	sc := New()
	var current *Module

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if m := moduleStartRegex.FindStringSubmatch(line); m != nil {
			if current != nil {
				sc.Modules[current.Name] = current
			}
			current = &Module{Name: m[1]}
			continue
		}

		if line == "}" {
			if current == nil {
				return nil, &ParseError{Line: lineNo, Text: line, Msg: "no matching module start"}
			}
			sc.Modules[current.Name] = current
			current = nil
			continue
		}

		if line == "" {
			continue
		}

		if current == nil {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: "no module definition found"}
		}

		ins, err := ParseLine(line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = lineNo
			}
			return nil, err
		}
		current.Instructions = append(current.Instructions, ins)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	if current != nil {
		return nil, &ParseError{
			Line: lineNo,
			Text: current.Name,
			Msg:  fmt.Sprintf("module `%s` is not terminated", current.Name),
		}
	}

	return sc, nil
}
