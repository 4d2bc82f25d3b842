package script

import (
	"fmt"
	"regexp"
	"sort"
)

// Instruction is one line of a module body. The set of implementations is
// closed to this package.
type Instruction interface {
	fmt.Stringer
	instruction()
}

// Output writes Text after ${name} interpolation.
type Output struct {
	Text string
}

// Goto jumps unconditionally to Target.
type Goto struct {
	Target string
}

// Input reads one line into the last_input variable.
type Input struct{}

// For jumps to Target when last_input matches Pattern. Build it with NewFor;
// the compiled pattern is fixed at construction.
type For struct {
	Pattern string
	Target  string

	re *regexp.Regexp
}

// DefaultGoto is the fallback branch placed after a chain of For checks.
type DefaultGoto struct {
	Target string
}

// Save copies last_input into the variable Name.
type Save struct {
	Name string
}

// Eval evaluates an assignment expression.
type Eval struct {
	Expr string
}

// Exit terminates the dialogue.
type Exit struct{}

func (Output) instruction()      {}
func (Goto) instruction()        {}
func (Input) instruction()       {}
func (*For) instruction()        {}
func (DefaultGoto) instruction() {}
func (Save) instruction()        {}
func (Eval) instruction()        {}
func (Exit) instruction()        {}

func (i Output) String() string      { return `output "` + i.Text + `"` }
func (i Goto) String() string        { return "goto " + i.Target }
func (Input) String() string         { return "input" }
func (i *For) String() string        { return fmt.Sprintf("for /%s/ goto %s", i.Pattern, i.Target) }
func (i DefaultGoto) String() string { return "default goto " + i.Target }
func (i Save) String() string        { return "save " + i.Name }
func (i Eval) String() string        { return "eval " + i.Expr }
func (Exit) String() string          { return "exit" }

// NewFor compiles pattern and returns a For instruction ready for matching.
func NewFor(pattern, target string) (*For, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern /%s/: %w", pattern, err)
	}
	return &For{Pattern: pattern, Target: target, re: re}, nil
}

// Match reports whether s matches the compiled pattern. A For that was not
// built by NewFor or the parser has no compiled pattern and never matches.
func (i *For) Match(s string) bool {
	if i.re == nil {
		return false
	}
	return i.re.MatchString(s)
}

// Module is a named, ordered block of instructions.
type Module struct {
	Name         string
	Instructions []Instruction
}

// Script maps module names to their bodies. It is read-only once parsed and
// safe to share between sessions.
type Script struct {
	Modules map[string]*Module
}

// New returns an empty script.
func New() *Script {
	return &Script{Modules: make(map[string]*Module)}
}

// Module returns the module called name.
func (s *Script) Module(name string) (*Module, bool) {
	if s == nil {
		return nil, false
	}
	m, ok := s.Modules[name]
	return m, ok
}

// Names returns all module names in sorted order.
func (s *Script) Names() []string {
	names := make([]string, 0, len(s.Modules))
	for name := range s.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge copies every module of other into s, replacing modules that share a
// name.
func (s *Script) Merge(other *Script) {
	if other == nil {
		return
	}
	for name, m := range other.Modules {
		s.Modules[name] = m
	}
}
