package vars

import (
	"fmt"
	"regexp"
)

var placeholderRegex = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Interpolate replaces every ${name} in text with the variable's value.
// Unset variables render as "{name} is not initialized" so a missing value
// stays visible in the dialogue.
func Interpolate(text string, s *Store) string {
	return placeholderRegex.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderRegex.FindStringSubmatch(match)[1]
		if v, ok := s.Lookup(name); ok {
			return v
		}
		return UninitializedMarker(name)
	})
}

// UninitializedMarker is the text substituted for an unset variable.
func UninitializedMarker(name string) string {
	return fmt.Sprintf("{%s} is not initialized", name)
}
