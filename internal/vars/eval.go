package vars

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidAssignment is returned for expressions that are not a single
// `name = value` assignment.
var ErrInvalidAssignment = errors.New("invalid assignment expression")

var numberRegex = regexp.MustCompile(`Number\((\w+)\)`)

// Evaluate parses an assignment and computes the value to store. When the
// right side mentions Number(...), every Number(id) term is resolved and the
// terms are summed; any other text on the right side is ignored. Otherwise
// the right side is assigned verbatim. Evaluate does not modify s.
func Evaluate(expr string, s *Store) (name, value string, err error) {
	parts := strings.Split(expr, "=")
	if len(parts) != 2 {
		return "", "", ErrInvalidAssignment
	}

	name = strings.TrimSpace(parts[0])
	if name == "" {
		return "", "", ErrInvalidAssignment
	}

	rhs := strings.TrimSpace(parts[1])
	if !strings.Contains(rhs, "Number(") {
		return name, rhs, nil
	}

	var total int64
	for _, m := range numberRegex.FindAllStringSubmatch(rhs, -1) {
		total += numberValue(s, m[1])
	}
	return name, strconv.FormatInt(total, 10), nil
}

// numberValue resolves a variable as an integer; missing or unparsable
// values count as zero.
func numberValue(s *Store, name string) int64 {
	raw, ok := s.Lookup(name)
	if !ok {
		raw = "0"
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
