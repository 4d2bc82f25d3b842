package vars

// LastInput is the reserved variable that receives every non-empty line read
// by an input instruction.
const LastInput = "last_input"

// Store is a string-keyed variable table owned by a single session. It is
// not safe for concurrent use.
type Store struct {
	values map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value of name, or "" when unset.
func (s *Store) Get(name string) string {
	return s.values[name]
}

// Lookup returns the value of name and whether it is set.
func (s *Store) Lookup(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set assigns value to name, replacing any previous value.
func (s *Store) Set(name, value string) {
	s.values[name] = value
}

// Seed copies initial values into the store.
func (s *Store) Seed(values map[string]string) {
	for k, v := range values {
		s.values[k] = v
	}
}

// Len returns the number of variables set.
func (s *Store) Len() int {
	return len(s.values)
}

// Snapshot returns a copy of all variables.
func (s *Store) Snapshot() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
