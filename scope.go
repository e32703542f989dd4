package ometa

// Scope holds the names bound by `expr:name` while a rule clause
// runs.  Each rule invocation gets a fresh scope so bindings never
// leak between rules, and each clause of a rule starts over with an
// empty one.
type Scope struct {
	names  []string
	values map[string]any
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{values: map[string]any{}}
}

// Set binds `name` to `value`, keeping the order names were first
// bound in
func (s *Scope) Set(name string, value any) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// Get returns the value bound to `name`
func (s *Scope) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the bound names in binding order
func (s *Scope) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Map returns a copy of the bindings
func (s *Scope) Map() map[string]any {
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// Len returns how many names are bound
func (s *Scope) Len() int { return len(s.names) }

func (s *Scope) reset() {
	s.names = s.names[:0]
	clear(s.values)
}
