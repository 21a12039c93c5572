// Package rename implements scope-aware alpha-renaming of obfuscated
// identifiers (component D): a stack of old-name -> new-name mappings,
// pushed on function entry and popped on exit, with the innermost
// mapping dominating lookups.
package rename

// scope is an LIFO of name->name mappings, one per lexical function
// scope, seeded with a non-empty global frame so lookups never need a
// nil check.
type scope struct {
	stack []map[string]string
}

func newScope() *scope {
	return &scope{stack: []map[string]string{{}}}
}

func (s *scope) push() {
	s.stack = append(s.stack, map[string]string{})
}

func (s *scope) pop() {
	s.stack = s.stack[:len(s.stack)-1]
}

// declare records that name resolves to newName within the current
// (innermost) scope.
func (s *scope) declare(name, newName string) {
	s.stack[len(s.stack)-1][name] = newName
}

// lookup resolves name from innermost to outermost scope. An unknown
// name (not declared anywhere visible) returns ok == false; callers pass
// such identifiers through unchanged.
func (s *scope) lookup(name string) (string, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if v, ok := s.stack[i][name]; ok {
			return v, true
		}
	}
	return "", false
}

// current reports whether name is already declared in the innermost
// scope specifically, distinct from lookup which searches outward. Used
// to avoid assigning a second var_<n> to a name re-declared in the same
// scope (e.g. `var x; var x = 1;`).
func (s *scope) current(name string) (string, bool) {
	v, ok := s.stack[len(s.stack)-1][name]
	return v, ok
}
