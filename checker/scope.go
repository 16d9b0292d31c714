package checker

import "github.com/lumalang/luma/types"

// Symbol is a named entity visible in a scope: a variable or a function.
type Symbol struct {
	Name string
	Type *types.Type

	// IsFunc is true for function declarations; their Type is a function
	// signature.
	IsFunc bool
}

// Scope is one frame in the scope stack. A frame is created on block entry
// and discarded on block exit; nothing outlives its scope. Name lookup walks
// frames innermost first, so inner declarations shadow outer ones.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

// NewScope creates a scope frame with the given parent. A nil parent makes
// a root (module-level) scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: map[string]*Symbol{}}
}

// Declare binds a name in this frame. It reports false if the name is
// already bound in this same frame (shadowing an outer frame is allowed,
// redeclaring within one is not).
func (s *Scope) Declare(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// Resolve looks up a name, walking the scope stack innermost first.
func (s *Scope) Resolve(name string) (*Symbol, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}
