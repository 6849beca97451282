package evaluator

import "github.com/leocavalcante/vhp/internal/value"

// Environment is a flat name->Value frame, grounded on the teacher's
// internal/interp/runtime/environment.go. PHP has function-level (not
// block-level) scoping, so VHP narrows the teacher's nested-scope-per-block
// pattern to one frame per function/global-script invocation; outer is used
// only to chain a closure's captured variables, never for plain nested
// blocks (if/while/for bodies write directly into the enclosing frame).
type Environment struct {
	store map[string]value.Value
	outer *Environment
}

// NewEnvironment creates a root frame with no captured outer scope.
func NewEnvironment() *Environment {
	return &Environment{store: map[string]value.Value{}}
}

// NewEnclosedEnvironment creates a frame that falls back to outer for names
// it does not itself hold, used for closures' captured variables.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: map[string]value.Value{}, outer: outer}
}

// Get looks up name in this frame, then the capture chain.
func (e *Environment) Get(name string) (value.Value, bool) {
	if v, ok := e.store[name]; ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Set assigns name in this frame (never reaching through to outer, matching
// PHP's "closures capture by value unless `use (&$x)`" default).
func (e *Environment) Set(name string, v value.Value) {
	e.store[name] = v
}

// SetOuter writes through to the frame that defines name in the capture
// chain, falling back to the local frame — used for `use (&$x)` by-reference
// closure captures.
func (e *Environment) SetOuter(name string, v value.Value) {
	cur := e
	for cur != nil {
		if _, ok := cur.store[name]; ok {
			cur.store[name] = v
			return
		}
		cur = cur.outer
	}
	e.store[name] = v
}

// All returns a shallow copy of this frame's own bindings (not the capture
// chain), used when an arrow function auto-captures its enclosing scope.
func (e *Environment) All() map[string]value.Value {
	m := make(map[string]value.Value, len(e.store))
	for k, v := range e.store {
		m[k] = v
	}
	return m
}
