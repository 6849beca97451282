// Package builtins implements the reference built-in function library: a
// name-keyed, case-insensitive registry of host functions the evaluator and
// VM both dispatch into when a call resolves to no user-declared function,
// grounded on the teacher's internal/interp/builtins registry split-by-file
// layout.
package builtins

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/leocavalcante/vhp/internal/value"
)

// Func is the hook signature spec.md §9 describes for the opaque built-in
// table: `(name, [Value]) -> Result<Value>`.
type Func func(args []value.Value) (value.Value, error)

// CallFunc lets a built-in (array_map, array_filter, array_reduce)
// invoke a first-class callable Value without this package depending on the
// evaluator; the caller wires its own invocation logic in at construction.
type CallFunc func(callee value.Value, args []value.Value) (value.Value, error)

// Category groups built-ins for introspection, mirroring the teacher's
// Category enum.
type Category string

const (
	CategoryString Category = "string"
	CategoryArray  Category = "array"
	CategoryMath   Category = "math"
	CategoryJSON   Category = "json"
	CategoryType   Category = "type"
	CategoryIO     Category = "io"
)

// FunctionInfo holds metadata about one registered built-in.
type FunctionInfo struct {
	Name     string
	Function Func
	Category Category
}

// Registry is a case-insensitive name -> built-in function table.
type Registry struct {
	mu         sync.RWMutex
	functions  map[string]*FunctionInfo
	categories map[Category][]string
}

func newRegistry() *Registry {
	return &Registry{
		functions:  map[string]*FunctionInfo{},
		categories: map[Category][]string{},
	}
}

func (r *Registry) register(name string, fn Func, cat Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; !exists {
		r.categories[cat] = append(r.categories[cat], name)
	}
	r.functions[key] = &FunctionInfo{Name: name, Function: fn, Category: cat}
}

// Lookup finds a built-in by name, case-insensitively.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.functions[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return info.Function, true
}

// Names returns every registered name in a category, sorted.
func (r *Registry) Names(cat Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.categories[cat]...)
	sort.Strings(out)
	return out
}

// Funcs snapshots the whole table as a plain name->Func map, keyed
// lower-case, for handing to an evaluator's builtin lookup.
func (r *Registry) Funcs() map[string]Func {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Func, len(r.functions))
	for key, info := range r.functions {
		out[key] = info.Function
	}
	return out
}

// New builds the reference registry: every built-in in spec.md's §6 table,
// wired up with call as the higher-order invocation hook for callback-taking
// functions (array_map, array_filter, array_reduce).
func New(call CallFunc) *Registry {
	r := newRegistry()
	registerStrings(r)
	registerArray(r, call)
	registerMath(r)
	registerJSON(r)
	registerType(r)
	registerIO(r, nil)
	return r
}

// NewWithOutput is New, but routes io.go's var_dump/print_r through w instead
// of os.Stdout.
func NewWithOutput(call CallFunc, w io.Writer) *Registry {
	r := newRegistry()
	registerStrings(r)
	registerArray(r, call)
	registerMath(r)
	registerJSON(r)
	registerType(r)
	registerIO(r, w)
	return r
}
