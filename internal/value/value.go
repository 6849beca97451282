// Package value implements the runtime value model shared by the
// tree-walking evaluator and the bytecode VM: the tagged Value union,
// ArrayKey normalization, the ordered Array type, and the coercion,
// equality, and formatting rules both execution backends depend on.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is the tagged union of all runtime values. The marker method keeps
// arbitrary Go types from satisfying the interface by accident.
type Value interface {
	Type() string
	String() string
	value()
}

// Null is the absence of a value.
type Null struct{}

func (Null) Type() string   { return "NULL" }
func (Null) String() string { return "" }
func (Null) value()         {}

// Bool is a boolean scalar.
type Bool bool

func (Bool) Type() string { return "BOOL" }
func (b Bool) String() string {
	if b {
		return "1"
	}
	return ""
}
func (Bool) value() {}

// Int is a 64-bit signed integer scalar.
type Int int64

func (Int) Type() string     { return "INT" }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (Int) value()            {}

// Float is a double-precision scalar.
type Float float64

func (Float) Type() string { return "FLOAT" }
func (f Float) String() string {
	v := float64(f)
	if math.Abs(v) < 1e15 && v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return strconv.FormatFloat(v, 'G', -1, 64)
}
func (Float) value() {}

// Str is a UTF-8 string scalar.
type Str string

func (Str) Type() string     { return "STRING" }
func (s Str) String() string { return string(s) }
func (Str) value()            {}

// ArrayKey is the normalized key type used inside Array: either an Int or a
// Str, per spec.md §3's ArrayKey coercion rules.
type ArrayKey struct {
	isInt bool
	i     int64
	s     string
}

func IntKey(i int64) ArrayKey    { return ArrayKey{isInt: true, i: i} }
func StringKey(s string) ArrayKey { return ArrayKey{s: s} }

func (k ArrayKey) IsInt() bool   { return k.isInt }
func (k ArrayKey) Int() int64    { return k.i }
func (k ArrayKey) String() string {
	if k.isInt {
		return strconv.FormatInt(k.i, 10)
	}
	return k.s
}

// ToValue converts a normalized ArrayKey back to a runtime Value, the
// inverse of NormalizeKey.
func (k ArrayKey) ToValue() Value {
	if k.isInt {
		return Int(k.i)
	}
	return Str(k.s)
}

// NormalizeKey implements spec.md §3's Value→ArrayKey coercion.
func NormalizeKey(v Value) ArrayKey {
	switch x := v.(type) {
	case Int:
		return IntKey(int64(x))
	case Float:
		return IntKey(int64(x))
	case Bool:
		if x {
			return IntKey(1)
		}
		return IntKey(0)
	case Null:
		return StringKey("")
	case Str:
		if n, ok := canonicalInt(string(x)); ok {
			return IntKey(n)
		}
		return StringKey(string(x))
	case *Array:
		return StringKey("Array")
	default:
		return StringKey(v.String())
	}
}

// canonicalInt reports whether s is the canonical decimal rendering of an
// int64: no leading zeros (except exactly "0"), no leading/trailing
// whitespace, optional leading '-', and round-trips through FormatInt.
func canonicalInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != s {
		return 0, false
	}
	return n, true
}

// Array is an insertion-ordered map from ArrayKey to Value, implemented as a
// parallel keys slice plus an index map so both "iterate in insertion
// order" and "O(1) lookup by key" hold simultaneously.
type Array struct {
	keys  []ArrayKey
	vals  map[ArrayKey]Value
	index map[ArrayKey]int
	next  int64 // next auto-increment integer key
}

func NewArray() *Array {
	return &Array{vals: map[ArrayKey]Value{}, index: map[ArrayKey]int{}}
}

func (*Array) Type() string { return "ARRAY" }
func (a *Array) String() string { return "Array" }
func (*Array) value()        {}

// Len returns the number of entries.
func (a *Array) Len() int { return len(a.keys) }

// Keys returns the keys in insertion order. Callers must not mutate it.
func (a *Array) Keys() []ArrayKey { return a.keys }

// Get looks up a value by key.
func (a *Array) Get(k ArrayKey) (Value, bool) {
	v, ok := a.vals[k]
	return v, ok
}

// Set inserts or replaces a key's value, preserving position on replace.
func (a *Array) Set(k ArrayKey, v Value) {
	if _, ok := a.vals[k]; !ok {
		a.index[k] = len(a.keys)
		a.keys = append(a.keys, k)
	}
	a.vals[k] = v
	if k.isInt && k.i >= a.next {
		a.next = k.i + 1
	}
}

// Append inserts v at the next auto-increment integer key (the `$a[] = v`
// and bare-array-literal-item form).
func (a *Array) Append(v Value) ArrayKey {
	k := IntKey(a.next)
	a.Set(k, v)
	return k
}

// Delete removes a key, shifting later keys' recorded index down by one.
func (a *Array) Delete(k ArrayKey) {
	i, ok := a.index[k]
	if !ok {
		return
	}
	a.keys = append(a.keys[:i], a.keys[i+1:]...)
	delete(a.vals, k)
	delete(a.index, k)
	for j := i; j < len(a.keys); j++ {
		a.index[a.keys[j]] = j
	}
}

// Clone returns a shallow copy: nested *Array/*Object values remain shared,
// matching PHP's copy-on-write-ish array value semantics at this layer
// (the evaluator deep-copies when spec.md calls for it, e.g. clone).
func (a *Array) Clone() *Array {
	n := NewArray()
	for _, k := range a.keys {
		n.Set(k, a.vals[k])
	}
	n.next = a.next
	return n
}

// SortByKeysNatural reorders entries by natural-order comparison of their
// string key rendering (used by ksort-style builtins).
func (a *Array) SortByKeysNatural(less func(a, b string) bool) {
	sort.SliceStable(a.keys, func(i, j int) bool {
		return less(a.keys[i].String(), a.keys[j].String())
	})
	for i, k := range a.keys {
		a.index[k] = i
	}
}

// ObjectInstance is the mutable record backing an object value. *Object
// wraps a pointer to this struct so the Go pointer itself is the shared,
// mutable handle spec.md §3 calls for: copying the *Object value copies
// the pointer, not the record, so mutation through any holder is visible
// to every holder, and Go's GC reclaims it once unreachable.
type ObjectInstance struct {
	ClassName           string
	Properties           *orderedProps
	ReadonlyProperties   map[string]bool
	InitializedReadonly  map[string]bool
	ParentClass          string
	Interfaces           []string
}

// orderedProps is a small ordered string->Value map, mirroring Array's
// keys+map split, used for object property storage so property iteration
// (var_dump, foreach on objects) is deterministic.
type orderedProps struct {
	order []string
	m     map[string]Value
}

func newOrderedProps() *orderedProps {
	return &orderedProps{m: map[string]Value{}}
}

func (o *orderedProps) Get(name string) (Value, bool) {
	v, ok := o.m[name]
	return v, ok
}

func (o *orderedProps) Set(name string, v Value) {
	if _, ok := o.m[name]; !ok {
		o.order = append(o.order, name)
	}
	o.m[name] = v
}

func (o *orderedProps) Order() []string { return o.order }

// NewObjectInstance allocates a fresh, empty instance for className.
func NewObjectInstance(className string) *ObjectInstance {
	return &ObjectInstance{
		ClassName:          className,
		Properties:         newOrderedProps(),
		ReadonlyProperties: map[string]bool{},
		InitializedReadonly: map[string]bool{},
	}
}

// GetProperty reads a property by name.
func (o *ObjectInstance) GetProperty(name string) (Value, bool) {
	return o.Properties.Get(name)
}

// SetProperty writes a property by name, without readonly enforcement —
// callers needing spec.md's readonly rule must check CanWrite first.
func (o *ObjectInstance) SetProperty(name string, v Value) {
	o.Properties.Set(name, v)
}

// PropertyOrder returns declared property names in first-write order.
func (o *ObjectInstance) PropertyOrder() []string { return o.Properties.Order() }

// CanWriteReadonly reports whether writing property name is allowed under
// spec.md §3's readonly invariant: assignable iff it is declared readonly
// and not yet initialized, or not readonly at all.
func (o *ObjectInstance) CanWriteReadonly(name string) bool {
	if !o.ReadonlyProperties[name] {
		return true
	}
	return !o.InitializedReadonly[name]
}

// MarkInitialized records that a readonly property now holds its one
// permitted value.
func (o *ObjectInstance) MarkInitialized(name string) {
	if o.ReadonlyProperties[name] {
		o.InitializedReadonly[name] = true
	}
}

// CloneInstance deep-copies the properties map and clears
// InitializedReadonly, per spec.md §4.4's clone semantics.
func (o *ObjectInstance) CloneInstance() *ObjectInstance {
	n := NewObjectInstance(o.ClassName)
	n.ParentClass = o.ParentClass
	n.Interfaces = append([]string(nil), o.Interfaces...)
	for k := range o.ReadonlyProperties {
		n.ReadonlyProperties[k] = true
	}
	for _, name := range o.Properties.Order() {
		v, _ := o.Properties.Get(name)
		n.Properties.Set(name, v)
	}
	return n
}

// Object is the Value-level handle to a shared ObjectInstance.
type Object struct {
	Instance *ObjectInstance
}

func NewObject(inst *ObjectInstance) *Object { return &Object{Instance: inst} }

func (*Object) Type() string     { return "OBJECT" }
func (o *Object) String() string { return o.Instance.ClassName }
func (*Object) value()            {}

// EnumCase is a singleton value identifying one case of an enum. Equality
// is by (EnumName, CaseName) identity per spec.md §3.
type EnumCase struct {
	EnumName     string
	CaseName     string
	BackingValue Value // nil for pure enum cases
}

func (EnumCase) Type() string     { return "ENUM_CASE" }
func (e EnumCase) String() string { return e.EnumName + "::" + e.CaseName }
func (EnumCase) value()            {}

// Exception is a thrown value: class name, message, numeric code, and an
// optional chained previous exception.
type Exception struct {
	ClassName string
	Message   string
	Code      int64
	Previous  *Exception
	Instance  *ObjectInstance // backing object, for property access in catch blocks
}

func (*Exception) Type() string     { return "EXCEPTION" }
func (e *Exception) String() string { return e.ClassName + ": " + e.Message }
func (*Exception) value()            {}

// Closure is a first-class callable value: a captured environment plus the
// function/method it wraps. The evaluator and VM each define their own
// callable body representation, so Closure stores an opaque Callee.
type Closure struct {
	Name    string // empty for anonymous closures
	Bound   *Object
	Class   string // declaring class for bound methods, "" for plain functions
	Captured map[string]Value
	Callee  any // *ast.FunctionLiteral or a compiled function, backend-specific
}

func (*Closure) Type() string     { return "CLOSURE" }
func (c *Closure) String() string { return "Closure" }
func (*Closure) value()            {}

// FiberState is one of a Fiber's lifecycle states per spec.md §4.6.
type FiberState int

const (
	FiberNotStarted FiberState = iota
	FiberRunning
	FiberSuspended
	FiberTerminated
)

// Fiber is the Value-level handle to a cooperative suspendable execution
// context. The actual saved continuation lives in the executing backend
// (evaluator goroutine channel pair, or VM frame stack); Fiber only carries
// the externally observable identity and state spec.md requires.
type Fiber struct {
	State      FiberState
	ReturnVal  Value
	Suspended  any // backend-specific resumption handle
}

func (*Fiber) Type() string     { return "FIBER" }
func (*Fiber) String() string   { return "Fiber" }
func (*Fiber) value()            {}

// Generator is the Value-level handle to a lazy yield-produced sequence.
type Generator struct {
	Done      bool
	CurrentK  Value
	CurrentV  Value
	Suspended any
}

func (*Generator) Type() string   { return "GENERATOR" }
func (*Generator) String() string { return "Generator" }
func (*Generator) value()          {}

// ToBool implements spec.md §4.3's truthiness rule.
func ToBool(v Value) bool {
	switch x := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case Str:
		return x != "" && x != "0"
	case *Array:
		return x.Len() > 0
	default:
		return true
	}
}

// ToFloat coerces v to float64 per the "other types coerce to float" rule
// of spec.md §4.3's numeric coercion.
func ToFloat(v Value) float64 {
	switch x := v.(type) {
	case Null:
		return 0
	case Bool:
		if x {
			return 1
		}
		return 0
	case Int:
		return float64(x)
	case Float:
		return float64(x)
	case Str:
		return parseLeadingFloat(string(x))
	default:
		return 0
	}
}

func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDot, seenDigit, seenExp := false, false, false
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == '+' || c == '-') && end == 0:
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			goto done
		}
		end++
	}
done:
	if !seenDigit {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

// ToInt coerces v to int64, used where an integer-valued operand is needed
// (e.g. the modulo operator).
func ToInt(v Value) int64 {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Float:
		return int64(x)
	case Bool:
		if x {
			return 1
		}
		return 0
	case Null:
		return 0
	case Str:
		return int64(parseLeadingFloat(string(x)))
	default:
		return 0
	}
}

// ToStr implements spec.md §4.3's string coercion for concatenation and
// output formatting (they share the same rule set).
func ToStr(v Value) string {
	switch x := v.(type) {
	case Null:
		return ""
	case Bool:
		if x {
			return "1"
		}
		return ""
	default:
		return x.String()
	}
}

// IsNumericString reports whether s parses as a canonical int or float for
// the purposes of loose `==` comparison (spec.md §4.3's "strict
// string-to-number parse").
func IsNumericString(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f, true
	}
	return 0, false
}

// StrictEqual implements `===` per spec.md §4.3 and §8: same variant, same
// content; arrays compare pairwise (key, value) in order; objects compare
// by identity (same underlying *ObjectInstance).
func StrictEqual(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
			return false
		}
		return x == y
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			if y.keys[i] != k {
				return false
			}
			xv, _ := x.Get(k)
			yv, _ := y.Get(k)
			if !StrictEqual(xv, yv) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		return ok && x.Instance == y.Instance
	case EnumCase:
		y, ok := b.(EnumCase)
		return ok && x.EnumName == y.EnumName && x.CaseName == y.CaseName
	case *Closure:
		y, ok := b.(*Closure)
		return ok && x == y
	case *Fiber:
		y, ok := b.(*Fiber)
		return ok && x == y
	case *Generator:
		y, ok := b.(*Generator)
		return ok && x == y
	default:
		return false
	}
}

// LooseEqual implements `==` per spec.md §4.3.
func LooseEqual(a, b Value) bool {
	if _, ok := a.(Null); ok {
		if _, ok := b.(Null); ok {
			return true
		}
	}
	if _, ok := b.(Null); ok {
		if _, ok := a.(Null); ok {
			return true
		}
	}
	if _, ok := a.(Bool); ok {
		return ToBool(a) == ToBool(b)
	}
	if _, ok := b.(Bool); ok {
		return ToBool(a) == ToBool(b)
	}
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		case Str:
			if f, ok := IsNumericString(string(y)); ok {
				return float64(x) == f
			}
			return false
		}
	case Float:
		switch y := b.(type) {
		case Int:
			return float64(x) == float64(y)
		case Float:
			return x == y
		case Str:
			if f, ok := IsNumericString(string(y)); ok {
				return float64(x) == f
			}
			return false
		}
	case Str:
		switch y := b.(type) {
		case Int, Float:
			return LooseEqual(y, x)
		case Str:
			return x == y
		}
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			xv, _ := x.Get(k)
			yv, yok := y.Get(k)
			if !yok || !LooseEqual(xv, yv) {
				return false
			}
		}
		return true
	}
	return StrictEqual(a, b)
}

// Compare implements spec.md §4.3's `<,>,<=,>=,<=>` ordering: compare by
// float coercion. Returns -1, 0, or 1.
func Compare(a, b Value) int {
	fa, fb := ToFloat(a), ToFloat(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}
