// Package evaluator implements the tree-walking statement/expression
// evaluator of spec.md §4.4, grounded on the teacher's internal/interp
// Interpreter: a mutable execution Context threaded through Eval calls,
// backed by the shared object.Registries and value package.
package evaluator

import (
	"io"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// BuiltinFunc is the hook signature spec.md §9 describes for the opaque
// built-in function table: `(name, [Value]) → Result<Value>`.
type BuiltinFunc func(args []value.Value) (value.Value, error)

// Evaluator walks an *ast.Program, executing it against a shared set of
// type registries and an output sink.
type Evaluator struct {
	Registries *object.Registries
	Output     io.Writer
	Builtins   map[string]BuiltinFunc

	env           *Environment
	currentObject *value.Object
	currentClass  string // declaring class, for self::/parent::/static:: resolution
	receiverClass string // runtime receiver class, for late static binding (static::)
	callStack     []string

	currentFiber     *fiberHandle
	currentFiberObj  *value.Object
	currentGenerator *value.Generator
}

// New creates an Evaluator with a fresh global environment over shared
// registries, writing script output to w.
func New(reg *object.Registries, w io.Writer, builtins map[string]BuiltinFunc) *Evaluator {
	return &Evaluator{
		Registries: reg,
		Output:     w,
		Builtins:   builtins,
		env:        NewEnvironment(),
	}
}

// Run executes a whole program's top-level statements in the global frame.
func (e *Evaluator) Run(prog *ast.Program) error {
	for _, stmt := range prog.Statements {
		sig := e.execStatement(stmt)
		switch sig.kind {
		case sigNone, sigBreak, sigContinue:
		case sigReturn:
			return nil
		case sigException:
			return &vherrors.Exception{Value: sig.exception}
		case sigFatal:
			return sig.fatal
		}
	}
	return nil
}

// raiseRuntime wraps a non-catchable runtime error (spec.md §7) as a fatal
// signal that bypasses try/catch.
func (e *Evaluator) raiseRuntime(err error) signal { return fatalSignal(err) }

// raise converts a thrown value into a catchable Exception signal, per
// spec.md §4.4's try/catch participation for user-thrown values.
func (e *Evaluator) raise(v value.Value) signal {
	switch x := v.(type) {
	case *value.Exception:
		return exceptionSignal(x)
	case *value.Object:
		msg := ""
		if mv, ok := x.Instance.GetProperty("message"); ok {
			msg = value.ToStr(mv)
		}
		return exceptionSignal(&value.Exception{ClassName: x.Instance.ClassName, Message: msg, Instance: x.Instance})
	default:
		return exceptionSignal(&value.Exception{ClassName: "Exception", Message: value.ToStr(v)})
	}
}

// CallValue invokes a callable Value from outside the evaluator's own
// expression evaluation, for built-ins (array_map, array_filter,
// array_reduce) that need to call back into user code.
func (e *Evaluator) CallValue(callee value.Value, args []value.Value) (value.Value, error) {
	v, sig := e.callValue(callee, args, nil)
	switch sig.kind {
	case sigFatal:
		return value.Null{}, sig.fatal
	case sigException:
		return value.Null{}, &vherrors.Exception{Value: sig.exception}
	default:
		return v, nil
	}
}

func (e *Evaluator) writeOutput(s string) {
	if e.Output != nil {
		io.WriteString(e.Output, s)
	}
}

// runtimeErr is a convenience constructor matching vherrors.RuntimeError.
func runtimeErr(kind vherrors.Kind, format string, args ...any) *vherrors.RuntimeError {
	return vherrors.NewRuntimeError(kind, format, args...)
}
