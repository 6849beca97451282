package bytecode

import (
	"io"

	"github.com/leocavalcante/vhp/internal/builtins"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// VM executes a compiled Program. Each vhp-level call runs as a nested Go
// call (runFrame calling invoke calling runFrame again), grounded on the
// teacher's bytecode.VM dispatch loop but simplified to ride Go's own call
// stack for call nesting; only the operand stack within one frame is an
// explicit slice.
type VM struct {
	prog       *Program
	Registries *object.Registries
	Output     io.Writer
	Builtins   map[string]builtins.Func

	globals map[string]value.Value

	// Exactly one of these is non-nil while control sits inside a suspended
	// fiber/generator's goroutine, restored around every channel handoff —
	// the same single-field save/restore discipline as the tree-walking
	// evaluator's currentFiber/currentGenerator, since the channel handoff
	// guarantees only one side ever runs at once.
	currentFiber     *vmFiberHandle
	currentFiberObj  *value.Object
	currentGenerator *vmGeneratorHandle
}

// NewVM constructs a VM ready to run prog's Main function.
func NewVM(prog *Program, w io.Writer, blt map[string]builtins.Func) *VM {
	return &VM{
		prog:       prog,
		Registries: prog.Registries,
		Output:     w,
		Builtins:   blt,
		globals:    map[string]value.Value{},
	}
}

// tryHandler is one active try region: the operand-stack depth to unwind to
// and the instruction to jump to (the dispatch stub compileTry emits) when a
// thrown value reaches this frame while the handler is active.
type tryHandler struct {
	stackDepth int
	dispatchPC int
}

// iterState drives one active foreach, over either an Array snapshot or a
// Generator handle; Array.Keys() is captured once at OpIterInit so mutating
// the array mid-loop does not reorder or skip entries.
type iterState struct {
	keys []value.ArrayKey
	arr  *value.Array
	pos  int
	gen  *value.Generator
}

// frame is one activation record: its compiled Function, instruction
// pointer, local-variable slots, its own operand stack, and its active try
// handlers. An unset local slot is the Go zero value nil (never a
// value.Value, since only the value package may implement that interface),
// which distinguishes "never supplied/assigned" from an explicit Null for
// OpLoadLocalSupplied's default-value prologue.
type frame struct {
	fn     *Function
	ip     int
	locals []value.Value
	stack  []value.Value
	iters  []*iterState

	handlers []tryHandler
	// recvClass is the runtime receiver class for late static binding
	// (`static::`), set at call time from the caller's resolved receiver.
	recvClass string
}

func newFrame(fn *Function) *frame {
	return &frame{fn: fn, locals: make([]value.Value, fn.NumLocals), iters: make([]*iterState, fn.NumIters)}
}

func (fr *frame) push(v value.Value) { fr.stack = append(fr.stack, v) }

func (fr *frame) pop() value.Value {
	n := len(fr.stack) - 1
	v := fr.stack[n]
	fr.stack = fr.stack[:n]
	return v
}

func (fr *frame) peek() value.Value { return fr.stack[len(fr.stack)-1] }

// popN pops n values off the stack and returns them in their original
// left-to-right push order (the stack pops last-pushed-first).
func (fr *frame) popN(n int) []value.Value {
	start := len(fr.stack) - n
	out := append([]value.Value(nil), fr.stack[start:]...)
	fr.stack = fr.stack[:start]
	return out
}

// loadLocal reads a local slot, translating an unset Go-nil slot to Null —
// the read-side counterpart of OpLoadLocalSupplied's raw nil check, used by
// every opcode that treats locals as ordinary PHP variables.
func (fr *frame) loadLocal(i int) value.Value {
	if v := fr.locals[i]; v != nil {
		return v
	}
	return value.Null{}
}

func classChain(reg *object.Registries, className string) []*object.ClassDefinition {
	var chain []*object.ClassDefinition
	cur := className
	for cur != "" {
		c, ok := reg.LookupClass(cur)
		if !ok {
			break
		}
		chain = append(chain, c)
		cur = c.Parent
	}
	return chain
}

// raiseValue converts an arbitrary thrown value into the catchable Exception
// record try/catch dispatch matches against, mirroring evaluator.go's raise.
func raiseValue(v value.Value) *value.Exception {
	switch x := v.(type) {
	case *value.Exception:
		return x
	case *value.Object:
		msg := ""
		if mv, ok := x.Instance.GetProperty("message"); ok {
			msg = value.ToStr(mv)
		}
		return &value.Exception{ClassName: x.Instance.ClassName, Message: msg, Instance: x.Instance}
	default:
		return &value.Exception{ClassName: "Exception", Message: value.ToStr(v)}
	}
}

// exceptionValue is the inverse binding step: what a catch clause's variable
// actually holds, mirroring evaluator/statements.go's exceptionValue.
func exceptionValue(exc *value.Exception) value.Value {
	if exc.Instance != nil {
		return value.NewObject(exc.Instance)
	}
	return exc
}

func catchMatches(reg *object.Registries, types []string, exc *value.Exception) bool {
	for _, t := range types {
		if reg.IsSubclassOf(exc.ClassName, t) || t == "Throwable" || t == "Exception" {
			return true
		}
	}
	return false
}

func runtimeErr(kind vherrors.Kind, format string, args ...any) *vherrors.RuntimeError {
	return vherrors.NewRuntimeError(kind, format, args...)
}
