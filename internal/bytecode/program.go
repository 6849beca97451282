package bytecode

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
)

// Function is a CompiledFunction per spec.md §4.6: one function, method, or
// the top-level script compiled to a flat instruction list over a private
// constant pool, grounded on the teacher's bytecode.Chunk.
type Function struct {
	Name         string
	Params       []ast.Param
	Instructions []Instruction
	Constants    []any
	NumLocals    int
	NumIters     int // foreach iterator slots, a separate namespace from locals
	IsGenerator  bool
	// ParamNames maps each declared parameter to its local slot, in
	// declaration order, for argument binding at call time.
	ParamNames []string
	// LocalNames is every named local's slot (params included), letting the
	// VM seed "this" and closure captures by name at call/invoke time without
	// a dedicated opcode for either.
	LocalNames map[string]int
}

// callSpec is the constant-pool payload for every call/new opcode: the
// callee's name (ignored by OpCallValue) plus how many argument values were
// pushed and, for named arguments, which trailing ones carry a parameter
// name instead of a plain position.
type callSpec struct {
	Name      string
	ArgCount  int
	NamedFrom int      // index within the pushed args where named args begin
	NamedKeys []string // parameter names for args[NamedFrom:], in push order
}

// closureSpec is the constant-pool payload for OpMakeClosure: which
// compiled function it wraps and which enclosing locals to snapshot into
// the closure's captured-variable map.
type closureSpec struct {
	FnName       string
	CaptureNames []string
	// BindThis requests that the VM bind the closure's Bound receiver to the
	// compiling function's own "this" local (a non-static closure literal
	// written inside a method), without the receiver ever touching the
	// value stack.
	BindThis bool
}

func newFunction(name string, params []ast.Param) *Function {
	return &Function{Name: name, Params: params}
}

func (f *Function) addConst(v any) int {
	f.Constants = append(f.Constants, v)
	return len(f.Constants) - 1
}

func (f *Function) emit(op OpCode, a ...int) int {
	ins := Instruction{Op: op}
	if len(a) > 0 {
		ins.A = a[0]
	}
	if len(a) > 1 {
		ins.B = a[1]
	}
	f.Instructions = append(f.Instructions, ins)
	return len(f.Instructions) - 1
}

// Program is a whole compiled unit: every user function and method plus the
// implicit top-level "main" function, sharing one set of type registries
// with the tree-walking evaluator.
type Program struct {
	Main       *Function
	Functions  map[string]*Function          // free functions, by lowercase name
	Methods    map[string]map[string]*Function // class (lowercase) -> method (lowercase) -> Function
	Registries *object.Registries
}
