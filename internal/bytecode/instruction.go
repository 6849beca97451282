// Package bytecode implements the stack-based compiler and virtual machine
// of spec.md §4.6, grounded on the teacher's internal/bytecode package: a
// compiled CompiledFunction per user function/method/top-level script,
// executed by a register-less VM sharing the value package with the
// tree-walking evaluator. spec.md explicitly marks its opcode set
// "illustrative, non-normative", so this package simplifies the teacher's
// packed 32-bit [op|A|B] instruction encoding down to a slice of
// `struct{ Op OpCode; A, B int }`.
package bytecode

// OpCode identifies one VM instruction.
type OpCode byte

const (
	OpLoadConst OpCode = iota // push constants[A]
	OpLoadNull                // push Null
	OpLoadTrue                // push Bool(true)
	OpLoadFalse               // push Bool(false)

	OpLoadLocal  // push locals[A]
	OpStoreLocal // locals[A] = peek(); stack unchanged
	OpPopStore   // locals[A] = pop()
	// OpLoadLocalSupplied backs the default-value prologue: an unbound
	// optional parameter's slot is left as a Go nil interface (never a
	// value.Value, since only the value package may implement that
	// interface), distinguishing "no argument given" from an explicit null.
	OpLoadLocalSupplied // push Bool(locals[A] != nil)

	OpLoadGlobal  // push globals[constants[A].(string)]
	OpStoreGlobal // globals[constants[A].(string)] = peek(); stack unchanged

	OpNewArray    // push a fresh empty Array
	OpArrayAppend // arr=stack[-2]; arr.Append(pop())
	OpArraySet    // arr=stack[-3]; k=pop(); v=pop(); arr.Set(NormalizeKey(k), v)
	OpArraySpread // src=pop(); arr=stack top (peeked); merge src's entries into arr
	OpIndexGet    // v=pop(); c=pop(); push c[v]
	// Container/key are always pushed before the value; these pop in the
	// reverse order and push the stored value back.
	OpIndexSet         // v=pop(); k=pop(); c=pop(); c[k]=v; push v
	OpArrayAppendAssign // v=pop(); arr=pop(); arr.Append(v); push v

	OpBinOp       // apply constants[A].(string) operator to top two stack values
	OpUnary       // v=pop(); push applyUnary(constants[A].(string), v) — covers !, -, +
	OpIncDecLocal // locals[A] = locals[A] + constants[B].(int64); pushes the new value (stack already holds the old value below it)
	OpIncDec      // v=pop(); push incDec(v, constants[A].(int64)) — the non-local-only form, used for index/property/static-property targets

	OpJump        // ip = A
	OpJumpIfFalse // if !truthy(pop()) { ip = A }
	OpJumpIfTrue  // if truthy(pop()) { ip = A }
	OpJumpIfNull  // if peek() is Null { ip = A }; stack unchanged either way

	// Calling convention: arguments are pushed left to right, then (for
	// method/static/dynamic calls) the receiver/class/callee, immediately
	// before the call opcode itself. constants[A] is always a *callSpec.
	OpCall       // pop spec.ArgCount args, call the named function
	OpCallValue  // pop spec.ArgCount args then the callee value; call dynamically
	OpCallMethod // pop spec.ArgCount args then the receiver object; call the named method
	OpCallStatic // pop spec.ArgCount args then a class-name Str; call the named static method
	OpReturn     // return pop() from the current frame
	OpReturnNull // return Null from the current frame

	// Class-name convention: the class name (a Str) is always pushed last,
	// immediately before the opcode, whether produced by a literal name, a
	// self/parent/static resolution, or an arbitrary expression.
	OpLoadStaticClass // push the current frame's runtime receiver class name

	OpNewObject // pop spec.ArgCount args (constants[A].(*callSpec)) then a class-name Str; instantiate
	OpGetProp   // obj=pop(); push obj.prop(constants[A])
	// obj/name are pushed before the value; v=pop() always comes first.
	OpSetProp    // v=pop(); obj=pop(); obj.prop(constants[A]) = v; push v
	OpGetPropDyn // name=pop(); obj=pop(); push obj.prop(ToStr(name))
	OpSetPropDyn // v=pop(); name=pop(); obj=pop(); obj.prop(ToStr(name)) = v; push v
	OpGetStatic  // class=pop().(Str); push Class::constants[A] (static prop, class const, or enum case)
	OpSetStatic  // v=pop(); class=pop().(Str); Class::constants[A] = v; push v
	OpInstanceOf // pop a class-name Str then the subject; push bool
	OpClone      // push shallow clone of popped object

	OpThrow     // throw popped value: unwind to the nearest handler's dispatch stub
	OpMatchFail // v=pop(); fatal "unhandled match case" error, non-catchable
	OpSetupTry  // push a handler{stackDepth: len(stack), dispatchPC: A} onto the frame
	OpPopTry    // pop the innermost handler (try body completed without throwing)
	OpExcIsType // exc=pop(); push Bool(exc's class matches constants[A].([]string)); the compiler OpDups exc first
	OpRethrow   // re-raise the in-flight exception on top of the stack at the next outer handler

	OpDup  // duplicate top of stack
	OpPop  // discard top of stack
	OpSwap // swap top two stack values
	OpEcho // write ToStr(pop()) to the program's output sink

	OpYield         // A=1 if an explicit key was pushed (stack: ..,value[,key]); suspend the owning generator, pushing the resumed value
	OpFiberSusp     // A=1 if an explicit value was pushed; suspend the owning fiber, pushing the resumed value
	OpFiberGetCurrent // push the currently running fiber's Object handle, or Null outside a fiber

	OpMakeClosure       // constants[A].(*closureSpec); pops len(CaptureNames) values, pushes *value.Closure
	OpMakeCallable      // obj=pop(); push &value.Closure{Bound: obj, Name: constants[A].(string)}
	OpMakeCallableStatic // class=pop().(Str); push &value.Closure{Class: class, Name: constants[A].(string)}

	OpIterInit // pop a collection (Array or Generator); store a fresh iterator at frame.iters[A]
	OpIterNext // iterator at frame.iters[A]; if exhausted jump to B; else advance and push key then value
)

// Instruction is one compiled bytecode op with a single integer operand; B
// is used only by the few opcodes that need a second one (OpIncDecLocal,
// OpIterNext).
type Instruction struct {
	Op OpCode
	A  int
	B  int
}
