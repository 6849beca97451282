package bytecode

import (
	"fmt"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
)

// compileExpr lowers one expression so that, after it runs, exactly one
// value sits on top of the stack — grounded on evaluator/expressions.go's
// eval switch.
func (fc *funcCompiler) compileExpr(expr ast.Expression) {
	switch x := expr.(type) {
	case *ast.IntegerLiteral:
		fc.emit(OpLoadConst, fc.fn.addConst(value.Int(x.Value)))
	case *ast.FloatLiteral:
		fc.emit(OpLoadConst, fc.fn.addConst(value.Float(x.Value)))
	case *ast.StringLiteral:
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(x.Value)))
	case *ast.BoolLiteral:
		if x.Value {
			fc.emit(OpLoadTrue)
		} else {
			fc.emit(OpLoadFalse)
		}
	case *ast.NullLiteral:
		fc.emit(OpLoadNull)
	case *ast.Variable:
		fc.compileLoadVariable(x.Name)
	case *ast.Identifier:
		fc.compileIdentifier(x)
	case *ast.ArrayLiteral:
		fc.compileArrayLiteral(x)
	case *ast.Prefix:
		fc.compilePrefix(x)
	case *ast.Postfix:
		fc.compileIncDec(x.Left, x.Operator, false)
	case *ast.Infix:
		fc.compileInfix(x)
	case *ast.Assign:
		fc.compileAssign(x)
	case *ast.Ternary:
		fc.compileTernary(x)
	case *ast.Index:
		fc.compileIndex(x)
	case *ast.PropertyAccess:
		fc.compilePropertyAccess(x)
	case *ast.StaticAccess:
		fc.compileStaticAccess(x)
	case *ast.Call:
		fc.compileCall(x)
	case *ast.MethodCall:
		fc.compileMethodCall(x)
	case *ast.StaticCall:
		fc.compileStaticCall(x)
	case *ast.New:
		fc.compileNew(x)
	case *ast.Clone:
		fc.compileClone(x)
	case *ast.Match:
		fc.compileMatch(x)
	case *ast.ThrowExpr:
		fc.compileExpr(x.Value)
		fc.emit(OpThrow)
		fc.emit(OpLoadNull) // unreachable once OpThrow raises; keeps the stack balanced for callers expecting a value
	case *ast.FunctionLiteral:
		fc.compileFunctionLiteral(x)
	case *ast.Pipe:
		fc.compilePipe(x)
	case *ast.MagicConstant:
		fc.compileMagicConstant(x)
	case *ast.InstanceOf:
		fc.compileInstanceOf(x)
	case *ast.CallableFromFunc:
		fc.compileCallableFromFunc(x)
	case *ast.CallableFromMethod:
		fc.compileCallableFromMethod(x)
	case *ast.CallableFromStatic:
		fc.compileCallableFromStatic(x)
	case *ast.FiberSuspend:
		if x.Value != nil {
			fc.compileExpr(x.Value)
			fc.emit(OpFiberSusp, 1)
		} else {
			fc.emit(OpFiberSusp, 0)
		}
	case *ast.FiberGetCurrent:
		fc.emit(OpFiberGetCurrent)
	case *ast.Yield:
		if x.Value != nil {
			fc.compileExpr(x.Value)
		} else {
			fc.emit(OpLoadNull)
		}
		hasKey := 0
		if x.Key != nil {
			fc.compileExpr(x.Key)
			hasKey = 1
		}
		fc.emit(OpYield, hasKey)
	case *ast.YieldFrom:
		fc.compileYieldFrom(x)
	case *ast.Placeholder:
		fc.emit(OpLoadNull)
	default:
		fc.emit(OpLoadNull)
	}
}

func (fc *funcCompiler) compileLoadVariable(name string) {
	if fc.global[name] {
		fc.emit(OpLoadGlobal, fc.fn.addConst(name))
		return
	}
	fc.emit(OpLoadLocal, fc.localSlot(name))
}

func (fc *funcCompiler) compileStoreVariable(name string) {
	if fc.global[name] {
		fc.emit(OpStoreGlobal, fc.fn.addConst(name))
		return
	}
	fc.emit(OpStoreLocal, fc.localSlot(name))
}

// compileIdentifier mirrors evaluator.evalIdentifier: "self" resolves to the
// bound receiver (same slot $this is bound into at call time), the
// true/false/null spellings fold to their literal opcodes, and any other
// bare name is its own string per legacy PHP undefined-constant behavior.
func (fc *funcCompiler) compileIdentifier(x *ast.Identifier) {
	switch x.Name {
	case "self":
		fc.emit(OpLoadLocal, fc.localSlot("this"))
	case "true", "True", "TRUE":
		fc.emit(OpLoadTrue)
	case "false", "False", "FALSE":
		fc.emit(OpLoadFalse)
	case "null", "Null", "NULL":
		fc.emit(OpLoadNull)
	default:
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(x.Name)))
	}
}

func (fc *funcCompiler) compileArrayLiteral(x *ast.ArrayLiteral) {
	fc.emit(OpNewArray)
	for _, item := range x.Items {
		if item.Spread {
			fc.compileExpr(item.Value)
			fc.emit(OpArraySpread)
			continue
		}
		if item.Key != nil {
			fc.compileExpr(item.Value)
			fc.compileExpr(item.Key)
			fc.emit(OpArraySet)
		} else {
			fc.compileExpr(item.Value)
			fc.emit(OpArrayAppend)
		}
	}
}

func (fc *funcCompiler) compilePrefix(x *ast.Prefix) {
	if x.Operator == "++" || x.Operator == "--" {
		fc.compileIncDec(x.Right, x.Operator, true)
		return
	}
	fc.compileExpr(x.Right)
	fc.emit(OpUnary, fc.fn.addConst(x.Operator))
}

// compileIncDec implements `++`/`--` on any lvalue target, reading the old
// value, computing the new one, writing it back, and leaving whichever of
// old/new the prefix/postfix form calls for on the stack.
func (fc *funcCompiler) compileIncDec(target ast.Expression, op string, prefix bool) {
	delta := int64(1)
	if op == "--" {
		delta = -1
	}
	if v, ok := target.(*ast.Variable); ok && !fc.global[v.Name] {
		slot := fc.localSlot(v.Name)
		fc.emit(OpLoadLocal, slot)                           // stack: old
		fc.emit(OpIncDecLocal, slot, fc.fn.addConst(delta))   // stores old+delta into locals[slot]; stack: old, new
		if prefix {
			fc.emit(OpSwap) // stack: new, old
		}
		fc.emit(OpPop) // discard whichever of old/new the form doesn't want
		return
	}
	// Generic lvalue (index/property/static): compute incDec(old, delta) and
	// store it, matching evaluator.evalIncDec's read-compute-assignTo shape
	// without a dedicated local-only opcode.
	deltaConst := fc.fn.addConst(delta)
	fc.compileStoreTo(target, func() {
		fc.compileExpr(target)
		fc.emit(OpIncDec, deltaConst)
	})
	if !prefix {
		// compileStoreTo left the new value on the stack; postfix yields the
		// old one, recovered as new-delta (exact for Int/Float; matches the
		// common case evaluator.incDec covers).
		fc.emit(OpLoadConst, fc.fn.addConst(value.Int(delta)))
		fc.emit(OpBinOp, fc.fn.addConst("-"))
	}
}

func (fc *funcCompiler) compileInfix(x *ast.Infix) {
	if x.Operator == "&&" || x.Operator == "and" {
		fc.compileExpr(x.Left)
		fc.emit(OpDup)
		skip := fc.emit(OpJumpIfFalse, 0)
		fc.emit(OpPop)
		fc.compileExpr(x.Right)
		fc.patch(skip, len(fc.fn.Instructions))
		notConst := fc.fn.addConst("!")
		fc.emit(OpUnary, notConst)
		fc.emit(OpUnary, notConst) // coerce the short-circuited or evaluated operand to Bool
		return
	}
	if x.Operator == "||" || x.Operator == "or" {
		fc.compileExpr(x.Left)
		fc.emit(OpDup)
		skip := fc.emit(OpJumpIfTrue, 0)
		fc.emit(OpPop)
		fc.compileExpr(x.Right)
		fc.patch(skip, len(fc.fn.Instructions))
		notConst := fc.fn.addConst("!")
		fc.emit(OpUnary, notConst)
		fc.emit(OpUnary, notConst)
		return
	}
	fc.compileExpr(x.Left)
	fc.compileExpr(x.Right)
	fc.emit(OpBinOp, fc.fn.addConst(x.Operator))
}

func (fc *funcCompiler) compileAssign(x *ast.Assign) {
	switch x.Operator {
	case "=":
		fc.compileStoreTo(x.Target, func() { fc.compileExpr(x.Value) })
	case "??=":
		fc.compileExpr(x.Target)
		isNull := fc.emit(OpJumpIfNull, 0)
		skipAssign := fc.emit(OpJump, 0)
		fc.patch(isNull, len(fc.fn.Instructions))
		fc.emit(OpPop)
		fc.compileStoreTo(x.Target, func() { fc.compileExpr(x.Value) })
		fc.patch(skipAssign, len(fc.fn.Instructions))
	default:
		op := x.Operator[:len(x.Operator)-1]
		fc.compileStoreTo(x.Target, func() {
			fc.compileExpr(x.Target)
			fc.compileExpr(x.Value)
			fc.emit(OpBinOp, fc.fn.addConst(op))
		})
	}
}

// compileStoreTo evaluates target's container/key (if any), invokes
// pushValue to push the value to store, then emits the matching store
// opcode, leaving exactly the stored value on the stack as the assignment
// expression's result — grounded on evaluator/assign.go's assignTo, but
// ordered so the compiled container/key always precede the value, which the
// store opcodes consistently pop last-in-first-out (value, then key, then
// container).
func (fc *funcCompiler) compileStoreTo(target ast.Expression, pushValue func()) {
	switch t := target.(type) {
	case *ast.Variable:
		pushValue()
		fc.compileStoreVariable(t.Name)
	case *ast.Index:
		fc.compileExpr(t.Left)
		if t.Index == nil {
			pushValue()
			fc.emit(OpArrayAppendAssign)
			return
		}
		fc.compileExpr(t.Index)
		pushValue()
		fc.emit(OpIndexSet)
	case *ast.PropertyAccess:
		fc.compileExpr(t.Object)
		if t.NameExpr != nil {
			fc.compileExpr(t.NameExpr)
			pushValue()
			fc.emit(OpSetPropDyn)
		} else {
			pushValue()
			fc.emit(OpSetProp, fc.fn.addConst(t.Name))
		}
	case *ast.StaticAccess:
		id, _ := t.Class.(*ast.Identifier)
		name := ""
		if id != nil {
			name = id.Name
		}
		pushValue()
		fc.emit(OpStoreGlobal, fc.fn.addConst("::"+name+"::"+t.Name))
	default:
		pushValue()
	}
}

func (fc *funcCompiler) compileTernary(x *ast.Ternary) {
	fc.compileExpr(x.Cond)
	if x.Then == nil {
		fc.emit(OpDup)
		skip := fc.emit(OpJumpIfTrue, 0)
		fc.emit(OpPop)
		fc.compileExpr(x.Else)
		fc.patch(skip, len(fc.fn.Instructions))
		return
	}
	elseJump := fc.emit(OpJumpIfFalse, 0)
	fc.compileExpr(x.Then)
	endJump := fc.emit(OpJump, 0)
	fc.patch(elseJump, len(fc.fn.Instructions))
	fc.compileExpr(x.Else)
	fc.patch(endJump, len(fc.fn.Instructions))
}

func (fc *funcCompiler) compileIndex(x *ast.Index) {
	fc.compileExpr(x.Left)
	fc.compileExpr(x.Index)
	fc.emit(OpIndexGet)
}

func (fc *funcCompiler) compilePropertyAccess(x *ast.PropertyAccess) {
	fc.compileExpr(x.Object)
	if x.NameExpr != nil {
		fc.compileExpr(x.NameExpr)
		fc.emit(OpGetPropDyn)
		return
	}
	if x.NullSafe {
		isNull := fc.emit(OpJumpIfNull, 0)
		fc.emit(OpGetProp, fc.fn.addConst(x.Name))
		end := fc.emit(OpJump, 0)
		fc.patch(isNull, len(fc.fn.Instructions))
		fc.emit(OpPop)
		fc.emit(OpLoadNull)
		fc.patch(end, len(fc.fn.Instructions))
		return
	}
	fc.emit(OpGetProp, fc.fn.addConst(x.Name))
}

// compileStaticAccess resolves self/static/parent/a literal class name at
// compile time wherever possible, since resolveClassRef itself never
// supports more than those forms (internal/evaluator/calls.go), then reads
// the member (enum case, class const, or synthetic static-property slot)
// through OpGetStatic.
func (fc *funcCompiler) compileStaticAccess(x *ast.StaticAccess) {
	fc.compileClassRef(x.Class)
	fc.emit(OpGetStatic, fc.fn.addConst(x.Name))
}

// compileClassRef pushes the resolved class name as a Str, per the uniform
// "class name is always a pushed Str" calling convention.
func (fc *funcCompiler) compileClassRef(expr ast.Expression) {
	id, ok := expr.(*ast.Identifier)
	if !ok {
		fc.compileExpr(expr)
		return
	}
	switch id.Name {
	case "self":
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(fc.declClass)))
	case "static":
		fc.emit(OpLoadStaticClass)
	case "parent":
		parent := ""
		if cls, ok := fc.c.reg.LookupClass(fc.declClass); ok {
			parent = cls.Parent
		}
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(parent)))
	default:
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(id.Name)))
	}
}

func (fc *funcCompiler) compileArgs(args []ast.Argument) *callSpec {
	spec := &callSpec{ArgCount: len(args)}
	sawNamed := false
	for i, a := range args {
		fc.compileExpr(a.Value)
		if a.Name != "" {
			if !sawNamed {
				spec.NamedFrom = i
				sawNamed = true
			}
			spec.NamedKeys = append(spec.NamedKeys, a.Name)
		}
	}
	if !sawNamed {
		spec.NamedFrom = len(args)
	}
	return spec
}

func (fc *funcCompiler) compileCall(x *ast.Call) {
	if id, ok := x.Callee.(*ast.Identifier); ok {
		spec := fc.compileArgs(x.Args)
		spec.Name = id.Name
		fc.emit(OpCall, fc.fn.addConst(spec))
		return
	}
	spec := fc.compileArgs(x.Args)
	fc.compileExpr(x.Callee)
	fc.emit(OpCallValue, fc.fn.addConst(spec))
}

func (fc *funcCompiler) compileMethodCall(x *ast.MethodCall) {
	spec := fc.compileArgs(x.Args)
	spec.Name = x.Method
	fc.compileExpr(x.Object)
	if x.NullSafe {
		isNull := fc.emit(OpJumpIfNull, 0)
		fc.emit(OpCallMethod, fc.fn.addConst(spec))
		end := fc.emit(OpJump, 0)
		fc.patch(isNull, len(fc.fn.Instructions))
		fc.emit(OpPop) // the null receiver
		for i := 0; i < spec.ArgCount; i++ {
			fc.emit(OpPop)
		}
		fc.emit(OpLoadNull)
		fc.patch(end, len(fc.fn.Instructions))
		return
	}
	fc.emit(OpCallMethod, fc.fn.addConst(spec))
}

func (fc *funcCompiler) compileStaticCall(x *ast.StaticCall) {
	spec := fc.compileArgs(x.Args)
	spec.Name = x.Method
	fc.compileClassRef(x.Class)
	fc.emit(OpCallStatic, fc.fn.addConst(spec))
}

func (fc *funcCompiler) compileNew(x *ast.New) {
	spec := fc.compileArgs(x.Args)
	fc.compileClassRef(x.Class)
	fc.emit(OpNewObject, fc.fn.addConst(spec))
}

func (fc *funcCompiler) compileClone(x *ast.Clone) {
	fc.compileExpr(x.Value)
	fc.emit(OpClone)
	for _, item := range x.With {
		id, ok := item.Key.(*ast.Identifier)
		if !ok {
			continue
		}
		fc.emit(OpDup)
		fc.compileExpr(item.Value)
		fc.emit(OpSetProp, fc.fn.addConst(id.Name))
		fc.emit(OpPop) // discard OpSetProp's returned value, keep the original clone on top
	}
}

// compileMatch lowers `match` entirely at compile time: the subject is
// evaluated once into a hidden local, each arm's conditions are tested with
// strict equality, and falling off the end emits the non-catchable
// OpMatchFail per spec.md §4.4's "unhandled match case" rule.
func (fc *funcCompiler) compileMatch(x *ast.Match) {
	fc.compileExpr(x.Subject)
	subjSlot := fc.newHiddenLocal()
	fc.emit(OpPopStore, subjSlot)

	var endJumps []int
	for _, arm := range x.Arms {
		if arm.Conds == nil {
			fc.compileExpr(arm.Result)
			endJumps = append(endJumps, fc.emit(OpJump, 0))
			continue
		}
		var bodyJumps []int
		for _, cond := range arm.Conds {
			fc.emit(OpLoadLocal, subjSlot)
			fc.compileExpr(cond)
			fc.emit(OpBinOp, fc.fn.addConst("==="))
			bodyJumps = append(bodyJumps, fc.emit(OpJumpIfTrue, 0))
		}
		skipBody := fc.emit(OpJump, 0)
		fc.patchAll(bodyJumps, len(fc.fn.Instructions))
		fc.compileExpr(arm.Result)
		endJumps = append(endJumps, fc.emit(OpJump, 0))
		fc.patch(skipBody, len(fc.fn.Instructions))
	}
	fc.emit(OpLoadLocal, subjSlot)
	fc.emit(OpMatchFail)
	fc.patchAll(endJumps, len(fc.fn.Instructions))
}

func (fc *funcCompiler) compileMagicConstant(x *ast.MagicConstant) {
	switch x.Name {
	case "__CLASS__":
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(fc.declClass)))
	case "__FUNCTION__", "__METHOD__":
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str(fc.fnName)))
	default:
		fc.emit(OpLoadConst, fc.fn.addConst(value.Str("")))
	}
}

func (fc *funcCompiler) compileInstanceOf(x *ast.InstanceOf) {
	fc.compileExpr(x.Left)
	fc.compileClassRef(x.Class)
	fc.emit(OpInstanceOf)
}

func (fc *funcCompiler) compileCallableFromFunc(x *ast.CallableFromFunc) {
	spec := &closureSpec{FnName: x.Name}
	fc.emit(OpMakeClosure, fc.fn.addConst(spec))
}

func (fc *funcCompiler) compileCallableFromMethod(x *ast.CallableFromMethod) {
	fc.compileExpr(x.Object)
	fc.emit(OpMakeCallable, fc.fn.addConst(x.Method))
}

func (fc *funcCompiler) compileCallableFromStatic(x *ast.CallableFromStatic) {
	fc.compileClassRef(x.Class)
	fc.emit(OpMakeCallableStatic, fc.fn.addConst(x.Method))
}

// compilePipe lowers `lhs |> rhs` at compile time: lhs is staged into a
// uniquely-named hidden temp, substituted for a Placeholder argument (or
// prepended if none appears), then the rewritten call compiles normally —
// grounded on evaluator/match_pipe.go's substitutePipeArgs, replacing its
// runtime `precomputed` node with a compile-time temp-variable reference.
func (fc *funcCompiler) compilePipe(x *ast.Pipe) {
	fc.compileExpr(x.Left)
	fc.pipeN++
	tmpName := fmt.Sprintf("__pipe%d", fc.pipeN)
	fc.emit(OpPopStore, fc.localSlot(tmpName))
	tmpVar := &ast.Variable{Name: tmpName}

	switch rhs := x.Right.(type) {
	case *ast.Call:
		fc.compileCall(&ast.Call{Callee: rhs.Callee, Args: substitutePipeArgs(rhs.Args, tmpVar), ExprBase: rhs.ExprBase})
	case *ast.MethodCall:
		fc.compileMethodCall(&ast.MethodCall{Object: rhs.Object, Method: rhs.Method, Args: substitutePipeArgs(rhs.Args, tmpVar), NullSafe: rhs.NullSafe, ExprBase: rhs.ExprBase})
	case *ast.StaticCall:
		fc.compileStaticCall(&ast.StaticCall{Class: rhs.Class, Method: rhs.Method, Args: substitutePipeArgs(rhs.Args, tmpVar), ExprBase: rhs.ExprBase})
	default:
		fc.emit(OpLoadNull)
	}
}

func substitutePipeArgs(args []ast.Argument, lhs ast.Expression) []ast.Argument {
	out := make([]ast.Argument, 0, len(args)+1)
	found := false
	for _, a := range args {
		if _, ok := a.Value.(*ast.Placeholder); ok {
			out = append(out, ast.Argument{Name: a.Name, Value: lhs})
			found = true
			continue
		}
		out = append(out, a)
	}
	if !found {
		out = append([]ast.Argument{{Value: lhs}}, out...)
	}
	return out
}

// compileYieldFrom delegates to an inner generator/array, re-yielding each
// of its (key, value) pairs in turn — a plain foreach over the delegate
// whose body is itself a yield, reusing the ordinary foreach lowering.
func (fc *funcCompiler) compileYieldFrom(x *ast.YieldFrom) {
	keyVar := fmt.Sprintf("__yfk%d", fc.pipeN)
	valVar := fmt.Sprintf("__yfv%d", fc.pipeN)
	fc.pipeN++
	fc.compileForeach(&ast.Foreach{
		Collection: x.Value,
		KeyVar:     keyVar,
		ValueVar:   valVar,
		Body: &ast.ExpressionStatement{Expr: &ast.Yield{
			Key:   &ast.Variable{Name: keyVar},
			Value: &ast.Variable{Name: valVar},
		}},
	})
	fc.emit(OpLoadNull)
}
