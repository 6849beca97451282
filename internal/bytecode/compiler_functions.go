package bytecode

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
)

// compileFunctionDecl compiles a top-level free function, grounded on
// evaluator/calls.go's callUserFunction.
func (c *compiler) compileFunctionDecl(fn *ast.FunctionDecl) (*Function, error) {
	fc := newFuncCompiler(c, fn.Name, fn.Params)
	fc.compileParamDefaults(fn.Params)
	fc.compileStmts(fn.Body)
	fc.emit(OpReturnNull)
	fc.fn.IsGenerator = containsYield(fn.Body)
	fc.fn.LocalNames = fc.locals
	return fc.fn, nil
}

// compileMethodDecl compiles one method body. "this" is reserved as an
// ordinary named local (never a declared parameter), which the VM's Go-level
// call-setup code seeds with the receiver before the body runs — the same
// binding evaluator/calls.go's invokeMethod now performs via
// newEnv.Set("this", obj), letting both `$this` and the bare `self`
// identifier compile to a plain OpLoadLocal.
func (c *compiler) compileMethodDecl(className string, m *ast.MethodDecl) (*Function, error) {
	fc := newFuncCompiler(c, className+"::"+m.Name, m.Params)
	fc.declClass = className
	fc.localSlot("this")
	if m.Name == "__construct" {
		fc.compilePromotedParams(m.Params)
	}
	fc.compileParamDefaults(m.Params)
	fc.compileStmts(m.Body)
	fc.emit(OpReturnNull)
	fc.fn.IsGenerator = containsYield(m.Body)
	fc.fn.LocalNames = fc.locals
	return fc.fn, nil
}

// compileMain compiles the top-level script body into the program's entry
// Function, exactly like any other function but with no parameters and no
// "this" slot.
func (c *compiler) compileMain(stmts []ast.Statement) (*Function, error) {
	fc := newFuncCompiler(c, "<main>", nil)
	fc.compileStmts(stmts)
	fc.emit(OpReturnNull)
	fc.fn.LocalNames = fc.locals
	return fc.fn, nil
}

// compileParamDefaults emits the "if this slot was never supplied, compute
// and store the default" prologue for every optional parameter, in
// declaration order so a later default expression may reference an earlier
// parameter — grounded on evaluator/calls.go's callUserFunction, which fills
// in defaults in the new frame after binding, not inside bindParams itself.
func (fc *funcCompiler) compileParamDefaults(params []ast.Param) {
	for _, p := range params {
		if p.Default == nil || p.Variadic {
			continue
		}
		slot := fc.localSlot(p.Name)
		fc.emit(OpLoadLocalSupplied, slot)
		skip := fc.emit(OpJumpIfTrue, 0)
		fc.compileExpr(p.Default)
		fc.emit(OpPopStore, slot)
		fc.patch(skip, len(fc.fn.Instructions))
	}
}

// compilePromotedParams emits `$this->name = $name` at the start of the
// constructor for every constructor-promoted parameter, the compiled
// counterpart of evaluator/objects.go's bindPromotedParams; the parser does
// not add this assignment to the constructor body.
func (fc *funcCompiler) compilePromotedParams(params []ast.Param) {
	for _, p := range params {
		if p.Visibility == "" {
			continue
		}
		fc.emit(OpLoadLocal, fc.localSlot("this"))
		fc.emit(OpLoadLocal, fc.localSlot(p.Name))
		fc.emit(OpSetProp, fc.fn.addConst(p.Name))
		fc.emit(OpPop)
	}
}

// compilePropertyDefaults compiles each class's property default-value
// expressions into tiny helper Functions keyed "<propdefault>::Class::prop",
// which the VM's instantiate() calls (root-first along the parent chain, so
// a child's own declaration overrides an inherited one) the same way
// evaluator/objects.go's evalNew walks classChain.
func (c *compiler) compilePropertyDefaults(cls *object.ClassDefinition) error {
	for _, p := range cls.Properties {
		if p.Default == nil {
			continue
		}
		name := "<propdefault>::" + cls.Name + "::" + p.Name
		fc := newFuncCompiler(c, name, nil)
		fc.declClass = cls.Name
		fc.compileExpr(p.Default)
		fc.emit(OpReturn)
		fc.fn.LocalNames = fc.locals
		c.prog.Functions[lower(name)] = fc.fn
	}
	return nil
}

// compileConstHelpers compiles each class constant expression into a tiny
// helper Function keyed "<classconst>::Class::NAME", which OpGetStatic calls
// fresh on every read rather than caching the result, mirroring
// evaluator/objects.go's evalStaticAccess re-evaluating cls.Consts[name] on
// every access.
func (c *compiler) compileConstHelpers(className string, consts map[string]ast.Expression) {
	for name, expr := range consts {
		key := "<classconst>::" + className + "::" + name
		fc := newFuncCompiler(c, key, nil)
		fc.declClass = className
		fc.compileExpr(expr)
		fc.emit(OpReturn)
		fc.fn.LocalNames = fc.locals
		c.prog.Functions[lower(key)] = fc.fn
	}
}

// compileEnumCaseHelpers compiles each enum case's backing-value expression
// (if any) the same way, keyed "<enumcase>::Enum::CASE".
func (c *compiler) compileEnumCaseHelpers(enumName string, cases []object.EnumCaseDef) {
	for _, cs := range cases {
		if cs.Value == nil {
			continue
		}
		key := "<enumcase>::" + enumName + "::" + cs.Name
		fc := newFuncCompiler(c, key, nil)
		fc.compileExpr(cs.Value)
		fc.emit(OpReturn)
		fc.fn.LocalNames = fc.locals
		c.prog.Functions[lower(key)] = fc.fn
	}
}

// compileFunctionLiteral compiles a closure or arrow function body as its
// own Function, registers it under a synthetic name, then emits the
// capture-staging/OpMakeClosure sequence — grounded on
// evaluator/calls.go's evalFunctionLiteral: arrow functions auto-capture
// every variable visible in the enclosing scope by value (approximated here
// by every local the enclosing function has declared up to this point, in
// place of evalFunctionLiteral's runtime env.All() snapshot), while a plain
// function literal only captures its explicit `use (...)` list.
func (fc *funcCompiler) compileFunctionLiteral(x *ast.FunctionLiteral) {
	name := fc.c.nextClosureName()
	inner := newFuncCompiler(fc.c, name, x.Params)
	inner.declClass = fc.declClass
	inner.localSlot("this")
	inner.compileParamDefaults(x.Params)
	if x.ArrowBody != nil {
		inner.compileExpr(x.ArrowBody)
		inner.emit(OpReturn)
	} else {
		inner.compileStmts(x.Body)
		inner.emit(OpReturnNull)
	}
	inner.fn.IsGenerator = x.ArrowBody == nil && containsYield(x.Body)
	inner.fn.LocalNames = inner.locals
	fc.c.prog.Functions[lower(name)] = inner.fn

	spec := &closureSpec{FnName: name}
	if x.ArrowBody != nil {
		for capName := range fc.locals {
			spec.CaptureNames = append(spec.CaptureNames, capName)
			fc.compileLoadVariable(capName)
		}
	} else {
		// By-ref captures (x.UsesByRef) snapshot the current value same as a
		// by-value capture here; true aliasing would need a boxed cell shared
		// between frames, which this VM does not model.
		for _, capName := range x.Uses {
			spec.CaptureNames = append(spec.CaptureNames, capName)
			fc.compileLoadVariable(capName)
		}
	}
	spec.BindThis = fc.declClass != "" && !x.IsStatic
	fc.emit(OpMakeClosure, fc.fn.addConst(spec))
}

// containsYield reports whether stmts contains a `yield`/`yield from`
// anywhere except inside a nested function literal, mirroring
// evaluator/generators.go's containsYield: a function containing yield
// compiles to a generator-producing Function instead of one that runs
// eagerly to completion.
func containsYield(stmts []ast.Statement) bool {
	for _, s := range stmts {
		if stmtContainsYield(s) {
			return true
		}
	}
	return false
}

func stmtContainsYield(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return exprContainsYield(s.Expr)
	case *ast.Echo:
		for _, v := range s.Values {
			if exprContainsYield(v) {
				return true
			}
		}
	case *ast.Block:
		return containsYield(s.Statements)
	case *ast.If:
		if exprContainsYield(s.Cond) || stmtContainsYield(s.Then) {
			return true
		}
		for _, ei := range s.ElseIfs {
			if exprContainsYield(ei.Cond) || stmtContainsYield(ei.Body) {
				return true
			}
		}
		if s.Else != nil {
			return stmtContainsYield(s.Else)
		}
	case *ast.While:
		return exprContainsYield(s.Cond) || stmtContainsYield(s.Body)
	case *ast.DoWhile:
		return exprContainsYield(s.Cond) || stmtContainsYield(s.Body)
	case *ast.For:
		for _, e := range s.Init {
			if exprContainsYield(e) {
				return true
			}
		}
		if s.Cond != nil && exprContainsYield(s.Cond) {
			return true
		}
		for _, e := range s.Update {
			if exprContainsYield(e) {
				return true
			}
		}
		return stmtContainsYield(s.Body)
	case *ast.Foreach:
		return exprContainsYield(s.Collection) || stmtContainsYield(s.Body)
	case *ast.Switch:
		for _, cse := range s.Cases {
			for _, st := range cse.Statements {
				if stmtContainsYield(st) {
					return true
				}
			}
		}
	case *ast.Try:
		if containsYield(s.Body) {
			return true
		}
		for _, cc := range s.Catches {
			if containsYield(cc.Body) {
				return true
			}
		}
		return containsYield(s.Finally)
	case *ast.Return:
		return s.Value != nil && exprContainsYield(s.Value)
	case *ast.Throw:
		return exprContainsYield(s.Value)
	}
	return false
}

func exprContainsYield(expr ast.Expression) bool {
	switch x := expr.(type) {
	case *ast.Yield, *ast.YieldFrom:
		return true
	case *ast.Assign:
		return exprContainsYield(x.Target) || exprContainsYield(x.Value)
	case *ast.Infix:
		return exprContainsYield(x.Left) || exprContainsYield(x.Right)
	case *ast.Prefix:
		return exprContainsYield(x.Right)
	case *ast.Postfix:
		return exprContainsYield(x.Left)
	case *ast.Ternary:
		return exprContainsYield(x.Cond) || (x.Then != nil && exprContainsYield(x.Then)) || exprContainsYield(x.Else)
	case *ast.Index:
		return exprContainsYield(x.Left) || (x.Index != nil && exprContainsYield(x.Index))
	case *ast.PropertyAccess:
		return exprContainsYield(x.Object)
	case *ast.Call:
		for _, a := range x.Args {
			if exprContainsYield(a.Value) {
				return true
			}
		}
	case *ast.MethodCall:
		if exprContainsYield(x.Object) {
			return true
		}
		for _, a := range x.Args {
			if exprContainsYield(a.Value) {
				return true
			}
		}
	case *ast.StaticCall:
		for _, a := range x.Args {
			if exprContainsYield(a.Value) {
				return true
			}
		}
	case *ast.ArrayLiteral:
		for _, item := range x.Items {
			if exprContainsYield(item.Value) {
				return true
			}
		}
	case *ast.Match:
		if exprContainsYield(x.Subject) {
			return true
		}
		for _, arm := range x.Arms {
			if exprContainsYield(arm.Result) {
				return true
			}
		}
	case *ast.Pipe:
		return exprContainsYield(x.Left) || exprContainsYield(x.Right)
	case *ast.ThrowExpr:
		return exprContainsYield(x.Value)
	}
	return false
}
