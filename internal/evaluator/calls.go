package evaluator

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// evalArgs evaluates an argument list into positional values and named
// values, rejecting positional-after-named per spec.md §4.2.
func (e *Evaluator) evalArgs(args []ast.Argument) ([]value.Value, map[string]value.Value, signal) {
	var positional []value.Value
	named := map[string]value.Value{}
	sawNamed := false
	for _, a := range args {
		v, sig := e.eval(a.Value)
		if !sig.isNone() {
			return nil, nil, sig
		}
		if a.Name != "" {
			sawNamed = true
			named[a.Name] = v
			continue
		}
		if sawNamed {
			return nil, nil, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindArgument, vherrors.MsgPositionalAfterNamed))
		}
		positional = append(positional, v)
	}
	return positional, named, noSignal
}

// bindParams implements spec.md §9's pure binding function
// `(params, positional, named) -> (locals | Error)`.
func bindParams(params []ast.Param, positional []value.Value, named map[string]value.Value) (map[string]value.Value, error) {
	locals := map[string]value.Value{}
	used := map[string]bool{}
	pi := 0
	for _, p := range params {
		if p.Variadic {
			rest := value.NewArray()
			for ; pi < len(positional); pi++ {
				rest.Append(positional[pi])
			}
			locals[p.Name] = rest
			continue
		}
		if v, ok := named[p.Name]; ok {
			locals[p.Name] = v
			used[p.Name] = true
			if pi < len(positional) {
				pi++
			}
			continue
		}
		if pi < len(positional) {
			locals[p.Name] = positional[pi]
			pi++
			continue
		}
		if p.Default != nil {
			// Defaults are evaluated by the caller in the callee's own
			// frame, since they may reference earlier params; handled in
			// callUserFunction below. Left unbound here so that
			// caller can fill it in.
			continue
		}
		return nil, vherrors.NewRuntimeError(vherrors.KindArgument, vherrors.MsgMissingArgument, p.Name)
	}
	for name := range named {
		if !used[name] {
			return nil, vherrors.NewRuntimeError(vherrors.KindArgument, vherrors.MsgUnknownNamedArg, name)
		}
	}
	return locals, nil
}

// callUserFunction implements spec.md §4.4's function-call binding and
// execution sequence, steps 3-7 (argument partition/reject happens in
// evalArgs before this is called).
func (e *Evaluator) callUserFunction(params []ast.Param, body []ast.Statement, positional []value.Value, named map[string]value.Value, name string, newEnv *Environment) (value.Value, signal) {
	locals, err := bindParams(params, positional, named)
	if err != nil {
		return value.Null{}, e.raiseRuntime(err)
	}
	savedEnv := e.env
	e.env = newEnv
	for k, v := range locals {
		e.env.Set(k, v)
	}
	// Fill in defaults for params that bindParams skipped (no positional,
	// no named, but has a default expression), evaluated in the new frame
	// so earlier parameters are visible to later defaults.
	for _, p := range params {
		if p.Variadic {
			if _, ok := e.env.Get(p.Name); !ok {
				e.env.Set(p.Name, value.NewArray())
			}
			continue
		}
		if _, ok := locals[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			dv, sig := e.eval(p.Default)
			if !sig.isNone() {
				e.env = savedEnv
				return value.Null{}, sig
			}
			e.env.Set(p.Name, dv)
		}
	}
	if name != "" {
		e.callStack = append(e.callStack, name)
	}
	sig := e.execBlock(body)
	if name != "" {
		e.callStack = e.callStack[:len(e.callStack)-1]
	}
	e.env = savedEnv
	switch sig.kind {
	case sigReturn:
		return sig.value, noSignal
	case sigNone, sigBreak, sigContinue:
		return value.Null{}, noSignal
	default:
		return value.Null{}, sig
	}
}

func (e *Evaluator) evalCall(x *ast.Call) (value.Value, signal) {
	positional, named, sig := e.evalArgs(x.Args)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	if id, ok := x.Callee.(*ast.Identifier); ok {
		return e.callNamed(id.Name, positional, named)
	}
	callee, sig := e.eval(x.Callee)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	return e.callValue(callee, positional, named)
}

// callNamed dispatches a call-by-name: user function, then builtin.
func (e *Evaluator) callNamed(name string, positional []value.Value, named map[string]value.Value) (value.Value, signal) {
	if fn, ok := e.Registries.LookupFunction(name); ok {
		if containsYield(fn.Body) {
			return e.startGenerator(fn.Params, fn.Body, positional, named, NewEnvironment()), noSignal
		}
		return e.callUserFunction(fn.Params, fn.Body, positional, named, fn.Name, NewEnvironment())
	}
	if b, ok := e.Builtins[lower(name)]; ok {
		v, err := b(positional)
		if err != nil {
			return value.Null{}, e.raiseRuntime(err)
		}
		return v, noSignal
	}
	return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, vherrors.MsgUndefinedFunction, name))
}

// callValue invokes a callable Value: a Closure, or a string naming a
// function (PHP's "variable functions").
func (e *Evaluator) callValue(callee value.Value, positional []value.Value, named map[string]value.Value) (value.Value, signal) {
	switch c := callee.(type) {
	case *value.Closure:
		return e.invokeClosure(c, positional, named)
	case value.Str:
		return e.callNamed(string(c), positional, named)
	}
	return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, vherrors.MsgNotCallable, callee.Type()))
}

func (e *Evaluator) invokeClosure(c *value.Closure, positional []value.Value, named map[string]value.Value) (value.Value, signal) {
	fn, ok := c.Callee.(*ast.FunctionLiteral)
	if !ok {
		return value.Null{}, noSignal
	}
	newEnv := NewEnvironment()
	for k, v := range c.Captured {
		newEnv.Set(k, v)
	}
	savedObj, savedClass, savedRecv := e.currentObject, e.currentClass, e.receiverClass
	if c.Bound != nil {
		e.currentObject = c.Bound
		e.currentClass = c.Class
		e.receiverClass = c.Bound.Instance.ClassName
		newEnv.Set("this", c.Bound)
	}
	if fn.ArrowBody != nil {
		savedEnv := e.env
		e.env = newEnv
		locals, err := bindParams(fn.Params, positional, named)
		if err != nil {
			e.env = savedEnv
			e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
			return value.Null{}, e.raiseRuntime(err)
		}
		for k, v := range locals {
			e.env.Set(k, v)
		}
		v, sig := e.eval(fn.ArrowBody)
		e.env = savedEnv
		e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
		return v, sig
	}
	if containsYield(fn.Body) {
		gen := e.startGenerator(fn.Params, fn.Body, positional, named, newEnv)
		e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
		return gen, noSignal
	}
	v, sig := e.callUserFunction(fn.Params, fn.Body, positional, named, c.Name, newEnv)
	e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
	return v, sig
}

func (e *Evaluator) evalFunctionLiteral(x *ast.FunctionLiteral) (value.Value, signal) {
	captured := map[string]value.Value{}
	if x.ArrowBody != nil {
		captured = e.env.All() // arrow functions auto-capture by value
	} else {
		for _, name := range x.Uses {
			v, _ := e.env.Get(name)
			captured[name] = v
		}
	}
	cl := &value.Closure{Captured: captured, Callee: x}
	if e.currentObject != nil && !x.IsStatic {
		cl.Bound = e.currentObject
		cl.Class = e.currentClass
	}
	return cl, noSignal
}

func (e *Evaluator) evalMethodCall(x *ast.MethodCall) (value.Value, signal) {
	objVal, sig := e.eval(x.Object)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	if gen, ok := objVal.(*value.Generator); ok {
		return e.callGeneratorMethod(gen, x.Method, x.Args)
	}
	obj, ok := objVal.(*value.Object)
	if !ok {
		if x.NullSafe {
			return value.Null{}, noSignal
		}
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, vherrors.MsgNotAnObject, x.Method))
	}
	if v, sig, handled := e.callFiberMethod(obj, x.Method, x.Args); handled {
		return v, sig
	}
	positional, named, sig := e.evalArgs(x.Args)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	return e.invokeMethod(obj, obj.Instance.ClassName, x.Method, positional, named, x.Object)
}

// callGeneratorMethod implements `$gen->current()/key()/next()/valid()/
// send()/getReturn()`.
func (e *Evaluator) callGeneratorMethod(gen *value.Generator, method string, args []ast.Argument) (value.Value, signal) {
	positional, _, sig := e.evalArgs(args)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	switch lower(method) {
	case "current":
		return gen.CurrentV, noSignal
	case "key":
		return gen.CurrentK, noSignal
	case "valid":
		return value.Bool(!gen.Done), noSignal
	case "next":
		e.generatorNext(gen, value.Null{})
		return value.Null{}, noSignal
	case "send":
		var v value.Value = value.Null{}
		if len(positional) > 0 {
			v = positional[0]
		}
		e.generatorNext(gen, v)
		return gen.CurrentV, noSignal
	case "getreturn":
		return gen.CurrentV, noSignal
	}
	return value.Null{}, noSignal
}

// invokeMethod resolves methodName through className's chain and executes
// it with $this and current_class bound to the *declaring* class, per
// spec.md §4.4's method-call semantics; after return, property mutations
// on current_object are already visible to every holder since Object
// wraps a shared *ObjectInstance pointer.
func (e *Evaluator) invokeMethod(obj *value.Object, className, methodName string, positional []value.Value, named map[string]value.Value, callSiteTarget ast.Expression) (value.Value, signal) {
	m, declClass, ok := e.Registries.LookupMethod(className, methodName)
	if !ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, vherrors.MsgUndefinedMethod, className, methodName))
	}
	savedObj, savedClass, savedRecv := e.currentObject, e.currentClass, e.receiverClass
	e.currentObject = obj
	e.currentClass = declClass
	e.receiverClass = obj.Instance.ClassName
	newEnv := NewEnvironment()
	newEnv.Set("this", obj)
	if containsYield(m.Body) {
		gen := e.startGenerator(m.Params, m.Body, positional, named, newEnv)
		e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
		return gen, noSignal
	}
	v, sig := e.callUserFunction(m.Params, m.Body, positional, named, methodName, newEnv)
	e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
	return v, sig
}

func (e *Evaluator) evalStaticCall(x *ast.StaticCall) (value.Value, signal) {
	positional, named, sig := e.evalArgs(x.Args)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	className, ok := e.resolveClassRef(x.Class)
	if !ok {
		return value.Null{}, noSignal
	}
	switch lower(x.Method) {
	case "cases":
		if v, sig, handled := e.enumCases(className); handled {
			return v, sig
		}
	case "from", "tryfrom":
		if v, sig, handled := e.enumFrom(className, positional, lower(x.Method) == "tryfrom"); handled {
			return v, sig
		}
	}
	m, declClass, ok := e.Registries.LookupMethod(className, x.Method)
	if !ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, vherrors.MsgUndefinedMethod, className, x.Method))
	}
	savedObj, savedClass, savedRecv := e.currentObject, e.currentClass, e.receiverClass
	e.currentClass = declClass
	if className != "" {
		e.receiverClass = className
	}
	v, sig := e.callUserFunction(m.Params, m.Body, positional, named, x.Method, NewEnvironment())
	e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
	return v, sig
}

// resolveClassRef resolves self/static/parent/an explicit class name to a
// canonical class name, per spec.md §4.4's method-resolution rules.
func (e *Evaluator) resolveClassRef(expr ast.Expression) (string, bool) {
	id, ok := expr.(*ast.Identifier)
	if !ok {
		return "", false
	}
	switch id.Name {
	case "self":
		return e.currentClass, e.currentClass != ""
	case "static":
		if e.receiverClass != "" {
			return e.receiverClass, true
		}
		return e.currentClass, e.currentClass != ""
	case "parent":
		if c, ok := e.Registries.LookupClass(e.currentClass); ok {
			return c.Parent, c.Parent != ""
		}
		return "", false
	default:
		return id.Name, true
	}
}

func (e *Evaluator) evalCallableFromFunc(x *ast.CallableFromFunc) (value.Value, signal) {
	if fn, ok := e.Registries.LookupFunction(x.Name); ok {
		return &value.Closure{Name: fn.Name, Callee: &ast.FunctionLiteral{Params: fn.Params, Body: fn.Body}}, noSignal
	}
	return &value.Closure{Name: x.Name}, noSignal
}

func (e *Evaluator) evalCallableFromMethod(x *ast.CallableFromMethod) (value.Value, signal) {
	objVal, sig := e.eval(x.Object)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	obj, ok := objVal.(*value.Object)
	if !ok {
		return value.Null{}, noSignal
	}
	m, declClass, ok := e.Registries.LookupMethod(obj.Instance.ClassName, x.Method)
	if !ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, vherrors.MsgUndefinedMethod, obj.Instance.ClassName, x.Method))
	}
	return &value.Closure{Name: x.Method, Bound: obj, Class: declClass, Callee: &ast.FunctionLiteral{Params: m.Params, Body: m.Body}}, noSignal
}

func (e *Evaluator) evalCallableFromStatic(x *ast.CallableFromStatic) (value.Value, signal) {
	className, ok := e.resolveClassRef(x.Class)
	if !ok {
		return value.Null{}, noSignal
	}
	m, declClass, ok := e.Registries.LookupMethod(className, x.Method)
	if !ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, vherrors.MsgUndefinedMethod, className, x.Method))
	}
	return &value.Closure{Name: x.Method, Class: declClass, Callee: &ast.FunctionLiteral{Params: m.Params, Body: m.Body}}, noSignal
}
