package evaluator

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

func (e *Evaluator) evalPropertyAccess(x *ast.PropertyAccess) (value.Value, signal) {
	objVal, sig := e.eval(x.Object)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	name := x.Name
	if x.NameExpr != nil {
		nv, sig := e.eval(x.NameExpr)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		name = value.ToStr(nv)
	}
	// An enum case exposes its case name as ->name.
	if ec, ok := objVal.(value.EnumCase); ok && name == "name" {
		return value.Str(ec.CaseName), noSignal
	}
	obj, ok := objVal.(*value.Object)
	if !ok {
		if x.NullSafe {
			return value.Null{}, noSignal
		}
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, vherrors.MsgNotAnObject, name))
	}
	v, ok := obj.Instance.GetProperty(name)
	if !ok {
		return value.Null{}, noSignal
	}
	return v, noSignal
}

func (e *Evaluator) evalStaticAccess(x *ast.StaticAccess) (value.Value, signal) {
	className, ok := e.resolveClassRef(x.Class)
	if !ok {
		return value.Null{}, noSignal
	}
	if enumDef, ok := e.Registries.LookupEnum(className); ok {
		for _, c := range enumDef.Cases {
			if c.Name == x.Name {
				return e.enumCaseValue(enumDef, c)
			}
		}
	}
	if cls, ok := e.Registries.LookupClass(className); ok {
		if expr, ok := cls.Consts[x.Name]; ok {
			return e.eval(expr)
		}
	}
	if v, ok := e.env.Get("::" + className + "::" + x.Name); ok {
		return v, noSignal
	}
	return value.Null{}, noSignal
}

func (e *Evaluator) enumCaseValue(def *object.EnumDefinition, c object.EnumCaseDef) (value.Value, signal) {
	ec := value.EnumCase{EnumName: def.Name, CaseName: c.Name}
	if c.Value != nil {
		v, sig := e.eval(c.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		ec.BackingValue = v
	}
	return ec, noSignal
}

// enumCases implements `Name::cases()`.
func (e *Evaluator) enumCases(className string) (value.Value, signal, bool) {
	def, ok := e.Registries.LookupEnum(className)
	if !ok {
		return value.Null{}, noSignal, false
	}
	arr := value.NewArray()
	for _, c := range def.Cases {
		v, sig := e.enumCaseValue(def, c)
		if !sig.isNone() {
			return value.Null{}, sig, true
		}
		arr.Append(v)
	}
	return arr, noSignal, true
}

// enumFrom implements `Name::from(v)`/`Name::tryFrom(v)`.
func (e *Evaluator) enumFrom(className string, args []value.Value, isTry bool) (value.Value, signal, bool) {
	def, ok := e.Registries.LookupEnum(className)
	if !ok {
		return value.Null{}, noSignal, false
	}
	if len(args) == 0 {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindArgument, vherrors.MsgMissingArgument, "value")), true
	}
	target := args[0]
	for _, c := range def.Cases {
		v, sig := e.enumCaseValue(def, c)
		if !sig.isNone() {
			return value.Null{}, sig, true
		}
		ec := v.(value.EnumCase)
		if ec.BackingValue != nil && value.StrictEqual(ec.BackingValue, target) {
			return ec, noSignal, true
		}
	}
	if isTry {
		return value.Null{}, noSignal, true
	}
	return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, "%s is not a valid backing value for enum %s", value.ToStr(target), className)), true
}

// evalNew implements spec.md §4.5's eval_new.
func (e *Evaluator) evalNew(x *ast.New) (value.Value, signal) {
	className, ok := e.resolveClassRef(x.Class)
	if !ok {
		return value.Null{}, noSignal
	}
	if className == "Fiber" {
		return e.evalNewFiber(x.Args)
	}
	cls, ok := e.Registries.LookupClass(className)
	if !ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindUndefined, vherrors.MsgUndefinedClass, className))
	}
	if cls.Abstract {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindStructural, vherrors.MsgAbstractNew, className))
	}
	inst := value.NewObjectInstance(className)
	inst.Interfaces = cls.Interfaces

	// Walk the parent chain root-first, so a child's own property
	// declarations override a same-named parent default.
	chain := classChain(e.Registries, className)
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		for _, p := range c.Properties {
			var dv value.Value = value.Null{}
			if p.Default != nil {
				v, sig := e.eval(p.Default)
				if !sig.isNone() {
					return value.Null{}, sig
				}
				dv = v
			}
			inst.SetProperty(p.Name, dv)
			if p.Readonly {
				inst.ReadonlyProperties[p.Name] = true
			}
		}
	}

	positional, named, sig := e.evalArgs(x.Args)
	if !sig.isNone() {
		return value.Null{}, sig
	}

	obj := value.NewObject(inst)
	if ctor, declClass, ok := e.Registries.LookupMethod(className, "__construct"); ok {
		e.bindPromotedParams(ctor.Params, inst, positional, named)
		savedObj, savedClass, savedRecv := e.currentObject, e.currentClass, e.receiverClass
		e.currentObject = obj
		e.currentClass = declClass
		e.receiverClass = className
		ctorEnv := NewEnvironment()
		ctorEnv.Set("this", obj)
		_, sig := e.callUserFunction(ctor.Params, ctor.Body, positional, named, "__construct", ctorEnv)
		e.currentObject, e.currentClass, e.receiverClass = savedObj, savedClass, savedRecv
		if !sig.isNone() {
			return value.Null{}, sig
		}
	}

	for name := range inst.ReadonlyProperties {
		if _, ok := inst.GetProperty(name); ok {
			inst.MarkInitialized(name)
		}
	}
	if cls.Readonly {
		for _, name := range inst.PropertyOrder() {
			inst.ReadonlyProperties[name] = true
			inst.MarkInitialized(name)
		}
	}
	return obj, noSignal
}

// bindPromotedParams performs constructor property promotion (spec.md
// §4.2's "promoted property") before the constructor body runs: each param
// with a visibility modifier becomes a property holding the bound argument
// (or the param's default), the effect of a `$this->name = $name` at the
// start of the body; the parser does not add that assignment itself.
func (e *Evaluator) bindPromotedParams(params []ast.Param, inst *value.ObjectInstance, positional []value.Value, named map[string]value.Value) {
	locals, _ := bindParams(params, positional, named)
	for _, p := range params {
		if p.Visibility == "" {
			continue
		}
		v, ok := locals[p.Name]
		if !ok && p.Default != nil {
			if dv, sig := e.eval(p.Default); sig.isNone() {
				v, ok = dv, true
			}
		}
		if ok {
			inst.SetProperty(p.Name, v)
		} else if _, exists := inst.GetProperty(p.Name); !exists {
			inst.SetProperty(p.Name, value.Null{})
		}
		if p.Readonly {
			inst.ReadonlyProperties[p.Name] = true
		}
	}
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

func (e *Evaluator) evalClone(x *ast.Clone) (value.Value, signal) {
	v, sig := e.eval(x.Value)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return v, noSignal
	}
	cloned := value.NewObject(obj.Instance.CloneInstance())
	for _, item := range x.With {
		id, ok := item.Key.(*ast.Identifier)
		if !ok {
			continue
		}
		wv, sig := e.eval(item.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		if !cloned.Instance.CanWriteReadonly(id.Name) {
			return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindReadonly, vherrors.MsgReadonlyViolation, cloned.Instance.ClassName, id.Name))
		}
		cloned.Instance.SetProperty(id.Name, wv)
		cloned.Instance.MarkInitialized(id.Name)
	}
	return cloned, noSignal
}
