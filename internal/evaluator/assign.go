package evaluator

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

func (e *Evaluator) evalAssign(x *ast.Assign) (value.Value, signal) {
	if x.Operator == "=" {
		v, sig := e.eval(x.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		if sig := e.assignTo(x.Target, v); !sig.isNone() {
			return value.Null{}, sig
		}
		return v, noSignal
	}
	if x.Operator == "??=" {
		cur, sig := e.eval(x.Target)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		if _, isNull := cur.(value.Null); !isNull {
			return cur, noSignal
		}
		v, sig := e.eval(x.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		if sig := e.assignTo(x.Target, v); !sig.isNone() {
			return value.Null{}, sig
		}
		return v, noSignal
	}
	// compound assignment: +=, -=, .=, etc. — not permitted on property
	// targets per spec.md §4.2.
	if _, ok := x.Target.(*ast.PropertyAccess); ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindArgument, "cannot use compound assignment on a property target"))
	}
	cur, sig := e.eval(x.Target)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	rhs, sig := e.eval(x.Value)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	op := x.Operator[:len(x.Operator)-1]
	v, err := applyBinOp(op, cur, rhs)
	if err != nil {
		return value.Null{}, e.raiseRuntime(err)
	}
	if sig := e.assignTo(x.Target, v); !sig.isNone() {
		return value.Null{}, sig
	}
	return v, noSignal
}

// assignTo writes v to the lvalue expression target: a variable, array
// index, property access, or static property access, per spec.md §4.2's
// assignment-target list.
func (e *Evaluator) assignTo(target ast.Expression, v value.Value) signal {
	switch t := target.(type) {
	case *ast.Variable:
		e.env.Set(t.Name, v)
		return noSignal
	case *ast.Index:
		left, sig := e.eval(t.Left)
		if !sig.isNone() {
			return sig
		}
		arr, ok := left.(*value.Array)
		if !ok {
			arr = value.NewArray()
			if assignSig := e.assignTo(t.Left, arr); !assignSig.isNone() {
				return assignSig
			}
		}
		if t.Index == nil {
			arr.Append(v)
			return noSignal
		}
		idx, sig := e.eval(t.Index)
		if !sig.isNone() {
			return sig
		}
		arr.Set(value.NormalizeKey(idx), v)
		return noSignal
	case *ast.PropertyAccess:
		objVal, sig := e.eval(t.Object)
		if !sig.isNone() {
			return sig
		}
		obj, ok := objVal.(*value.Object)
		if !ok {
			if t.NullSafe {
				return noSignal
			}
			return e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, vherrors.MsgNotAnObject, t.Name))
		}
		name := t.Name
		if t.NameExpr != nil {
			nv, sig := e.eval(t.NameExpr)
			if !sig.isNone() {
				return sig
			}
			name = value.ToStr(nv)
		}
		if !obj.Instance.CanWriteReadonly(name) {
			return e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindReadonly, vherrors.MsgReadonlyViolation, obj.Instance.ClassName, name))
		}
		obj.Instance.SetProperty(name, v)
		obj.Instance.MarkInitialized(name)
		return noSignal
	case *ast.StaticAccess:
		// static property assignment: not modeled as shared mutable state
		// beyond the registries' definitions; treated as a no-op store into
		// a synthetic global-like variable keyed by class::prop.
		e.env.Set("::"+t.Class.(*ast.Identifier).Name+"::"+t.Name, v)
		return noSignal
	}
	return noSignal
}
