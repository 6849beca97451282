package evaluator

import (
	"fmt"
	"math"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// eval evaluates expr, returning either a value and noSignal, or a zero
// value alongside an Exception/Return signal that must bubble past the
// expression (e.g. a `throw` expression or a callee that raised).
func (e *Evaluator) eval(expr ast.Expression) (value.Value, signal) {
	switch x := expr.(type) {
	case *ast.IntegerLiteral:
		return value.Int(x.Value), noSignal
	case *ast.FloatLiteral:
		return value.Float(x.Value), noSignal
	case *ast.StringLiteral:
		return value.Str(x.Value), noSignal
	case *ast.BoolLiteral:
		return value.Bool(x.Value), noSignal
	case *ast.NullLiteral:
		return value.Null{}, noSignal
	case *ast.Variable:
		v, ok := e.env.Get(x.Name)
		if !ok {
			return value.Null{}, noSignal
		}
		return v, noSignal
	case *ast.Identifier:
		return e.evalIdentifier(x)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(x)
	case *ast.Prefix:
		return e.evalPrefix(x)
	case *ast.Postfix:
		return e.evalPostfix(x)
	case *ast.Infix:
		return e.evalInfix(x)
	case *ast.Assign:
		return e.evalAssign(x)
	case *ast.Ternary:
		return e.evalTernary(x)
	case *ast.Index:
		return e.evalIndex(x)
	case *ast.PropertyAccess:
		return e.evalPropertyAccess(x)
	case *ast.StaticAccess:
		return e.evalStaticAccess(x)
	case *ast.Call:
		return e.evalCall(x)
	case *ast.MethodCall:
		return e.evalMethodCall(x)
	case *ast.StaticCall:
		return e.evalStaticCall(x)
	case *ast.New:
		return e.evalNew(x)
	case *ast.Clone:
		return e.evalClone(x)
	case *ast.Match:
		return e.evalMatch(x)
	case *ast.ThrowExpr:
		v, sig := e.eval(x.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		return value.Null{}, e.raise(v)
	case *ast.FunctionLiteral:
		return e.evalFunctionLiteral(x)
	case *ast.Pipe:
		return e.evalPipe(x)
	case *ast.MagicConstant:
		return e.evalMagicConstant(x)
	case *ast.InstanceOf:
		return e.evalInstanceOf(x)
	case *ast.CallableFromFunc:
		return e.evalCallableFromFunc(x)
	case *ast.CallableFromMethod:
		return e.evalCallableFromMethod(x)
	case *ast.CallableFromStatic:
		return e.evalCallableFromStatic(x)
	case *ast.FiberSuspend:
		return e.evalFiberSuspend(x)
	case *ast.FiberGetCurrent:
		return e.evalFiberGetCurrent()
	case *ast.Yield:
		return e.evalYield(x)
	case *ast.YieldFrom:
		return e.evalYieldFrom(x)
	case *ast.Placeholder:
		return value.Null{}, noSignal
	case *precomputed:
		return x.v, noSignal
	default:
		return value.Null{}, noSignal
	}
}

func (e *Evaluator) evalIdentifier(x *ast.Identifier) (value.Value, signal) {
	switch x.Name {
	case "self":
		if obj := e.currentObject; obj != nil {
			return value.NewObject(obj.Instance), noSignal
		}
	case "true", "True", "TRUE":
		return value.Bool(true), noSignal
	case "false", "False", "FALSE":
		return value.Bool(false), noSignal
	case "null", "Null", "NULL":
		return value.Null{}, noSignal
	}
	// A bare identifier that isn't a recognized magic keyword is a global
	// constant reference; VHP has no user-level `define()`/`const` global
	// table beyond what the environment holds, so fall back to treating it
	// as its own name (matching an undefined-constant's legacy PHP
	// behavior of evaluating to its own string).
	return value.Str(x.Name), noSignal
}

func (e *Evaluator) evalArrayLiteral(x *ast.ArrayLiteral) (value.Value, signal) {
	arr := value.NewArray()
	for _, item := range x.Items {
		if item.Spread {
			v, sig := e.eval(item.Value)
			if !sig.isNone() {
				return value.Null{}, sig
			}
			if src, ok := v.(*value.Array); ok {
				for _, k := range src.Keys() {
					sv, _ := src.Get(k)
					if k.IsInt() {
						arr.Append(sv)
					} else {
						arr.Set(k, sv)
					}
				}
			}
			continue
		}
		v, sig := e.eval(item.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		if item.Key != nil {
			kv, sig := e.eval(item.Key)
			if !sig.isNone() {
				return value.Null{}, sig
			}
			arr.Set(value.NormalizeKey(kv), v)
		} else {
			arr.Append(v)
		}
	}
	return arr, noSignal
}

func (e *Evaluator) evalPrefix(x *ast.Prefix) (value.Value, signal) {
	if x.Operator == "++" || x.Operator == "--" {
		return e.evalIncDec(x.Right, x.Operator, true)
	}
	right, sig := e.eval(x.Right)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	switch x.Operator {
	case "!":
		return value.Bool(!value.ToBool(right)), noSignal
	case "-":
		if f, ok := right.(value.Float); ok {
			return value.Float(-f), noSignal
		}
		return value.Int(-value.ToInt(right)), noSignal
	case "+":
		if f, ok := right.(value.Float); ok {
			return f, noSignal
		}
		return value.Int(value.ToInt(right)), noSignal
	}
	return value.Null{}, noSignal
}

func (e *Evaluator) evalPostfix(x *ast.Postfix) (value.Value, signal) {
	return e.evalIncDec(x.Left, x.Operator, false)
}

// evalIncDec implements `++`/`--`, returning the pre- or post-value per PHP
// semantics, and writing the incremented value back to the target.
func (e *Evaluator) evalIncDec(target ast.Expression, op string, prefix bool) (value.Value, signal) {
	old, sig := e.eval(target)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	var next value.Value
	delta := int64(1)
	if op == "--" {
		delta = -1
	}
	switch v := old.(type) {
	case value.Int:
		next = value.Int(int64(v) + delta)
	case value.Float:
		next = value.Float(float64(v) + float64(delta))
	case value.Null:
		if delta > 0 {
			next = value.Int(1)
		} else {
			next = value.Null{}
		}
	default:
		next = value.Int(value.ToInt(old) + delta)
	}
	if sig := e.assignTo(target, next); !sig.isNone() {
		return value.Null{}, sig
	}
	if prefix {
		return next, noSignal
	}
	return old, noSignal
}

func (e *Evaluator) evalInfix(x *ast.Infix) (value.Value, signal) {
	left, sig := e.eval(x.Left)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	if x.Operator == "&&" || x.Operator == "and" {
		if !value.ToBool(left) {
			return value.Bool(false), noSignal
		}
		right, sig := e.eval(x.Right)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		return value.Bool(value.ToBool(right)), noSignal
	}
	if x.Operator == "||" || x.Operator == "or" {
		if value.ToBool(left) {
			return value.Bool(true), noSignal
		}
		right, sig := e.eval(x.Right)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		return value.Bool(value.ToBool(right)), noSignal
	}
	right, sig := e.eval(x.Right)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	v, err := applyBinOp(x.Operator, left, right)
	if err != nil {
		return value.Null{}, e.raiseRuntime(err)
	}
	return v, noSignal
}

// applyBinOp implements spec.md §4.3's arithmetic, concatenation,
// equality, and ordering rules for a single binary operator.
func applyBinOp(op string, left, right value.Value) (value.Value, error) {
	switch op {
	case ".":
		return value.Str(value.ToStr(left) + value.ToStr(right)), nil
	case "+":
		return arith(left, right, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case "-":
		return arith(left, right, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case "*":
		return arith(left, right, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case "/":
		return divide(left, right)
	case "%":
		r := value.ToInt(right)
		if r == 0 {
			return nil, vherrors.NewRuntimeError(vherrors.KindArithmetic, vherrors.MsgModuloByZero)
		}
		return value.Int(value.ToInt(left) % r), nil
	case "**":
		res := math.Pow(value.ToFloat(left), value.ToFloat(right))
		if res == math.Trunc(res) && math.Abs(res) < 1e18 {
			return value.Int(int64(res)), nil
		}
		return value.Float(res), nil
	case "==":
		return value.Bool(value.LooseEqual(left, right)), nil
	case "!=", "<>":
		return value.Bool(!value.LooseEqual(left, right)), nil
	case "===":
		return value.Bool(value.StrictEqual(left, right)), nil
	case "!==":
		return value.Bool(!value.StrictEqual(left, right)), nil
	case "<":
		return value.Bool(value.Compare(left, right) < 0), nil
	case ">":
		return value.Bool(value.Compare(left, right) > 0), nil
	case "<=":
		return value.Bool(value.Compare(left, right) <= 0), nil
	case ">=":
		return value.Bool(value.Compare(left, right) >= 0), nil
	case "<=>":
		return value.Int(value.Compare(left, right)), nil
	case "xor":
		return value.Bool(value.ToBool(left) != value.ToBool(right)), nil
	case "??":
		if _, ok := left.(value.Null); ok {
			return right, nil
		}
		return left, nil
	}
	return value.Null{}, fmt.Errorf("unknown operator %s", op)
}

func arith(left, right value.Value, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (value.Value, error) {
	_, lf := left.(value.Float)
	_, rf := right.(value.Float)
	if lf || rf {
		return value.Float(floatOp(value.ToFloat(left), value.ToFloat(right))), nil
	}
	li, lok := left.(value.Int)
	ri, rok := right.(value.Int)
	if lok && rok {
		return value.Int(intOp(int64(li), int64(ri))), nil
	}
	return value.Float(floatOp(value.ToFloat(left), value.ToFloat(right))), nil
}

func divide(left, right value.Value) (value.Value, error) {
	rf := value.ToFloat(right)
	if rf == 0 {
		return nil, vherrors.NewRuntimeError(vherrors.KindArithmetic, vherrors.MsgDivisionByZero)
	}
	li, lIsInt := left.(value.Int)
	ri, rIsInt := right.(value.Int)
	if lIsInt && rIsInt && int64(ri) != 0 && int64(li)%int64(ri) == 0 {
		return value.Int(int64(li) / int64(ri)), nil
	}
	return value.Float(value.ToFloat(left) / rf), nil
}

func (e *Evaluator) evalTernary(x *ast.Ternary) (value.Value, signal) {
	cond, sig := e.eval(x.Cond)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	if x.Then == nil { // short ternary `a ?: b`
		if value.ToBool(cond) {
			return cond, noSignal
		}
		return e.eval(x.Else)
	}
	if value.ToBool(cond) {
		return e.eval(x.Then)
	}
	return e.eval(x.Else)
}

func (e *Evaluator) evalIndex(x *ast.Index) (value.Value, signal) {
	left, sig := e.eval(x.Left)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	idx, sig := e.eval(x.Index)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	switch arr := left.(type) {
	case *value.Array:
		v, ok := arr.Get(value.NormalizeKey(idx))
		if !ok {
			return value.Null{}, noSignal
		}
		return v, noSignal
	case value.Str:
		i := int(value.ToInt(idx))
		if i < 0 || i >= len(arr) {
			return value.Str(""), noSignal
		}
		return value.Str(arr[i : i+1]), noSignal
	}
	return value.Null{}, noSignal
}

func (e *Evaluator) evalMagicConstant(x *ast.MagicConstant) (value.Value, signal) {
	switch x.Name {
	case "__CLASS__":
		return value.Str(e.currentClass), noSignal
	case "__FUNCTION__", "__METHOD__":
		if len(e.callStack) > 0 {
			return value.Str(e.callStack[len(e.callStack)-1]), noSignal
		}
		return value.Str(""), noSignal
	}
	return value.Str(""), noSignal
}

func (e *Evaluator) evalInstanceOf(x *ast.InstanceOf) (value.Value, signal) {
	left, sig := e.eval(x.Left)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	obj, ok := left.(*value.Object)
	if !ok {
		return value.Bool(false), noSignal
	}
	className, ok := classRefName(x.Class)
	if !ok {
		return value.Bool(false), noSignal
	}
	if e.Registries.IsSubclassOf(obj.Instance.ClassName, className) {
		return value.Bool(true), noSignal
	}
	return value.Bool(e.Registries.ImplementsInterface(obj.Instance.ClassName, className)), noSignal
}

func classRefName(expr ast.Expression) (string, bool) {
	if id, ok := expr.(*ast.Identifier); ok {
		return id.Name, true
	}
	return "", false
}
