package bytecode

import (
	"fmt"
	"math"

	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// applyBinOp mirrors the tree-walking evaluator's operator table so the two
// execution paths agree on every arithmetic, concatenation, equality, and
// ordering result (grounded on evaluator/expressions.go's applyBinOp).
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

func applyUnary(op string, v value.Value) value.Value {
	switch op {
	case "!":
		return value.Bool(!value.ToBool(v))
	case "-":
		if f, ok := v.(value.Float); ok {
			return value.Float(-f)
		}
		return value.Int(-value.ToInt(v))
	case "+":
		if f, ok := v.(value.Float); ok {
			return f
		}
		return value.Int(value.ToInt(v))
	}
	return value.Null{}
}

func incDec(old value.Value, delta int64) value.Value {
	switch v := old.(type) {
	case value.Int:
		return value.Int(int64(v) + delta)
	case value.Float:
		return value.Float(float64(v) + float64(delta))
	case value.Null:
		if delta > 0 {
			return value.Int(1)
		}
		return value.Null{}
	default:
		return value.Int(value.ToInt(old) + delta)
	}
}
