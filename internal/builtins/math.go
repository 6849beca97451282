package builtins

import (
	"fmt"
	"math"

	"github.com/leocavalcante/vhp/internal/value"
)

func registerMath(r *Registry) {
	r.register("abs", biAbs, CategoryMath)
	r.register("floor", biFloor, CategoryMath)
	r.register("ceil", biCeil, CategoryMath)
	r.register("round", biRound, CategoryMath)
	r.register("min", biMin, CategoryMath)
	r.register("max", biMax, CategoryMath)
	r.register("intdiv", biIntdiv, CategoryMath)
	r.register("pow", biPow, CategoryMath)
}

func biAbs(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("abs", 1, len(args))
	}
	if i, ok := args[0].(value.Int); ok {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	return value.Float(math.Abs(value.ToFloat(args[0]))), nil
}

func biFloor(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("floor", 1, len(args))
	}
	return value.Float(math.Floor(value.ToFloat(args[0]))), nil
}

func biCeil(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("ceil", 1, len(args))
	}
	return value.Float(math.Ceil(value.ToFloat(args[0]))), nil
}

func biRound(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("round", 1, 0)
	}
	precision := 0
	if len(args) > 1 {
		precision = int(value.ToInt(args[1]))
	}
	mult := math.Pow(10, float64(precision))
	return value.Float(math.Round(value.ToFloat(args[0])*mult) / mult), nil
}

func biMin(args []value.Value) (value.Value, error) {
	vals, err := minMaxOperands("min", args)
	if err != nil {
		return nil, err
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if value.Compare(v, best) < 0 {
			best = v
		}
	}
	return best, nil
}

func biMax(args []value.Value) (value.Value, error) {
	vals, err := minMaxOperands("max", args)
	if err != nil {
		return nil, err
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if value.Compare(v, best) > 0 {
			best = v
		}
	}
	return best, nil
}

func minMaxOperands(name string, args []value.Value) ([]value.Value, error) {
	if len(args) == 1 {
		if arr, ok := args[0].(*value.Array); ok {
			vals := make([]value.Value, 0, arr.Len())
			for _, k := range arr.Keys() {
				v, _ := arr.Get(k)
				vals = append(vals, v)
			}
			if len(vals) == 0 {
				return nil, fmt.Errorf("%s() expects a non-empty array", name)
			}
			return vals, nil
		}
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%s() expects at least 1 argument, got 0", name)
	}
	return args, nil
}

func biIntdiv(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, argErr("intdiv", 2, len(args))
	}
	divisor := value.ToInt(args[1])
	if divisor == 0 {
		return nil, fmt.Errorf("intdiv(): division by zero")
	}
	return value.Int(value.ToInt(args[0]) / divisor), nil
}

func biPow(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, argErr("pow", 2, len(args))
	}
	res := math.Pow(value.ToFloat(args[0]), value.ToFloat(args[1]))
	if _, lok := args[0].(value.Int); lok {
		if _, rok := args[1].(value.Int); rok && res == math.Trunc(res) && math.Abs(res) < 1e18 {
			return value.Int(int64(res)), nil
		}
	}
	return value.Float(res), nil
}
