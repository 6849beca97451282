package builtins

import (
	"fmt"

	"github.com/maruel/natural"

	"github.com/leocavalcante/vhp/internal/value"
)

func registerArray(r *Registry, call CallFunc) {
	r.register("count", biCount, CategoryArray)
	r.register("array_keys", biArrayKeys, CategoryArray)
	r.register("array_values", biArrayValues, CategoryArray)
	r.register("in_array", biInArray, CategoryArray)
	r.register("array_merge", biArrayMerge, CategoryArray)
	r.register("ksort", biKsort, CategoryArray)
	r.register("sort", biSort, CategoryArray)
	r.register("array_map", makeArrayMap(call), CategoryArray)
	r.register("array_filter", makeArrayFilter(call), CategoryArray)
	r.register("array_reduce", makeArrayReduce(call), CategoryArray)
}

func biCount(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("count", 1, len(args))
	}
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, fmt.Errorf("count() expects array, got %s", args[0].Type())
	}
	return value.Int(arr.Len()), nil
}

func biArrayKeys(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("array_keys", 1, len(args))
	}
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, fmt.Errorf("array_keys() expects array, got %s", args[0].Type())
	}
	out := value.NewArray()
	for _, k := range arr.Keys() {
		out.Append(k.ToValue())
	}
	return out, nil
}

func biArrayValues(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("array_values", 1, len(args))
	}
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, fmt.Errorf("array_values() expects array, got %s", args[0].Type())
	}
	out := value.NewArray()
	for _, k := range arr.Keys() {
		v, _ := arr.Get(k)
		out.Append(v)
	}
	return out, nil
}

func biInArray(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, argErr("in_array", 2, len(args))
	}
	needle := args[0]
	arr, ok := args[1].(*value.Array)
	if !ok {
		return nil, fmt.Errorf("in_array() expects array as second argument, got %s", args[1].Type())
	}
	strict := len(args) > 2 && value.ToBool(args[2])
	for _, k := range arr.Keys() {
		v, _ := arr.Get(k)
		if strict {
			if value.StrictEqual(needle, v) {
				return value.Bool(true), nil
			}
		} else if value.LooseEqual(needle, v) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func biArrayMerge(args []value.Value) (value.Value, error) {
	out := value.NewArray()
	for _, a := range args {
		arr, ok := a.(*value.Array)
		if !ok {
			return nil, fmt.Errorf("array_merge() expects array arguments, got %s", a.Type())
		}
		for _, k := range arr.Keys() {
			v, _ := arr.Get(k)
			if k.IsInt() {
				out.Append(v)
			} else {
				out.Set(k, v)
			}
		}
	}
	return out, nil
}

func biKsort(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("ksort", 1, len(args))
	}
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, fmt.Errorf("ksort() expects array, got %s", args[0].Type())
	}
	sorted := arr.Clone()
	sorted.SortByKeysNatural(natural.Less)
	return sorted, nil
}

func biSort(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("sort", 1, len(args))
	}
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, fmt.Errorf("sort() expects array, got %s", args[0].Type())
	}
	vals := make([]value.Value, 0, arr.Len())
	for _, k := range arr.Keys() {
		v, _ := arr.Get(k)
		vals = append(vals, v)
	}
	naturalSortValues(vals)
	out := value.NewArray()
	for _, v := range vals {
		out.Append(v)
	}
	return out, nil
}

// naturalSortValues sorts vals in place by their string rendering's natural
// order, re-keying on reinsertion the way PHP's sort() discards old keys.
func naturalSortValues(vals []value.Value) {
	less := func(i, j int) bool {
		return natural.Less(value.ToStr(vals[i]), value.ToStr(vals[j]))
	}
	// Insertion sort is fine for the reference library's scale; natural.Less
	// has no exported sort.Interface helper for arbitrary slices here.
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			vals[j], vals[j-1] = vals[j-1], vals[j]
		}
	}
}

func makeArrayMap(call CallFunc) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, argErr("array_map", 2, len(args))
		}
		arr, ok := args[1].(*value.Array)
		if !ok {
			return nil, fmt.Errorf("array_map() expects array as second argument, got %s", args[1].Type())
		}
		out := value.NewArray()
		if _, isNull := args[0].(value.Null); isNull {
			for _, k := range arr.Keys() {
				v, _ := arr.Get(k)
				out.Set(k, v)
			}
			return out, nil
		}
		for _, k := range arr.Keys() {
			v, _ := arr.Get(k)
			mapped, err := call(args[0], []value.Value{v})
			if err != nil {
				return nil, err
			}
			out.Set(k, mapped)
		}
		return out, nil
	}
}

func makeArrayFilter(call CallFunc) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return nil, argErr("array_filter", 1, len(args))
		}
		arr, ok := args[0].(*value.Array)
		if !ok {
			return nil, fmt.Errorf("array_filter() expects array as first argument, got %s", args[0].Type())
		}
		out := value.NewArray()
		for _, k := range arr.Keys() {
			v, _ := arr.Get(k)
			keep := value.ToBool(v)
			if len(args) > 1 {
				res, err := call(args[1], []value.Value{v})
				if err != nil {
					return nil, err
				}
				keep = value.ToBool(res)
			}
			if keep {
				out.Set(k, v)
			}
		}
		return out, nil
	}
}

func makeArrayReduce(call CallFunc) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, argErr("array_reduce", 2, len(args))
		}
		arr, ok := args[0].(*value.Array)
		if !ok {
			return nil, fmt.Errorf("array_reduce() expects array as first argument, got %s", args[0].Type())
		}
		var acc value.Value = value.Null{}
		if len(args) > 2 {
			acc = args[2]
		}
		for _, k := range arr.Keys() {
			v, _ := arr.Get(k)
			next, err := call(args[1], []value.Value{acc, v})
			if err != nil {
				return nil, err
			}
			acc = next
		}
		return acc, nil
	}
}
