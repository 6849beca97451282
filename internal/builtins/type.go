package builtins

import (
	"github.com/leocavalcante/vhp/internal/value"
)

func registerType(r *Registry) {
	r.register("gettype", biGettype, CategoryType)
	r.register("is_int", biIsInt, CategoryType)
	r.register("is_string", biIsString, CategoryType)
	r.register("is_array", biIsArray, CategoryType)
	r.register("is_object", biIsObject, CategoryType)
	r.register("is_bool", biIsBool, CategoryType)
	r.register("is_float", biIsFloat, CategoryType)
	r.register("is_null", biIsNull, CategoryType)
	r.register("is_callable", biIsCallable, CategoryType)
	r.register("intval", biIntval, CategoryType)
	r.register("floatval", biFloatval, CategoryType)
	r.register("strval", biStrval, CategoryType)
	r.register("boolval", biBoolval, CategoryType)
}

func biGettype(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("gettype", 1, len(args))
	}
	switch args[0].(type) {
	case value.Null:
		return value.Str("NULL"), nil
	case value.Bool:
		return value.Str("boolean"), nil
	case value.Int:
		return value.Str("integer"), nil
	case value.Float:
		return value.Str("double"), nil
	case value.Str:
		return value.Str("string"), nil
	case *value.Array:
		return value.Str("array"), nil
	case *value.Object:
		return value.Str("object"), nil
	default:
		return value.Str("unknown type"), nil
	}
}

func isCheck(name string, args []value.Value, match func(value.Value) bool) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr(name, 1, len(args))
	}
	return value.Bool(match(args[0])), nil
}

func biIsInt(args []value.Value) (value.Value, error) {
	return isCheck("is_int", args, func(v value.Value) bool { _, ok := v.(value.Int); return ok })
}

func biIsString(args []value.Value) (value.Value, error) {
	return isCheck("is_string", args, func(v value.Value) bool { _, ok := v.(value.Str); return ok })
}

func biIsArray(args []value.Value) (value.Value, error) {
	return isCheck("is_array", args, func(v value.Value) bool { _, ok := v.(*value.Array); return ok })
}

func biIsObject(args []value.Value) (value.Value, error) {
	return isCheck("is_object", args, func(v value.Value) bool { _, ok := v.(*value.Object); return ok })
}

func biIsBool(args []value.Value) (value.Value, error) {
	return isCheck("is_bool", args, func(v value.Value) bool { _, ok := v.(value.Bool); return ok })
}

func biIsFloat(args []value.Value) (value.Value, error) {
	return isCheck("is_float", args, func(v value.Value) bool { _, ok := v.(value.Float); return ok })
}

func biIsNull(args []value.Value) (value.Value, error) {
	return isCheck("is_null", args, func(v value.Value) bool { _, ok := v.(value.Null); return ok })
}

func biIsCallable(args []value.Value) (value.Value, error) {
	return isCheck("is_callable", args, func(v value.Value) bool {
		switch v.(type) {
		case *value.Closure, value.Str:
			return true
		default:
			return false
		}
	})
}

func biIntval(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("intval", 1, 0)
	}
	return value.Int(value.ToInt(args[0])), nil
}

func biFloatval(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("floatval", 1, 0)
	}
	return value.Float(value.ToFloat(args[0])), nil
}

func biStrval(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("strval", 1, 0)
	}
	return value.Str(value.ToStr(args[0])), nil
}

func biBoolval(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("boolval", 1, 0)
	}
	return value.Bool(value.ToBool(args[0])), nil
}
