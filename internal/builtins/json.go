package builtins

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/leocavalcante/vhp/internal/value"
)

func registerJSON(r *Registry) {
	r.register("json_encode", biJSONEncode, CategoryJSON)
	r.register("json_decode", biJSONDecode, CategoryJSON)
}

func biJSONEncode(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("json_encode", 1, len(args))
	}
	raw, err := encodeJSON(args[0])
	if err != nil {
		return nil, err
	}
	return value.Str(raw), nil
}

func biJSONDecode(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("json_decode", 1, 0)
	}
	s := value.ToStr(args[0])
	if !gjson.Valid(s) {
		return value.Null{}, nil
	}
	return decodeJSON(gjson.Parse(s)), nil
}

// encodeJSON builds a JSON document bottom-up via sjson.SetRaw, appending
// array elements at path "-1" and object members by key, so no ad-hoc
// string-concatenation JSON writer is needed for the reference builtin.
func encodeJSON(v value.Value) (string, error) {
	switch x := v.(type) {
	case value.Null:
		return "null", nil
	case value.Bool:
		if bool(x) {
			return "true", nil
		}
		return "false", nil
	case value.Int:
		return strconv.FormatInt(int64(x), 10), nil
	case value.Float:
		return strconv.FormatFloat(float64(x), 'g', -1, 64), nil
	case value.Str:
		return strconv.Quote(string(x)), nil
	case *value.Array:
		return encodeJSONArray(x)
	default:
		return strconv.Quote(x.String()), nil
	}
}

// encodeJSONArray renders a list-shaped Array (0..n-1 integer keys in
// order) as a JSON array, and anything else as a JSON object, matching
// json_encode's own array/object disambiguation rule.
func encodeJSONArray(arr *value.Array) (string, error) {
	isList := true
	for i, k := range arr.Keys() {
		if !k.IsInt() || k.Int() != int64(i) {
			isList = false
			break
		}
	}
	var out string
	var err error
	if isList {
		out = "[]"
		for _, k := range arr.Keys() {
			v, _ := arr.Get(k)
			raw, encErr := encodeJSON(v)
			if encErr != nil {
				return "", encErr
			}
			if out, err = sjson.SetRaw(out, "-1", raw); err != nil {
				return "", err
			}
		}
		return out, nil
	}
	out = "{}"
	for _, k := range arr.Keys() {
		v, _ := arr.Get(k)
		raw, encErr := encodeJSON(v)
		if encErr != nil {
			return "", encErr
		}
		if out, err = sjson.SetRawOptions(out, k.String(), raw, &sjson.Options{Optimistic: true, ReplaceInPlace: true}); err != nil {
			return "", err
		}
	}
	return out, nil
}

func decodeJSON(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null{}
	case gjson.True:
		return value.Bool(true)
	case gjson.False:
		return value.Bool(false)
	case gjson.Number:
		if r.Num == math.Trunc(r.Num) {
			return value.Int(int64(r.Num))
		}
		return value.Float(r.Num)
	case gjson.String:
		return value.Str(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			arr := value.NewArray()
			r.ForEach(func(_, item gjson.Result) bool {
				arr.Append(decodeJSON(item))
				return true
			})
			return arr
		}
		arr := value.NewArray()
		r.ForEach(func(key, item gjson.Result) bool {
			arr.Set(value.StringKey(key.String()), decodeJSON(item))
			return true
		})
		return arr
	}
	return value.Null{}
}
