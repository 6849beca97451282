package builtins

import (
	"fmt"
	"strings"

	"github.com/leocavalcante/vhp/internal/value"
)

func registerStrings(r *Registry) {
	r.register("strlen", biStrlen, CategoryString)
	r.register("strtoupper", biStrtoupper, CategoryString)
	r.register("strtolower", biStrtolower, CategoryString)
	r.register("trim", biTrim, CategoryString)
	r.register("ltrim", biLtrim, CategoryString)
	r.register("rtrim", biRtrim, CategoryString)
	r.register("str_repeat", biStrRepeat, CategoryString)
	r.register("str_pad", biStrPad, CategoryString)
	r.register("substr", biSubstr, CategoryString)
	r.register("str_replace", biStrReplace, CategoryString)
	r.register("implode", biImplode, CategoryString)
	r.register("explode", biExplode, CategoryString)
	r.register("sprintf", biSprintf, CategoryString)
}

func argErr(name string, want, got int) error {
	return fmt.Errorf("%s() expects %d argument(s), got %d", name, want, got)
}

func biStrlen(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("strlen", 1, len(args))
	}
	return value.Int(len([]rune(value.ToStr(args[0])))), nil
}

func biStrtoupper(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("strtoupper", 1, len(args))
	}
	return value.Str(strings.ToUpper(value.ToStr(args[0]))), nil
}

func biStrtolower(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, argErr("strtolower", 1, len(args))
	}
	return value.Str(strings.ToLower(value.ToStr(args[0]))), nil
}

func biTrim(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("trim", 1, 0)
	}
	cutset := " \t\n\r\x00\x0B"
	if len(args) > 1 {
		cutset = value.ToStr(args[1])
	}
	return value.Str(strings.Trim(value.ToStr(args[0]), cutset)), nil
}

func biLtrim(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("ltrim", 1, 0)
	}
	cutset := " \t\n\r\x00\x0B"
	if len(args) > 1 {
		cutset = value.ToStr(args[1])
	}
	return value.Str(strings.TrimLeft(value.ToStr(args[0]), cutset)), nil
}

func biRtrim(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("rtrim", 1, 0)
	}
	cutset := " \t\n\r\x00\x0B"
	if len(args) > 1 {
		cutset = value.ToStr(args[1])
	}
	return value.Str(strings.TrimRight(value.ToStr(args[0]), cutset)), nil
}

func biStrRepeat(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, argErr("str_repeat", 2, len(args))
	}
	n := int(value.ToInt(args[1]))
	if n < 0 {
		n = 0
	}
	return value.Str(strings.Repeat(value.ToStr(args[0]), n)), nil
}

const (
	padRight = "right"
	padLeft  = "left"
	padBoth  = "both"
)

func biStrPad(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, argErr("str_pad", 2, len(args))
	}
	s := value.ToStr(args[0])
	length := int(value.ToInt(args[1]))
	padStr := " "
	if len(args) > 2 {
		padStr = value.ToStr(args[2])
	}
	mode := padRight
	if len(args) > 3 {
		switch value.ToInt(args[3]) {
		case 0:
			mode = padLeft
		case 2:
			mode = padBoth
		default:
			mode = padRight
		}
	}
	if padStr == "" || length <= len([]rune(s)) {
		return value.Str(s), nil
	}
	need := length - len([]rune(s))
	switch mode {
	case padLeft:
		return value.Str(padString(padStr, need) + s), nil
	case padBoth:
		left := need / 2
		right := need - left
		return value.Str(padString(padStr, left) + s + padString(padStr, right)), nil
	default:
		return value.Str(s + padString(padStr, need)), nil
	}
}

func padString(pad string, n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	padRunes := []rune(pad)
	for i := 0; i < n; i++ {
		b.WriteRune(padRunes[i%len(padRunes)])
	}
	return b.String()
}

func biSubstr(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, argErr("substr", 2, len(args))
	}
	s := []rune(value.ToStr(args[0]))
	start := int(value.ToInt(args[1]))
	if start < 0 {
		start += len(s)
		if start < 0 {
			start = 0
		}
	}
	if start > len(s) {
		start = len(s)
	}
	length := len(s) - start
	if len(args) > 2 {
		length = int(value.ToInt(args[2]))
		if length < 0 {
			length = len(s) + length - start
		}
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	if end < start {
		end = start
	}
	return value.Str(string(s[start:end])), nil
}

func biStrReplace(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, argErr("str_replace", 3, len(args))
	}
	subject := value.ToStr(args[2])
	searches, replaces := stringListPair(args[0], args[1])
	for i, search := range searches {
		replace := ""
		if i < len(replaces) {
			replace = replaces[i]
		}
		subject = strings.ReplaceAll(subject, search, replace)
	}
	return value.Str(subject), nil
}

func stringListPair(search, replace value.Value) ([]string, []string) {
	toStrs := func(v value.Value) []string {
		if arr, ok := v.(*value.Array); ok {
			out := make([]string, 0, arr.Len())
			for _, k := range arr.Keys() {
				item, _ := arr.Get(k)
				out = append(out, value.ToStr(item))
			}
			return out
		}
		return []string{value.ToStr(v)}
	}
	return toStrs(search), toStrs(replace)
}

func biImplode(args []value.Value) (value.Value, error) {
	var sep string
	var arr *value.Array
	switch len(args) {
	case 1:
		a, ok := args[0].(*value.Array)
		if !ok {
			return nil, fmt.Errorf("implode() expects array, got %s", args[0].Type())
		}
		arr = a
	case 2:
		sep = value.ToStr(args[0])
		a, ok := args[1].(*value.Array)
		if !ok {
			return nil, fmt.Errorf("implode() expects array, got %s", args[1].Type())
		}
		arr = a
	default:
		return nil, argErr("implode", 2, len(args))
	}
	parts := make([]string, 0, arr.Len())
	for _, k := range arr.Keys() {
		v, _ := arr.Get(k)
		parts = append(parts, value.ToStr(v))
	}
	return value.Str(strings.Join(parts, sep)), nil
}

func biExplode(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, argErr("explode", 2, len(args))
	}
	sep := value.ToStr(args[0])
	s := value.ToStr(args[1])
	limit := -1
	if len(args) > 2 {
		limit = int(value.ToInt(args[2]))
	}
	var parts []string
	if limit > 0 {
		parts = strings.SplitN(s, sep, limit)
	} else {
		parts = strings.Split(s, sep)
	}
	arr := value.NewArray()
	for _, p := range parts {
		arr.Append(value.Str(p))
	}
	return arr, nil
}

func biSprintf(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr("sprintf", 1, 0)
	}
	format := value.ToStr(args[0])
	rest := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		switch v := a.(type) {
		case value.Int:
			rest = append(rest, int64(v))
		case value.Float:
			rest = append(rest, float64(v))
		default:
			rest = append(rest, value.ToStr(a))
		}
	}
	return value.Str(fmt.Sprintf(phpFormatToGo(format), rest...)), nil
}

// phpFormatToGo returns format unchanged: the PHP sprintf verbs this library
// supports (%d, %s, %f, %x, %%) mean the same thing to Go's fmt.
func phpFormatToGo(format string) string { return format }
