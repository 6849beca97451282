package builtins

import (
	"fmt"
	"io"
	"os"

	"github.com/leocavalcante/vhp/internal/value"
)

func registerIO(r *Registry, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	r.register("var_dump", makeVarDump(w), CategoryIO)
	r.register("print_r", makePrintR(w), CategoryIO)
}

func makeVarDump(w io.Writer) Func {
	return func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			dumpValue(w, a, 0)
		}
		return value.Null{}, nil
	}
}

func dumpValue(w io.Writer, v value.Value, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch x := v.(type) {
	case value.Null:
		fmt.Fprintf(w, "%sNULL\n", indent)
	case value.Bool:
		fmt.Fprintf(w, "%sbool(%t)\n", indent, bool(x))
	case value.Int:
		fmt.Fprintf(w, "%sint(%d)\n", indent, int64(x))
	case value.Float:
		fmt.Fprintf(w, "%sfloat(%s)\n", indent, x.String())
	case value.Str:
		fmt.Fprintf(w, "%sstring(%d) %q\n", indent, len(x), string(x))
	case *value.Array:
		fmt.Fprintf(w, "%sarray(%d) {\n", indent, x.Len())
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			fmt.Fprintf(w, "%s  [%s]=>\n", indent, k.String())
			dumpValue(w, item, depth+1)
		}
		fmt.Fprintf(w, "%s}\n", indent)
	case *value.Object:
		fmt.Fprintf(w, "%sobject(%s) {\n", indent, x.Instance.ClassName)
		for _, name := range x.Instance.PropertyOrder() {
			pv, _ := x.Instance.GetProperty(name)
			fmt.Fprintf(w, "%s  [%q]=>\n", indent, name)
			dumpValue(w, pv, depth+1)
		}
		fmt.Fprintf(w, "%s}\n", indent)
	default:
		fmt.Fprintf(w, "%s%s\n", indent, v.String())
	}
}

func makePrintR(w io.Writer) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return nil, argErr("print_r", 1, 0)
		}
		printRValue(w, args[0], 0)
		if len(args) > 1 && value.ToBool(args[1]) {
			return value.Str(""), nil
		}
		return value.Null{}, nil
	}
}

func printRValue(w io.Writer, v value.Value, depth int) {
	switch x := v.(type) {
	case *value.Array:
		fmt.Fprintln(w, "Array")
		fmt.Fprintln(w, "(")
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			fmt.Fprintf(w, "    [%s] => ", k.String())
			printRValue(w, item, depth+1)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, ")")
	case *value.Object:
		fmt.Fprintf(w, "%s Object\n(\n", x.Instance.ClassName)
		for _, name := range x.Instance.PropertyOrder() {
			pv, _ := x.Instance.GetProperty(name)
			fmt.Fprintf(w, "    [%s] => ", name)
			printRValue(w, pv, depth+1)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, ")")
	default:
		fmt.Fprint(w, value.ToStr(v))
	}
}
