package bytecode

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// invoke runs fn to completion (or, for a generator-shaped function, starts
// its lazy goroutine and returns the Generator handle immediately), the
// single entry point every call/new/closure-invocation opcode goes through.
// vhp-level call nesting rides Go's own call stack here — runFrame calling
// invoke calling runFrame again for a nested call — the same recursive shape
// as the tree-walking evaluator's eval calling callUserFunction calling eval;
// only the operand stack within one frame is an explicit slice.
func (vm *VM) invoke(fn *Function, locals []value.Value, recvClass string) (value.Value, error) {
	if fn.IsGenerator {
		return vm.startGenerator(fn, locals, recvClass), nil
	}
	fr := newFrame(fn)
	fr.locals = locals
	fr.recvClass = recvClass
	return vm.runFrame(fr)
}

// bindArgsInto fills fn's declared-parameter local slots from positional and
// named arguments, mirroring evaluator/calls.go's bindParams; an optional
// parameter with neither a positional nor a named argument is left as the Go
// nil zero value so the compiled OpLoadLocalSupplied prologue can fill in its
// default. Call sites are assumed well formed (every named argument follows
// every positional one), the same assumption compileArgs's callSpec makes.
func bindArgsInto(fn *Function, locals []value.Value, positional []value.Value, named map[string]value.Value) error {
	used := map[string]bool{}
	pi := 0
	for _, p := range fn.Params {
		slot, ok := fn.LocalNames[p.Name]
		if !ok {
			continue
		}
		if p.Variadic {
			rest := value.NewArray()
			for ; pi < len(positional); pi++ {
				rest.Append(positional[pi])
			}
			locals[slot] = rest
			continue
		}
		if v, ok := named[p.Name]; ok {
			locals[slot] = v
			used[p.Name] = true
			if pi < len(positional) {
				pi++
			}
			continue
		}
		if pi < len(positional) {
			locals[slot] = positional[pi]
			pi++
			continue
		}
		if p.Default != nil {
			continue
		}
		return runtimeErr(vherrors.KindArgument, vherrors.MsgMissingArgument, p.Name)
	}
	for name := range named {
		if !used[name] {
			return runtimeErr(vherrors.KindArgument, vherrors.MsgUnknownNamedArg, name)
		}
	}
	return nil
}

// splitArgs partitions the values an OpCall* opcode popped off the stack
// using the callSpec the compiler recorded alongside the call.
func splitArgs(vals []value.Value, spec *callSpec) ([]value.Value, map[string]value.Value) {
	positional := vals[:spec.NamedFrom]
	named := map[string]value.Value{}
	for i, k := range spec.NamedKeys {
		named[k] = vals[spec.NamedFrom+i]
	}
	return positional, named
}

func (vm *VM) callNamed(name string, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	if fn, ok := vm.prog.Functions[lower(name)]; ok {
		locals := make([]value.Value, fn.NumLocals)
		if err := bindArgsInto(fn, locals, positional, named); err != nil {
			return value.Null{}, err
		}
		return vm.invoke(fn, locals, "")
	}
	if b, ok := vm.Builtins[lower(name)]; ok {
		v, err := b(positional)
		if err != nil {
			return value.Null{}, err
		}
		return v, nil
	}
	return value.Null{}, runtimeErr(vherrors.KindUndefined, vherrors.MsgUndefinedFunction, name)
}

// CallValue invokes an arbitrary callable Value with purely positional
// arguments, the hook the builtins registry's callback-taking functions
// (array_map, array_filter, array_reduce) need to call back into user code
// without this package's callers reaching into unexported VM internals.
func (vm *VM) CallValue(callee value.Value, args []value.Value) (value.Value, error) {
	return vm.callValue(callee, args, nil)
}

func (vm *VM) callValue(callee value.Value, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	switch c := callee.(type) {
	case *value.Closure:
		return vm.invokeClosure(c, positional, named)
	case value.Str:
		return vm.callNamed(string(c), positional, named)
	}
	return value.Null{}, runtimeErr(vherrors.KindType, vherrors.MsgNotCallable, callee.Type())
}

func (vm *VM) invokeClosure(c *value.Closure, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	fn, ok := c.Callee.(*Function)
	if !ok {
		return value.Null{}, nil
	}
	locals := make([]value.Value, fn.NumLocals)
	for k, v := range c.Captured {
		if slot, ok := fn.LocalNames[k]; ok {
			locals[slot] = v
		}
	}
	recvClass := ""
	if c.Bound != nil {
		if slot, ok := fn.LocalNames["this"]; ok {
			locals[slot] = c.Bound
		}
		recvClass = c.Bound.Instance.ClassName
	}
	if err := bindArgsInto(fn, locals, positional, named); err != nil {
		return value.Null{}, err
	}
	return vm.invoke(fn, locals, recvClass)
}

func (vm *VM) invokeMethod(obj *value.Object, methodName string, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	m, declClass, ok := vm.Registries.LookupMethod(obj.Instance.ClassName, methodName)
	if !ok {
		return value.Null{}, runtimeErr(vherrors.KindUndefined, vherrors.MsgUndefinedMethod, obj.Instance.ClassName, methodName)
	}
	fn := vm.prog.Methods[lower(declClass)][lower(m.Name)]
	locals := make([]value.Value, fn.NumLocals)
	locals[fn.LocalNames["this"]] = obj
	if err := bindArgsInto(fn, locals, positional, named); err != nil {
		return value.Null{}, err
	}
	return vm.invoke(fn, locals, obj.Instance.ClassName)
}

// invokeStatic implements `Class::method(...)`, including the enum
// cases()/from()/tryFrom() intercepts evaluator/calls.go's evalStaticCall
// special-cases before falling through to ordinary method lookup.
func (vm *VM) invokeStatic(className, methodName string, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	switch lower(methodName) {
	case "cases":
		if v, handled, err := vm.enumCases(className); handled {
			return v, err
		}
	case "from", "tryfrom":
		if v, handled, err := vm.enumFrom(className, positional, lower(methodName) == "tryfrom"); handled {
			return v, err
		}
	}
	m, declClass, ok := vm.Registries.LookupMethod(className, methodName)
	if !ok {
		return value.Null{}, runtimeErr(vherrors.KindUndefined, vherrors.MsgUndefinedMethod, className, methodName)
	}
	fn := vm.prog.Methods[lower(declClass)][lower(m.Name)]
	locals := make([]value.Value, fn.NumLocals)
	if err := bindArgsInto(fn, locals, positional, named); err != nil {
		return value.Null{}, err
	}
	return vm.invoke(fn, locals, className)
}

// callHelper invokes a zero-argument synthetic compiled helper (a property
// default, class constant, or enum-case backing value) registered under
// key by compileConstHelpers/compileEnumCaseHelpers/compilePropertyDefaults.
func (vm *VM) callHelper(key string) (value.Value, error) {
	fn, ok := vm.prog.Functions[lower(key)]
	if !ok {
		return value.Null{}, nil
	}
	return vm.invoke(fn, make([]value.Value, fn.NumLocals), "")
}

// instantiate implements `new Class(...)`, grounded on
// evaluator/objects.go's evalNew: root-first property-default walk, promoted
// parameter pre-declaration, constructor invocation, then readonly
// finalization.
func (vm *VM) instantiate(className string, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	if className == "Fiber" {
		return vm.newFiberObject(positional)
	}
	cls, ok := vm.Registries.LookupClass(className)
	if !ok {
		return value.Null{}, runtimeErr(vherrors.KindUndefined, vherrors.MsgUndefinedClass, className)
	}
	if cls.Abstract {
		return value.Null{}, runtimeErr(vherrors.KindStructural, vherrors.MsgAbstractNew, className)
	}
	inst := value.NewObjectInstance(className)
	inst.Interfaces = cls.Interfaces

	chain := classChain(vm.Registries, className)
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		for _, p := range c.Properties {
			dv := value.Value(value.Null{})
			if p.Default != nil {
				v, err := vm.callHelper("<propdefault>::" + c.Name + "::" + p.Name)
				if err != nil {
					return value.Null{}, err
				}
				dv = v
			}
			inst.SetProperty(p.Name, dv)
			if p.Readonly {
				inst.ReadonlyProperties[p.Name] = true
			}
		}
	}

	obj := value.NewObject(inst)
	if ctor, declClass, ok := vm.Registries.LookupMethod(className, "__construct"); ok {
		bindPromotedParams(ctor.Params, inst)
		fn := vm.prog.Methods[lower(declClass)][lower("__construct")]
		locals := make([]value.Value, fn.NumLocals)
		locals[fn.LocalNames["this"]] = obj
		if err := bindArgsInto(fn, locals, positional, named); err != nil {
			return value.Null{}, err
		}
		if _, err := vm.invoke(fn, locals, className); err != nil {
			return value.Null{}, err
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
	return obj, nil
}

func bindPromotedParams(params []ast.Param, inst *value.ObjectInstance) {
	for _, p := range params {
		if p.Visibility == "" {
			continue
		}
		if _, exists := inst.GetProperty(p.Name); !exists {
			inst.SetProperty(p.Name, value.Null{})
		}
		if p.Readonly {
			inst.ReadonlyProperties[p.Name] = true
		}
	}
}

// enumCases implements `Name::cases()`.
func (vm *VM) enumCases(className string) (value.Value, bool, error) {
	def, ok := vm.Registries.LookupEnum(className)
	if !ok {
		return value.Null{}, false, nil
	}
	arr := value.NewArray()
	for _, c := range def.Cases {
		v, err := vm.enumCaseValue(def.Name, c)
		if err != nil {
			return value.Null{}, true, err
		}
		arr.Append(v)
	}
	return arr, true, nil
}

// enumFrom implements `Name::from(v)`/`Name::tryFrom(v)`.
func (vm *VM) enumFrom(className string, args []value.Value, isTry bool) (value.Value, bool, error) {
	def, ok := vm.Registries.LookupEnum(className)
	if !ok {
		return value.Null{}, false, nil
	}
	if len(args) == 0 {
		return value.Null{}, true, runtimeErr(vherrors.KindArgument, vherrors.MsgMissingArgument, "value")
	}
	target := args[0]
	for _, c := range def.Cases {
		v, err := vm.enumCaseValue(def.Name, c)
		if err != nil {
			return value.Null{}, true, err
		}
		ec := v.(value.EnumCase)
		if ec.BackingValue != nil && value.StrictEqual(ec.BackingValue, target) {
			return ec, true, nil
		}
	}
	if isTry {
		return value.Null{}, true, nil
	}
	return value.Null{}, true, runtimeErr(vherrors.KindUndefined, "%s is not a valid backing value for enum %s", value.ToStr(target), className)
}

func (vm *VM) enumCaseValue(enumName string, c object.EnumCaseDef) (value.Value, error) {
	ec := value.EnumCase{EnumName: enumName, CaseName: c.Name}
	if c.Value != nil {
		v, err := vm.callHelper("<enumcase>::" + enumName + "::" + c.Name)
		if err != nil {
			return value.Null{}, err
		}
		ec.BackingValue = v
	}
	return ec, nil
}
