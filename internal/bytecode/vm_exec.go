package bytecode

import (
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// Run executes prog's top-level script function and returns its final
// (discarded, per spec.md §4.6's script-level "no return value") signal.
func (vm *VM) Run() error {
	_, err := vm.invoke(vm.prog.Main, make([]value.Value, vm.prog.Main.NumLocals), "")
	return err
}

// raise searches fr's active try handlers innermost-first for one to
// dispatch exc to, grounded on evaluator/statements.go's execTry: truncate
// the operand stack back to the handler's recorded depth, bind the
// catchable value, and jump into the handler's dispatch stub. Returns false
// if fr has no active handler, leaving exc for the caller to keep
// propagating.
func (vm *VM) raise(fr *frame, exc *value.Exception) bool {
	if len(fr.handlers) == 0 {
		return false
	}
	h := fr.handlers[len(fr.handlers)-1]
	fr.handlers = fr.handlers[:len(fr.handlers)-1]
	fr.stack = fr.stack[:h.stackDepth]
	fr.push(exceptionValue(exc))
	fr.ip = h.dispatchPC
	return true
}

// propagateOrCatch is consulted after any operation that may fail: a
// catchable *vherrors.Exception is offered to fr's handler stack first; a
// fatal *vherrors.RuntimeError (or any other error) always keeps propagating
// unchanged, skipping every enclosing finally on its way out (see DESIGN.md
// §2, "propagateOrCatch fatal-errors-skip-finally policy").
func (vm *VM) propagateOrCatch(fr *frame, err error) (handled bool, propagate error) {
	if err == nil {
		return true, nil
	}
	if vexc, ok := err.(*vherrors.Exception); ok {
		if vm.raise(fr, vexc.Value) {
			return true, nil
		}
	}
	return false, err
}

// classNameOf extracts the class identity a catch clause or OpExcIsType test
// reads off a caught value, which is always either an Object (property-bearing
// exception instance) or a raw *value.Exception.
func classNameOf(v value.Value) string {
	switch x := v.(type) {
	case *value.Object:
		return x.Instance.ClassName
	case *value.Exception:
		return x.ClassName
	}
	return ""
}

// runFrame is the VM's dispatch loop: one iteration per instruction, over
// fr's own operand stack and locals, grounded on the teacher's bytecode.VM
// run loop — generalized from its fixed [op|A|B] switch to this package's
// wider, pointer-receiver opcode set.
func (vm *VM) runFrame(fr *frame) (value.Value, error) {
	for {
		ins := fr.fn.Instructions[fr.ip]
		fr.ip++
		switch ins.Op {
		case OpLoadConst:
			fr.push(fr.fn.Constants[ins.A].(value.Value))
		case OpLoadNull:
			fr.push(value.Null{})
		case OpLoadTrue:
			fr.push(value.Bool(true))
		case OpLoadFalse:
			fr.push(value.Bool(false))

		case OpLoadLocal:
			fr.push(fr.loadLocal(ins.A))
		case OpStoreLocal:
			fr.locals[ins.A] = fr.peek()
		case OpPopStore:
			fr.locals[ins.A] = fr.pop()
		case OpLoadLocalSupplied:
			fr.push(value.Bool(fr.locals[ins.A] != nil))

		case OpLoadGlobal:
			name := fr.fn.Constants[ins.A].(string)
			if v, ok := vm.globals[name]; ok {
				fr.push(v)
			} else {
				fr.push(value.Null{})
			}
		case OpStoreGlobal:
			vm.globals[fr.fn.Constants[ins.A].(string)] = fr.peek()

		case OpNewArray:
			fr.push(value.NewArray())
		case OpArrayAppend:
			v := fr.pop()
			fr.peek().(*value.Array).Append(v)
		case OpArraySet:
			k := fr.pop()
			v := fr.pop()
			fr.peek().(*value.Array).Set(value.NormalizeKey(k), v)
		case OpArraySpread:
			src := fr.pop()
			dst := fr.peek().(*value.Array)
			if arr, ok := src.(*value.Array); ok {
				for _, k := range arr.Keys() {
					v, _ := arr.Get(k)
					if k.IsInt() {
						dst.Append(v)
					} else {
						dst.Set(k, v)
					}
				}
			}
		case OpIndexGet:
			idx := fr.pop()
			c := fr.pop()
			fr.push(indexGet(c, idx))
		case OpIndexSet:
			v := fr.pop()
			k := fr.pop()
			c := fr.pop()
			if arr, ok := c.(*value.Array); ok {
				arr.Set(value.NormalizeKey(k), v)
			}
			fr.push(v)
		case OpArrayAppendAssign:
			v := fr.pop()
			arr := fr.pop()
			if a, ok := arr.(*value.Array); ok {
				a.Append(v)
			}
			fr.push(v)

		case OpBinOp:
			right := fr.pop()
			left := fr.pop()
			v, err := applyBinOp(fr.fn.Constants[ins.A].(string), left, right)
			if err != nil {
				return value.Null{}, err
			}
			fr.push(v)
		case OpUnary:
			v := fr.pop()
			fr.push(applyUnary(fr.fn.Constants[ins.A].(string), v))
		case OpIncDecLocal:
			delta := fr.fn.Constants[ins.B].(int64)
			old := fr.loadLocal(ins.A)
			nv := incDec(old, delta)
			fr.locals[ins.A] = nv
			fr.push(nv)
		case OpIncDec:
			v := fr.pop()
			fr.push(incDec(v, fr.fn.Constants[ins.A].(int64)))

		case OpJump:
			fr.ip = ins.A
		case OpJumpIfFalse:
			if !value.ToBool(fr.pop()) {
				fr.ip = ins.A
			}
		case OpJumpIfTrue:
			if value.ToBool(fr.pop()) {
				fr.ip = ins.A
			}
		case OpJumpIfNull:
			if _, ok := fr.peek().(value.Null); ok {
				fr.ip = ins.A
			}

		case OpCall:
			spec := fr.fn.Constants[ins.A].(*callSpec)
			args := fr.popN(spec.ArgCount)
			positional, named := splitArgs(args, spec)
			v, err := vm.callNamed(spec.Name, positional, named)
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpCallValue:
			spec := fr.fn.Constants[ins.A].(*callSpec)
			callee := fr.pop()
			args := fr.popN(spec.ArgCount)
			positional, named := splitArgs(args, spec)
			v, err := vm.callValue(callee, positional, named)
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpCallMethod:
			spec := fr.fn.Constants[ins.A].(*callSpec)
			recv := fr.pop()
			args := fr.popN(spec.ArgCount)
			positional, named := splitArgs(args, spec)
			v, err := vm.dispatchMethodCall(recv, spec.Name, positional, named)
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpCallStatic:
			spec := fr.fn.Constants[ins.A].(*callSpec)
			className := string(fr.pop().(value.Str))
			args := fr.popN(spec.ArgCount)
			positional, named := splitArgs(args, spec)
			v, err := vm.invokeStatic(className, spec.Name, positional, named)
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpReturn:
			return fr.pop(), nil
		case OpReturnNull:
			return value.Null{}, nil

		case OpLoadStaticClass:
			fr.push(value.Str(fr.recvClass))

		case OpNewObject:
			spec := fr.fn.Constants[ins.A].(*callSpec)
			className := string(fr.pop().(value.Str))
			args := fr.popN(spec.ArgCount)
			positional, named := splitArgs(args, spec)
			v, err := vm.instantiate(className, positional, named)
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpGetProp:
			obj := fr.pop()
			v, err := getProp(obj, fr.fn.Constants[ins.A].(string))
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpSetProp:
			v := fr.pop()
			obj := fr.pop()
			if err := setProp(obj, fr.fn.Constants[ins.A].(string), v); err != nil {
				return value.Null{}, err
			}
			fr.push(v)
		case OpGetPropDyn:
			name := value.ToStr(fr.pop())
			obj := fr.pop()
			v, err := getProp(obj, name)
			if err != nil {
				if handled, ferr := vm.propagateOrCatch(fr, err); !handled {
					return value.Null{}, ferr
				}
				continue
			}
			fr.push(v)
		case OpSetPropDyn:
			v := fr.pop()
			name := value.ToStr(fr.pop())
			obj := fr.pop()
			if err := setProp(obj, name, v); err != nil {
				return value.Null{}, err
			}
			fr.push(v)
		case OpGetStatic:
			className := string(fr.pop().(value.Str))
			v, err := vm.getStatic(className, fr.fn.Constants[ins.A].(string))
			if err != nil {
				return value.Null{}, err
			}
			fr.push(v)
		case OpSetStatic:
			v := fr.pop()
			className := string(fr.pop().(value.Str))
			vm.globals["::"+className+"::"+fr.fn.Constants[ins.A].(string)] = v
			fr.push(v)
		case OpInstanceOf:
			className := string(fr.pop().(value.Str))
			subject := fr.pop()
			fr.push(value.Bool(vm.instanceOf(subject, className)))
		case OpClone:
			v := fr.pop()
			if obj, ok := v.(*value.Object); ok {
				fr.push(value.NewObject(obj.Instance.CloneInstance()))
			} else {
				fr.push(v)
			}

		case OpThrow:
			v := fr.pop()
			exc := raiseValue(v)
			if handled, ferr := vm.propagateOrCatch(fr, &vherrors.Exception{Value: exc}); !handled {
				return value.Null{}, ferr
			}
		case OpMatchFail:
			v := fr.pop()
			return value.Null{}, runtimeErr(vherrors.KindMatch, vherrors.MsgUnmatchedMatch, value.ToStr(v))
		case OpSetupTry:
			fr.handlers = append(fr.handlers, tryHandler{stackDepth: len(fr.stack), dispatchPC: ins.A})
		case OpPopTry:
			fr.handlers = fr.handlers[:len(fr.handlers)-1]
		case OpExcIsType:
			v := fr.pop()
			types := fr.fn.Constants[ins.A].([]string)
			match := catchMatches(vm.Registries, types, raiseValue(v))
			fr.push(value.Bool(match))
		case OpRethrow:
			v := fr.pop()
			exc := raiseValue(v)
			if handled, ferr := vm.propagateOrCatch(fr, &vherrors.Exception{Value: exc}); !handled {
				return value.Null{}, ferr
			}

		case OpDup:
			fr.push(fr.peek())
		case OpPop:
			fr.pop()
		case OpSwap:
			n := len(fr.stack)
			fr.stack[n-1], fr.stack[n-2] = fr.stack[n-2], fr.stack[n-1]
		case OpEcho:
			vm.Output.Write([]byte(value.ToStr(fr.pop())))

		case OpYield:
			v, k := vm.popYieldOperands(fr, ins.A)
			resumed := vm.doYield(k, v)
			fr.push(resumed)
		case OpFiberSusp:
			v, _ := vm.popYieldOperands(fr, ins.A)
			resumed := vm.doFiberSuspend(v)
			fr.push(resumed)
		case OpFiberGetCurrent:
			fr.push(vm.fiberGetCurrent())

		case OpMakeClosure:
			spec := fr.fn.Constants[ins.A].(*closureSpec)
			vals := fr.popN(len(spec.CaptureNames))
			cl := &value.Closure{Name: spec.FnName, Captured: map[string]value.Value{}}
			for i, n := range spec.CaptureNames {
				cl.Captured[n] = vals[i]
			}
			if fn, ok := vm.prog.Functions[lower(spec.FnName)]; ok {
				cl.Callee = fn
			}
			if spec.BindThis {
				if this, ok := fr.loadLocal(fr.fn.LocalNames["this"]).(*value.Object); ok {
					cl.Bound = this
					cl.Class = fr.recvClass
				}
			}
			fr.push(cl)
		case OpMakeCallable:
			obj := fr.pop()
			name := fr.fn.Constants[ins.A].(string)
			cl := &value.Closure{Name: name}
			if o, ok := obj.(*value.Object); ok {
				if m, declClass, ok := vm.Registries.LookupMethod(o.Instance.ClassName, name); ok {
					cl.Bound = o
					cl.Class = declClass
					cl.Callee = vm.prog.Methods[lower(declClass)][lower(m.Name)]
				}
			}
			fr.push(cl)
		case OpMakeCallableStatic:
			className := string(fr.pop().(value.Str))
			name := fr.fn.Constants[ins.A].(string)
			cl := &value.Closure{Name: name, Class: className}
			if m, declClass, ok := vm.Registries.LookupMethod(className, name); ok {
				cl.Callee = vm.prog.Methods[lower(declClass)][lower(m.Name)]
			}
			fr.push(cl)

		case OpIterInit:
			fr.iters[ins.A] = vm.newIterState(fr.pop())
		case OpIterNext:
			k, v, ok, err := vm.iterNext(fr.iters[ins.A])
			if err != nil {
				return value.Null{}, err
			}
			if !ok {
				fr.ip = ins.B
				continue
			}
			fr.push(k)
			fr.push(v)
		}
	}
}

// popYieldOperands reads the optional key/value an OpYield/OpFiberSusp
// emitted beneath its A flag, in the compiled push order (value[, key]).
func (vm *VM) popYieldOperands(fr *frame, hasKey int) (value.Value, value.Value) {
	if hasKey == 1 {
		k := fr.pop()
		v := fr.pop()
		return v, k
	}
	v := fr.pop()
	return v, nil
}

func indexGet(c, idx value.Value) value.Value {
	switch x := c.(type) {
	case *value.Array:
		v, ok := x.Get(value.NormalizeKey(idx))
		if !ok {
			return value.Null{}
		}
		return v
	case value.Str:
		i := int(value.ToInt(idx))
		s := string(x)
		if i < 0 || i >= len(s) {
			return value.Str("")
		}
		return value.Str(s[i : i+1])
	}
	return value.Null{}
}

func getProp(obj value.Value, name string) (value.Value, error) {
	o, ok := obj.(*value.Object)
	if !ok {
		if _, isNull := obj.(value.Null); isNull {
			return value.Null{}, nil
		}
		return value.Null{}, runtimeErr(vherrors.KindType, vherrors.MsgNotAnObject, name)
	}
	v, ok := o.Instance.GetProperty(name)
	if !ok {
		return value.Null{}, nil
	}
	return v, nil
}

func setProp(obj value.Value, name string, v value.Value) error {
	o, ok := obj.(*value.Object)
	if !ok {
		return runtimeErr(vherrors.KindType, vherrors.MsgNotAnObject, name)
	}
	if !o.Instance.CanWriteReadonly(name) {
		return runtimeErr(vherrors.KindReadonly, vherrors.MsgReadonlyViolation, o.Instance.ClassName, name)
	}
	o.Instance.SetProperty(name, v)
	o.Instance.MarkInitialized(name)
	return nil
}

// getStatic implements `Class::NAME` for an enum case, a class constant, or
// a synthetic static-property slot in that order, grounded on
// evaluator/objects.go's evalStaticAccess.
func (vm *VM) getStatic(className, name string) (value.Value, error) {
	if def, ok := vm.Registries.LookupEnum(className); ok {
		for _, c := range def.Cases {
			if c.Name == name {
				return vm.enumCaseValue(def.Name, c)
			}
		}
	}
	if cls, ok := vm.Registries.LookupClass(className); ok {
		if _, ok := cls.Consts[name]; ok {
			return vm.callHelper("<classconst>::" + className + "::" + name)
		}
	}
	if v, ok := vm.globals["::"+className+"::"+name]; ok {
		return v, nil
	}
	return value.Null{}, nil
}

// instanceOf implements `instanceof` per evaluator/expressions.go's
// evalInstanceOf: a subclass-or-implements test against the subject's
// runtime class.
func (vm *VM) instanceOf(subject value.Value, className string) bool {
	obj, ok := subject.(*value.Object)
	if !ok {
		return false
	}
	return vm.Registries.IsSubclassOf(obj.Instance.ClassName, className) || vm.Registries.ImplementsInterface(obj.Instance.ClassName, className)
}

// dispatchMethodCall intercepts Fiber/Generator pseudo-methods ahead of
// ordinary object method dispatch, mirroring evaluator/calls.go's
// evalMethodCall pairing with callFiberMethod/callGeneratorMethod.
func (vm *VM) dispatchMethodCall(recv value.Value, method string, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	if gen, ok := recv.(*value.Generator); ok {
		return vm.generatorMethod(gen, method, positional)
	}
	obj, ok := recv.(*value.Object)
	if !ok {
		if _, isNull := recv.(value.Null); isNull {
			return value.Null{}, nil
		}
		return value.Null{}, runtimeErr(vherrors.KindType, vherrors.MsgNotAnObject, method)
	}
	if v, handled, err := vm.fiberMethod(obj, method, positional); handled {
		return v, err
	}
	return vm.invokeMethod(obj, method, positional, named)
}
