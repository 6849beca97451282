package bytecode

import "github.com/leocavalcante/vhp/internal/value"

// vmGeneratorHandle is the VM-backend-specific Generator.Suspended payload:
// an unbuffered channel pair hands control back and forth between the
// generator's own goroutine (running the compiled body) and whichever
// goroutine is currently pulling values from it, so exactly one side ever
// runs at a time — grounded on evaluator/generators.go's generatorHandle.
type vmGeneratorHandle struct {
	fn        *Function
	locals    []value.Value
	recvClass string

	out     chan genItem
	in      chan value.Value
	done    chan genResult
	started bool
	lastErr error
}

type genItem struct{ key, val value.Value }
type genResult struct{ val value.Value }

// startGenerator allocates a lazily-started Generator handle: the body does
// not run until the first advance, matching spec.md §4.6's "a generator
// function's body does not execute until first iterated" rule.
func (vm *VM) startGenerator(fn *Function, locals []value.Value, recvClass string) *value.Generator {
	gh := &vmGeneratorHandle{
		fn: fn, locals: locals, recvClass: recvClass,
		out:  make(chan genItem),
		in:   make(chan value.Value),
		done: make(chan genResult, 1),
	}
	return &value.Generator{Suspended: gh}
}

// advanceGenerator runs gen's body until its next yield or return, grounded
// on evaluator/generators.go's advanceGenerator/generatorNext: the single
// vm.currentGenerator field is saved and restored around the handoff so a
// generator whose body itself pulls from another generator nests correctly,
// since only one goroutine is ever actually executing at a time.
func (vm *VM) advanceGenerator(gen *value.Generator, sendVal value.Value) {
	gh := gen.Suspended.(*vmGeneratorHandle)
	prev := vm.currentGenerator
	vm.currentGenerator = gh
	if !gh.started {
		gh.started = true
		go func() {
			v, err := vm.invoke(gh.fn, gh.locals, gh.recvClass)
			gh.lastErr = err
			gh.done <- genResult{val: v}
		}()
	} else {
		gh.in <- sendVal
	}
	select {
	case item := <-gh.out:
		gen.CurrentK = item.key
		gen.CurrentV = item.val
	case res := <-gh.done:
		gen.Done = true
		gen.CurrentV = res.val
		gen.CurrentK = value.Null{}
	}
	vm.currentGenerator = prev
}

// doYield implements the `yield` expression from inside a running
// generator's goroutine: publish (key, value) to whoever is pulling, then
// block until resumed with the value `send()` (or a plain advance) supplies.
func (vm *VM) doYield(key, val value.Value) value.Value {
	gh := vm.currentGenerator
	if gh == nil {
		return value.Null{}
	}
	if key == nil {
		key = value.Null{}
	}
	gh.out <- genItem{key: key, val: val}
	return <-gh.in
}

func ensureGeneratorStarted(vm *VM, gen *value.Generator) {
	if !gen.Suspended.(*vmGeneratorHandle).started {
		vm.advanceGenerator(gen, value.Null{})
	}
}

// generatorMethod implements `$gen->current()/key()/valid()/next()/send()/
// getReturn()`, grounded on evaluator/calls.go's callGeneratorMethod.
func (vm *VM) generatorMethod(gen *value.Generator, method string, positional []value.Value) (value.Value, error) {
	gh := gen.Suspended.(*vmGeneratorHandle)
	switch lower(method) {
	case "current":
		ensureGeneratorStarted(vm, gen)
		return gen.CurrentV, gh.lastErr
	case "key":
		ensureGeneratorStarted(vm, gen)
		return gen.CurrentK, gh.lastErr
	case "valid":
		ensureGeneratorStarted(vm, gen)
		return value.Bool(!gen.Done), gh.lastErr
	case "next":
		ensureGeneratorStarted(vm, gen)
		if !gen.Done {
			vm.advanceGenerator(gen, value.Null{})
		}
		return value.Null{}, gh.lastErr
	case "send":
		var v value.Value = value.Null{}
		if len(positional) > 0 {
			v = positional[0]
		}
		ensureGeneratorStarted(vm, gen)
		if !gen.Done {
			vm.advanceGenerator(gen, v)
		}
		return gen.CurrentV, gh.lastErr
	case "getreturn":
		return gen.CurrentV, gh.lastErr
	}
	return value.Null{}, nil
}

// vmFiberHandle is the VM-backend Fiber.Suspended payload, grounded on
// evaluator/fibers.go's fiberHandle: a blocking channel pair, with exactly
// one of the fiber's own goroutine or its resumer ever runnable.
type vmFiberHandle struct {
	toFiber   chan fiberResumeMsg
	fromFiber chan fiberMsg
}

type fiberResumeMsg struct{ val value.Value }

type fiberMsgKind int

const (
	fiberMsgSuspend fiberMsgKind = iota
	fiberMsgDone
)

type fiberMsg struct {
	kind fiberMsgKind
	val  value.Value
	err  error
}

// newFiberObject implements `new Fiber($callback)`, grounded on
// evaluator/fibers.go's evalNewFiber: the handle lives behind two hidden
// properties on an ordinary Object so Fiber values need no dedicated Value
// variant at the call-site level.
func (vm *VM) newFiberObject(positional []value.Value) (value.Value, error) {
	var callback value.Value = value.Null{}
	if len(positional) > 0 {
		callback = positional[0]
	}
	inst := value.NewObjectInstance("Fiber")
	fh := &vmFiberHandle{toFiber: make(chan fiberResumeMsg), fromFiber: make(chan fiberMsg)}
	inst.SetProperty("__fiber__", &value.Fiber{State: value.FiberNotStarted, Suspended: fh})
	inst.SetProperty("__callback__", callback)
	return value.NewObject(inst), nil
}

func fiberOf(obj *value.Object) (*value.Fiber, bool) {
	v, ok := obj.Instance.GetProperty("__fiber__")
	if !ok {
		return nil, false
	}
	f, ok := v.(*value.Fiber)
	return f, ok
}

// fiberMethod intercepts start/resume/throw/getReturn ahead of ordinary
// method dispatch, mirroring evaluator/fibers.go's callFiberMethod. `throw`
// is simplified to behave like `resume`, forwarding the value into the
// fiber's suspend point rather than injecting a real catchable exception —
// see DESIGN.md.
func (vm *VM) fiberMethod(obj *value.Object, method string, positional []value.Value) (value.Value, bool, error) {
	fiber, ok := fiberOf(obj)
	if !ok {
		return value.Null{}, false, nil
	}
	fh := fiber.Suspended.(*vmFiberHandle)
	switch lower(method) {
	case "start":
		cb, _ := obj.Instance.GetProperty("__callback__")
		prevFiber, prevObj := vm.currentFiber, vm.currentFiberObj
		vm.currentFiber, vm.currentFiberObj = fh, obj
		fiber.State = value.FiberRunning
		go func() {
			v, err := vm.callValue(cb, positional, nil)
			fh.fromFiber <- fiberMsg{kind: fiberMsgDone, val: v, err: err}
		}()
		msg := <-fh.fromFiber
		vm.currentFiber, vm.currentFiberObj = prevFiber, prevObj
		v, err := vm.applyFiberMsg(fiber, msg)
		return v, true, err
	case "resume", "throw":
		var v value.Value = value.Null{}
		if len(positional) > 0 {
			v = positional[0]
		}
		prevFiber, prevObj := vm.currentFiber, vm.currentFiberObj
		vm.currentFiber, vm.currentFiberObj = fh, obj
		fh.toFiber <- fiberResumeMsg{val: v}
		msg := <-fh.fromFiber
		vm.currentFiber, vm.currentFiberObj = prevFiber, prevObj
		rv, err := vm.applyFiberMsg(fiber, msg)
		return rv, true, err
	case "getreturn":
		return fiber.ReturnVal, true, nil
	}
	return value.Null{}, false, nil
}

func (vm *VM) applyFiberMsg(fiber *value.Fiber, msg fiberMsg) (value.Value, error) {
	if msg.kind == fiberMsgDone {
		fiber.State = value.FiberTerminated
		fiber.ReturnVal = msg.val
		return msg.val, msg.err
	}
	fiber.State = value.FiberSuspended
	return msg.val, nil
}

// doFiberSuspend implements `Fiber::suspend($v)` from inside the running
// fiber's goroutine.
func (vm *VM) doFiberSuspend(v value.Value) value.Value {
	fh := vm.currentFiber
	if fh == nil {
		return value.Null{}
	}
	fh.fromFiber <- fiberMsg{kind: fiberMsgSuspend, val: v}
	resume := <-fh.toFiber
	return resume.val
}

func (vm *VM) fiberGetCurrent() value.Value {
	if vm.currentFiberObj != nil {
		return vm.currentFiberObj
	}
	return value.Null{}
}

// newIterState builds the iterator state OpIterInit stores, over either an
// Array snapshot or a Generator handle.
func (vm *VM) newIterState(collection value.Value) *iterState {
	switch c := collection.(type) {
	case *value.Array:
		return &iterState{keys: append([]value.ArrayKey(nil), c.Keys()...), arr: c}
	case *value.Generator:
		return &iterState{gen: c}
	}
	return &iterState{}
}

// iterNext advances it, returning (key, value, ok, err); ok is false once
// the collection is exhausted.
func (vm *VM) iterNext(it *iterState) (value.Value, value.Value, bool, error) {
	if it.arr != nil {
		if it.pos >= len(it.keys) {
			return nil, nil, false, nil
		}
		k := it.keys[it.pos]
		v, _ := it.arr.Get(k)
		it.pos++
		return k.ToValue(), v, true, nil
	}
	if it.gen != nil {
		ensureGeneratorStarted(vm, it.gen)
		if !it.started {
			it.started = true
		} else if !it.gen.Done {
			vm.advanceGenerator(it.gen, value.Null{})
		}
		if it.gen.Done {
			return nil, nil, false, it.gen.Suspended.(*vmGeneratorHandle).lastErr
		}
		return it.gen.CurrentK, it.gen.CurrentV, true, nil
	}
	return nil, nil, false, nil
}
