package evaluator

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// fiberHandle is the backend-specific continuation referenced by
// value.Fiber.Suspended. Cooperative scheduling (spec.md §4.6, §5) is
// implemented with a goroutine per fiber and an unbuffered channel pair for
// the handoff: because exactly one side is ever runnable at a time (the
// other is parked on a channel receive), this never runs two fibers
// concurrently despite using goroutines — the idiomatic Go primitive for a
// suspendable continuation when the host has no native coroutine support,
// per spec.md §9's "CPS-transform or explicit saved-frame stack" guidance.
type fiberHandle struct {
	toFiber   chan fiberResumeMsg
	fromFiber chan fiberMsg
}

// fiberResumeMsg is what the resumer sends into a suspended fiber: either a
// plain resume value, or an exception to be raised at the suspension point
// (Fiber::throw).
type fiberResumeMsg struct {
	value value.Value
	exc   *value.Exception
}

type fiberMsgKind int

const (
	fiberMsgSuspend fiberMsgKind = iota
	fiberMsgReturn
	fiberMsgException
)

type fiberMsg struct {
	kind  fiberMsgKind
	value value.Value
	exc   *value.Exception
}

const fiberPropKey = "__fiber__"

// evalNewFiber special-cases `new Fiber($callback)`: Fiber is a built-in
// class with no VHP-source declaration, so it is intercepted ahead of the
// ordinary registry-backed New path.
func (e *Evaluator) evalNewFiber(args []ast.Argument) (value.Value, signal) {
	positional, _, sig := e.evalArgs(args)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	if len(positional) == 0 {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindArgument, vherrors.MsgMissingArgument, "callback"))
	}
	closure, ok := positional[0].(*value.Closure)
	if !ok {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, "Fiber expects a callable"))
	}
	fiber := &value.Fiber{State: value.FiberNotStarted}
	inst := value.NewObjectInstance("Fiber")
	inst.SetProperty(fiberPropKey, fiber)
	inst.SetProperty("__callback__", closure)
	return value.NewObject(inst), noSignal
}

// fiberOf reports whether obj is a Fiber instance and returns its
// handle.
func fiberOf(obj *value.Object) (*value.Fiber, bool) {
	v, ok := obj.Instance.GetProperty(fiberPropKey)
	if !ok {
		return nil, false
	}
	f, ok := v.(*value.Fiber)
	return f, ok
}

// callFiberMethod intercepts method calls on a Fiber instance: start,
// resume, getReturn, throw, isRunning, isSuspended, isTerminated.
func (e *Evaluator) callFiberMethod(obj *value.Object, method string, args []ast.Argument) (value.Value, signal, bool) {
	fiber, ok := fiberOf(obj)
	if !ok {
		return value.Null{}, noSignal, false
	}
	positional, _, sig := e.evalArgs(args)
	if !sig.isNone() {
		return value.Null{}, sig, true
	}
	switch lower(method) {
	case "start":
		return e.fiberStart(obj, fiber, positional), noSignal2(), true
	case "resume":
		var v value.Value = value.Null{}
		if len(positional) > 0 {
			v = positional[0]
		}
		return e.fiberResume(obj, fiber, v), noSignal2(), true
	case "getreturn":
		return fiber.ReturnVal, noSignal, true
	case "isrunning":
		return value.Bool(fiber.State == value.FiberRunning), noSignal, true
	case "issuspended":
		return value.Bool(fiber.State == value.FiberSuspended), noSignal, true
	case "isterminated":
		return value.Bool(fiber.State == value.FiberTerminated), noSignal, true
	case "throw":
		var v value.Value = value.Null{}
		if len(positional) > 0 {
			v = positional[0]
		}
		return e.fiberThrow(obj, fiber, v), noSignal2(), true
	}
	return value.Null{}, noSignal, false
}

// noSignal2 exists only so fiberStart/fiberResume's result line reads
// naturally; it is always noSignal (fiber errors surface through
// getReturn/exception propagation rather than the caller's signal channel
// once the fiber has started, matching spec.md §5's resume/suspend
// boundary semantics).
func noSignal2() signal { return noSignal }

func (e *Evaluator) fiberStart(obj *value.Object, fiber *value.Fiber, args []value.Value) value.Value {
	cbVal, _ := obj.Instance.GetProperty("__callback__")
	closure, _ := cbVal.(*value.Closure)
	h := &fiberHandle{toFiber: make(chan fiberResumeMsg), fromFiber: make(chan fiberMsg)}
	fiber.Suspended = h
	fiber.State = value.FiberRunning

	// The caller's frame state (environment, current object/class, fiber
	// slots) is saved across the handoff and restored once the fiber
	// suspends or finishes.
	saved := *e
	go func() {
		e.currentFiber = h
		e.currentFiberObj = obj
		v, sig := e.invokeClosure(closure, args, nil)
		switch sig.kind {
		case sigException:
			h.fromFiber <- fiberMsg{kind: fiberMsgException, exc: sig.exception}
		default:
			h.fromFiber <- fiberMsg{kind: fiberMsgReturn, value: v}
		}
	}()
	msg := <-h.fromFiber
	*e = saved
	return e.applyFiberMsg(fiber, msg)
}

func (e *Evaluator) fiberResume(obj *value.Object, fiber *value.Fiber, v value.Value) value.Value {
	return e.resumeFiber(obj, fiber, fiberResumeMsg{value: v})
}

// fiberThrow resumes a suspended fiber by raising an exception at its
// Fiber::suspend() call site, rather than handing back a resume value.
func (e *Evaluator) fiberThrow(obj *value.Object, fiber *value.Fiber, v value.Value) value.Value {
	exc := &value.Exception{ClassName: "Exception", Message: value.ToStr(v)}
	if excObj, ok := v.(*value.Object); ok {
		exc.ClassName = excObj.Instance.ClassName
		exc.Instance = excObj.Instance
		if mv, ok := excObj.Instance.GetProperty("message"); ok {
			exc.Message = value.ToStr(mv)
		}
	}
	return e.resumeFiber(obj, fiber, fiberResumeMsg{exc: exc})
}

func (e *Evaluator) resumeFiber(obj *value.Object, fiber *value.Fiber, msg fiberResumeMsg) value.Value {
	h, ok := fiber.Suspended.(*fiberHandle)
	if !ok || fiber.State != value.FiberSuspended {
		return value.Null{}
	}
	fiber.State = value.FiberRunning
	saved := *e
	e.currentFiber, e.currentFiberObj = h, obj
	h.toFiber <- msg
	out := <-h.fromFiber
	*e = saved
	return e.applyFiberMsg(fiber, out)
}

func (e *Evaluator) applyFiberMsg(fiber *value.Fiber, msg fiberMsg) value.Value {
	switch msg.kind {
	case fiberMsgSuspend:
		fiber.State = value.FiberSuspended
		return msg.value
	case fiberMsgReturn:
		fiber.State = value.FiberTerminated
		fiber.ReturnVal = msg.value
		return msg.value
	case fiberMsgException:
		fiber.State = value.FiberTerminated
		return value.Null{}
	}
	return value.Null{}
}

func (e *Evaluator) evalFiberSuspend(x *ast.FiberSuspend) (value.Value, signal) {
	h := e.currentFiber
	if h == nil {
		return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, "Fiber::suspend() called outside a fiber"))
	}
	var v value.Value = value.Null{}
	if x.Value != nil {
		ev, sig := e.eval(x.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		v = ev
	}
	// The fiber's own frame state is restored when it is resumed.
	saved := *e
	h.fromFiber <- fiberMsg{kind: fiberMsgSuspend, value: v}
	resumed := <-h.toFiber
	*e = saved
	if resumed.exc != nil {
		return value.Null{}, exceptionSignal(resumed.exc)
	}
	return resumed.value, noSignal
}

func (e *Evaluator) evalFiberGetCurrent() (value.Value, signal) {
	if e.currentFiberObj == nil {
		return value.Null{}, noSignal
	}
	return e.currentFiberObj, noSignal
}

// Generators are modeled the same way as fibers — a goroutine suspended on
// yield — but keyed to the generator's own handle rather than the shared
// per-evaluator currentFiber slot, since a generator's consumer is its
// caller's frame, not a sibling fiber.
func (e *Evaluator) evalYield(x *ast.Yield) (value.Value, signal) {
	g := e.currentGenerator
	if g == nil {
		return value.Null{}, noSignal
	}
	h := g.Suspended.(*generatorHandle)
	var k, v value.Value = value.Int(h.autoKey), value.Null{}
	if x.Value != nil {
		ev, sig := e.eval(x.Value)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		v = ev
	}
	if x.Key != nil {
		kv, sig := e.eval(x.Key)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		k = kv
	} else {
		h.autoKey++
	}
	h.out <- generatorItem{key: k, value: v}
	sent := <-h.in
	return sent, noSignal
}

func (e *Evaluator) evalYieldFrom(x *ast.YieldFrom) (value.Value, signal) {
	v, sig := e.eval(x.Value)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	arr, ok := v.(*value.Array)
	if !ok {
		return value.Null{}, noSignal
	}
	g := e.currentGenerator
	if g == nil {
		return value.Null{}, noSignal
	}
	h := g.Suspended.(*generatorHandle)
	for _, k := range arr.Keys() {
		item, _ := arr.Get(k)
		h.out <- generatorItem{key: k.ToValue(), value: item}
		<-h.in
	}
	return value.Null{}, noSignal
}
