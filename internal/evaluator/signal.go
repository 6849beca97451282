package evaluator

import "github.com/leocavalcante/vhp/internal/value"

// signalKind tags the control-flow channel every statement execution
// returns, per spec.md §4.4.
type signalKind int

const (
	sigNone signalKind = iota
	sigBreak
	sigContinue
	sigReturn
	sigException
	// sigFatal carries a non-catchable runtime error (spec.md §7's Type,
	// Undefined, Argument, Arithmetic, Match, Structural, Readonly kinds): it bypasses
	// try/catch entirely and aborts execution up to Run.
	sigFatal
)

// signal is the `{None | Break | Continue | Return(Value) | Exception(...)}`
// union spec.md §4.4 describes, threaded through every statement.
type signal struct {
	kind      signalKind
	value     value.Value // for Return
	exception *value.Exception
	fatal     error
	levels    int // remaining break/continue levels to unwind
}

var noSignal = signal{kind: sigNone}

func breakSignal(levels int) signal             { return signal{kind: sigBreak, levels: levels} }
func continueSignal(levels int) signal          { return signal{kind: sigContinue, levels: levels} }
func returnSignal(v value.Value) signal         { return signal{kind: sigReturn, value: v} }
func exceptionSignal(e *value.Exception) signal { return signal{kind: sigException, exception: e} }
func fatalSignal(err error) signal              { return signal{kind: sigFatal, fatal: err} }

func (s signal) isNone() bool      { return s.kind == sigNone }
func (s signal) isLoopLocal() bool { return s.kind == sigBreak || s.kind == sigContinue }

// consumeLoop handles a Break/Continue at a loop boundary: if levels > 1 it
// decrements and keeps propagating; otherwise it is absorbed (Continue) or
// turned into loop exit (Break). Non-loop signals pass through unchanged.
func consumeLoop(s signal) (stop bool, propagate signal) {
	switch s.kind {
	case sigBreak:
		if s.levels > 1 {
			return true, breakSignal(s.levels - 1)
		}
		return true, noSignal
	case sigContinue:
		if s.levels > 1 {
			return true, continueSignal(s.levels - 1)
		}
		return false, noSignal
	default:
		return s.kind != sigNone, s
	}
}
