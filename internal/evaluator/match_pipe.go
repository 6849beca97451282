package evaluator

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// evalMatch implements spec.md §4.4's strict-equality match expression.
func (e *Evaluator) evalMatch(x *ast.Match) (value.Value, signal) {
	subject, sig := e.eval(x.Subject)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	for _, arm := range x.Arms {
		if arm.Conds == nil { // default arm
			return e.eval(arm.Result)
		}
		for _, cond := range arm.Conds {
			cv, sig := e.eval(cond)
			if !sig.isNone() {
				return value.Null{}, sig
			}
			if value.StrictEqual(subject, cv) {
				return e.eval(arm.Result)
			}
		}
	}
	return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindMatch, vherrors.MsgUnmatchedMatch, subject.String()))
}

// evalPipe implements spec.md §4.4's `|>` operator: the RHS must be a call
// expression; a Placeholder argument substitutes the LHS value at that
// position, otherwise the LHS is prepended as the first argument.
func (e *Evaluator) evalPipe(x *ast.Pipe) (value.Value, signal) {
	lhs, sig := e.eval(x.Left)
	if !sig.isNone() {
		return value.Null{}, sig
	}
	switch rhs := x.Right.(type) {
	case *ast.Call:
		args, sig := e.substitutePipeArgs(rhs.Args, lhs)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		return e.evalCall(&ast.Call{Callee: rhs.Callee, Args: args, ExprBase: rhs.ExprBase})
	case *ast.MethodCall:
		args, sig := e.substitutePipeArgs(rhs.Args, lhs)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		return e.evalMethodCall(&ast.MethodCall{Object: rhs.Object, Method: rhs.Method, Args: args, NullSafe: rhs.NullSafe, ExprBase: rhs.ExprBase})
	case *ast.StaticCall:
		args, sig := e.substitutePipeArgs(rhs.Args, lhs)
		if !sig.isNone() {
			return value.Null{}, sig
		}
		return e.evalStaticCall(&ast.StaticCall{Class: rhs.Class, Method: rhs.Method, Args: args, ExprBase: rhs.ExprBase})
	}
	return value.Null{}, e.raiseRuntime(vherrors.NewRuntimeError(vherrors.KindType, "pipe right-hand side must be a call expression"))
}

// substitutePipeArgs rewrites a placeholder `...` argument into a literal
// holding lhs; if no placeholder is present, lhs is prepended.
func (e *Evaluator) substitutePipeArgs(args []ast.Argument, lhs value.Value) ([]ast.Argument, signal) {
	lit := literalArg(lhs)
	out := make([]ast.Argument, 0, len(args)+1)
	found := false
	for _, a := range args {
		if _, ok := a.Value.(*ast.Placeholder); ok {
			out = append(out, ast.Argument{Name: a.Name, Value: lit})
			found = true
			continue
		}
		out = append(out, a)
	}
	if !found {
		out = append([]ast.Argument{{Value: lit}}, out...)
	}
	return out, noSignal
}

// literalArg wraps an already-evaluated runtime value as a synthetic AST
// expression node so it can be spliced back into an argument list destined
// for the ordinary call-evaluation path.
func literalArg(v value.Value) ast.Expression {
	return &precomputed{v: v}
}

// precomputed is a minimal ast.Expression wrapping a value already
// produced by evaluation, used only internally by the pipe operator.
type precomputed struct {
	ast.ExprBase
	v value.Value
}
