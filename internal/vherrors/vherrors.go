// Package vherrors provides error formatting for compile-time diagnostics
// and the runtime error kinds of spec.md §7, grounded on the teacher's
// internal/errors/errors.go source-line+caret formatter and
// internal/interp/errors/catalog.go message-table idiom.
package vherrors

import (
	"fmt"
	"strings"

	"github.com/leocavalcante/vhp/internal/token"
	"github.com/leocavalcante/vhp/internal/value"
)

// SourceError is a fatal lex/parse-time diagnostic with full position
// context, rendered with a source-line-and-caret display.
type SourceError struct {
	Pos     token.Position
	Message string
	Source  string
	File    string
}

func (e *SourceError) Error() string { return e.Format() }

// Format renders "<file>:<line>:<col>: message" followed by the offending
// source line and a caret pointing at the column.
func (e *SourceError) Format() string {
	var sb strings.Builder
	if e.File != "" {
		fmt.Fprintf(&sb, "%s:%d:%d: %s\n", e.File, e.Pos.Line, e.Pos.Column, e.Message)
	} else {
		fmt.Fprintf(&sb, "line %d:%d: %s\n", e.Pos.Line, e.Pos.Column, e.Message)
	}
	line := sourceLine(e.Source, e.Pos.Line)
	if line == "" {
		return strings.TrimSuffix(sb.String(), "\n")
	}
	prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
	sb.WriteString(prefix)
	sb.WriteString(line)
	sb.WriteString("\n")
	col := e.Pos.Column - 1
	if col < 0 {
		col = 0
	}
	sb.WriteString(strings.Repeat(" ", len(prefix)+col))
	sb.WriteString("^")
	return sb.String()
}

func sourceLine(source string, n int) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// Kind is one of spec.md §7's runtime error categories.
type Kind string

const (
	KindType       Kind = "Type"
	KindUndefined  Kind = "Undefined"
	KindArgument   Kind = "Argument"
	KindReadonly   Kind = "Readonly"
	KindArithmetic Kind = "Arithmetic"
	KindMatch      Kind = "Match"
	KindStructural Kind = "Structural" // Abstract + Interface merged, per SPEC_FULL.md §7
)

// RuntimeError is a non-catchable runtime failure: it aborts the current
// execution and surfaces to the embedder as "Error: <msg>", per spec.md §7.
type RuntimeError struct {
	Kind    Kind
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func NewRuntimeError(k Kind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Common message-table constants, grounded on the teacher's catalog.go
// "one constant per recurring diagnostic" convention.
const (
	MsgDivisionByZero    = "division by zero"
	MsgModuloByZero      = "modulo by zero"
	MsgUndefinedFunction = "call to undefined function %s()"
	MsgUndefinedMethod   = "call to undefined method %s::%s()"
	MsgUndefinedClass    = "class %q not found"
	MsgUndefinedVariable = "undefined variable $%s"
	MsgNotAnObject       = "attempt to access property %q on non-object"
	MsgNotCallable       = "value of type %s is not callable"
	MsgReadonlyViolation = "cannot modify readonly property %s::$%s"
	MsgAbstractNew       = "cannot instantiate abstract class %s"
	MsgMissingArgument   = "too few arguments: missing required argument $%s"
	MsgUnknownNamedArg   = "unknown named argument $%s"
	MsgPositionalAfterNamed = "cannot use positional argument after named argument"
	MsgUnmatchedMatch    = "unhandled match case %s"
	MsgInterfaceMissing  = "class %s does not implement method %s required by interface %s"
)

// Exception wraps a thrown *value.Exception so it can participate in Go's
// error chain while the evaluator/VM inspect the Exception payload for
// try/catch matching, per spec.md §7's "Exception errors participate in
// try/catch/finally unwinding" propagation policy.
type Exception struct {
	Value *value.Exception
}

func (e *Exception) Error() string { return e.Value.String() }

func NewException(className, message string) *Exception {
	return &Exception{Value: &value.Exception{ClassName: className, Message: message}}
}
