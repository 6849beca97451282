package vherrors

import (
	"strings"
	"testing"

	"github.com/leocavalcante/vhp/internal/token"
)

func TestSourceErrorFormat(t *testing.T) {
	e := &SourceError{
		Pos:     token.Position{Line: 2, Column: 5},
		Message: "unexpected token",
		Source:  "<?php\necho $;\n",
		File:    "test.php",
	}
	got := e.Format()
	if !strings.Contains(got, "test.php:2:5: unexpected token") {
		t.Errorf("Format() = %q, missing file:line:col header", got)
	}
	if !strings.Contains(got, "echo $;") {
		t.Errorf("Format() = %q, missing offending source line", got)
	}
	if !strings.Contains(got, "^") {
		t.Errorf("Format() = %q, missing caret", got)
	}
}

func TestSourceErrorFormatWithoutFile(t *testing.T) {
	e := &SourceError{Pos: token.Position{Line: 1, Column: 1}, Message: "boom"}
	got := e.Format()
	if !strings.HasPrefix(got, "line 1:1: boom") {
		t.Errorf("Format() = %q, want line-prefixed header with no source line", got)
	}
}

func TestNewRuntimeErrorFormatsMessage(t *testing.T) {
	err := NewRuntimeError(KindType, MsgNotCallable, "Array")
	if err.Kind != KindType {
		t.Errorf("Kind = %v, want %v", err.Kind, KindType)
	}
	want := "value of type Array is not callable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestExceptionErrorDelegatesToValue(t *testing.T) {
	exc := NewException("RuntimeException", "bad input")
	if exc.Value.ClassName != "RuntimeException" {
		t.Errorf("ClassName = %q, want RuntimeException", exc.Value.ClassName)
	}
	if !strings.Contains(exc.Error(), "bad input") {
		t.Errorf("Error() = %q, want it to mention the message", exc.Error())
	}
}
