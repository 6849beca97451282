package parser

import (
	"testing"

	"github.com/leocavalcante/vhp/internal/ast"
)

func TestParseProgramEcho(t *testing.T) {
	prog, err := ParseProgram(`<?php echo "a" . (1+2);`)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("Statements = %d, want 1", len(prog.Statements))
	}
	echo, ok := prog.Statements[0].(*ast.Echo)
	if !ok {
		t.Fatalf("Statements[0] = %T, want *ast.Echo", prog.Statements[0])
	}
	if len(echo.Values) != 1 {
		t.Errorf("Echo.Values = %d, want 1", len(echo.Values))
	}
}

func TestParseProgramRejectsMalformedSource(t *testing.T) {
	_, err := ParseProgram(`<?php echo ;`)
	if err == nil {
		t.Fatal("expected a parse error for an empty echo expression")
	}
}

func TestParseProgramFunctionDecl(t *testing.T) {
	prog, err := ParseProgram(`<?php function sub($a, $b) { return $a - $b; }`)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("Statements = %d, want 1", len(prog.Statements))
	}
	fn, ok := prog.Statements[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("Statements[0] = %T, want *ast.FunctionDecl", prog.Statements[0])
	}
	if fn.Name != "sub" {
		t.Errorf("Name = %q, want %q", fn.Name, "sub")
	}
}
