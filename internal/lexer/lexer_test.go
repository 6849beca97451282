package lexer

import (
	"testing"

	"github.com/leocavalcante/vhp/internal/token"
)

func TestLexInlineHTMLBeforeOpenTag(t *testing.T) {
	l := New("hello <?php echo 1;")
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Kind != token.INLINE_HTML || tok.Literal != "hello " {
		t.Errorf("first token = %v %q, want INLINE_HTML %q", tok.Kind, tok.Literal, "hello ")
	}
	tok, err = l.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Kind != token.ECHO {
		t.Errorf("second token kind = %v, want ECHO", tok.Kind)
	}
}

func TestLexShortEchoEmitsEchoToken(t *testing.T) {
	l := New("<?= 1;")
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Kind != token.ECHO {
		t.Errorf("first code-mode token = %v, want ECHO for <?=", tok.Kind)
	}
}

func TestLexVariableAndIdentifier(t *testing.T) {
	l := New("<?php $foo bar")
	kinds := []token.Kind{}
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if tok.Kind == token.EOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []token.Kind{token.VARIABLE, token.IDENT}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("kinds[%d] = %v, want %v", i, kinds[i], k)
		}
	}
}

func TestLexKeywordIsCaseInsensitive(t *testing.T) {
	l := New("<?php ECHO")
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Kind != token.ECHO {
		t.Errorf("ECHO (uppercase) lexed as %v, want ECHO keyword", tok.Kind)
	}
}

func TestLexTerminatesWithEOF(t *testing.T) {
	l := New("<?php echo 1;")
	var last token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		last = tok
		if tok.Kind == token.EOF {
			break
		}
	}
	if last.Kind != token.EOF {
		t.Errorf("final token = %v, want EOF", last.Kind)
	}
}
