// Package token defines the lexical token kinds produced by the VHP lexer
// and consumed by the parser.
package token

import "fmt"

// Kind identifies the category of a token.
type Kind int

// Token kind constants, grouped by category.
const (
	ILLEGAL Kind = iota
	EOF

	// Literal text output (outside code mode).
	INLINE_HTML

	// Identifiers and literals.
	IDENT    // foo, MyClass
	VARIABLE // $foo
	INT      // 123
	FLOAT    // 1.5
	STRING   // 'hi' or "hi"

	literalEnd

	// Keywords.
	keywordStart
	ECHO
	IF
	ELSEIF
	ELSE
	ENDIF
	WHILE
	ENDWHILE
	DO
	FOR
	ENDFOR
	FOREACH
	ENDFOREACH
	AS
	SWITCH
	ENDSWITCH
	CASE
	DEFAULT
	BREAK
	CONTINUE
	RETURN
	FUNCTION
	FN
	CLASS
	INTERFACE
	TRAIT
	ENUM
	EXTENDS
	IMPLEMENTS
	USE
	NEW
	CLONE
	MATCH
	THROW
	TRY
	CATCH
	FINALLY
	YIELD
	FROM
	STATIC
	PUBLIC
	PROTECTED
	PRIVATE
	ABSTRACT
	FINAL
	READONLY
	CONST
	NULL
	TRUE
	FALSE
	INSTANCEOF
	GLOBAL
	NAMESPACE
	keywordEnd

	// Punctuation & operators.
	ASSIGN       // =
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	STAR_ASSIGN  // *=
	SLASH_ASSIGN // /=
	DOT_ASSIGN   // .=
	PERCENT_ASSIGN
	COALESCE_ASSIGN // ??=

	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	POW // **
	DOT // .

	EQ        // ==
	NOT_EQ    // !=
	IDENTICAL // ===
	NOT_IDENTICAL
	LT
	GT
	LT_EQ
	GT_EQ
	SPACESHIP // <=>

	AND_AND // &&
	OR_OR   // ||
	BANG    // !
	AND_KW  // and
	OR_KW   // or
	XOR_KW  // xor

	QUESTION      // ?
	COALESCE      // ??
	COLON         // :
	DOUBLE_COLON  // ::
	ARROW         // ->
	NULLSAFE_ARROW // ?->
	FAT_ARROW     // =>
	PIPE          // |>
	ELLIPSIS      // ...

	INCREMENT // ++
	DECREMENT // --

	AMP // &

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	SEMICOLON
	COMMA
	HASH // #[  (attribute open)
	AT   // @

	OPEN_TAG  // <?php / <?=
	CLOSE_TAG // ?>
)

var names = map[Kind]string{
	ILLEGAL:         "ILLEGAL",
	EOF:             "EOF",
	INLINE_HTML:     "INLINE_HTML",
	IDENT:           "IDENT",
	VARIABLE:        "VARIABLE",
	INT:             "INT",
	FLOAT:           "FLOAT",
	STRING:          "STRING",
	ECHO:            "echo",
	IF:              "if",
	ELSEIF:          "elseif",
	ELSE:            "else",
	ENDIF:           "endif",
	WHILE:           "while",
	ENDWHILE:        "endwhile",
	DO:              "do",
	FOR:             "for",
	ENDFOR:          "endfor",
	FOREACH:         "foreach",
	ENDFOREACH:      "endforeach",
	AS:              "as",
	SWITCH:          "switch",
	ENDSWITCH:       "endswitch",
	CASE:            "case",
	DEFAULT:         "default",
	BREAK:           "break",
	CONTINUE:        "continue",
	RETURN:          "return",
	FUNCTION:        "function",
	FN:              "fn",
	CLASS:           "class",
	INTERFACE:       "interface",
	TRAIT:           "trait",
	ENUM:            "enum",
	EXTENDS:         "extends",
	IMPLEMENTS:      "implements",
	USE:             "use",
	NEW:             "new",
	CLONE:           "clone",
	MATCH:           "match",
	THROW:           "throw",
	TRY:             "try",
	CATCH:           "catch",
	FINALLY:         "finally",
	YIELD:           "yield",
	FROM:            "from",
	STATIC:          "static",
	PUBLIC:          "public",
	PROTECTED:       "protected",
	PRIVATE:         "private",
	ABSTRACT:        "abstract",
	FINAL:           "final",
	READONLY:        "readonly",
	CONST:           "const",
	NULL:            "null",
	TRUE:            "true",
	FALSE:           "false",
	INSTANCEOF:      "instanceof",
	GLOBAL:          "global",
	NAMESPACE:       "namespace",
	ASSIGN:          "=",
	PLUS_ASSIGN:     "+=",
	MINUS_ASSIGN:    "-=",
	STAR_ASSIGN:     "*=",
	SLASH_ASSIGN:    "/=",
	DOT_ASSIGN:      ".=",
	PERCENT_ASSIGN:  "%=",
	COALESCE_ASSIGN: "??=",
	PLUS:            "+",
	MINUS:           "-",
	STAR:            "*",
	SLASH:           "/",
	PERCENT:         "%",
	POW:             "**",
	DOT:             ".",
	EQ:              "==",
	NOT_EQ:          "!=",
	IDENTICAL:       "===",
	NOT_IDENTICAL:   "!==",
	LT:              "<",
	GT:              ">",
	LT_EQ:           "<=",
	GT_EQ:           ">=",
	SPACESHIP:       "<=>",
	AND_AND:         "&&",
	OR_OR:           "||",
	BANG:            "!",
	AND_KW:          "and",
	OR_KW:           "or",
	XOR_KW:          "xor",
	QUESTION:        "?",
	COALESCE:        "??",
	COLON:           ":",
	DOUBLE_COLON:    "::",
	ARROW:           "->",
	NULLSAFE_ARROW:  "?->",
	FAT_ARROW:       "=>",
	PIPE:            "|>",
	ELLIPSIS:        "...",
	INCREMENT:       "++",
	DECREMENT:       "--",
	AMP:             "&",
	LPAREN:          "(",
	RPAREN:          ")",
	LBRACE:          "{",
	RBRACE:          "}",
	LBRACKET:        "[",
	RBRACKET:        "]",
	SEMICOLON:       ";",
	COMMA:           ",",
	HASH:            "#[",
	AT:              "@",
	OPEN_TAG:        "<?php",
	CLOSE_TAG:       "?>",
}

// String returns a human-readable name for the token kind.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k falls in the keyword range.
func (k Kind) IsKeyword() bool { return k > keywordStart && k < keywordEnd }

// keywords maps lowercase spellings to their Kind. Keyword matching is
// case-insensitive, matching spec.md §4.1.
var keywords = map[string]Kind{
	"echo": ECHO, "if": IF, "elseif": ELSEIF, "else": ELSE, "endif": ENDIF,
	"while": WHILE, "endwhile": ENDWHILE, "do": DO, "for": FOR, "endfor": ENDFOR,
	"foreach": FOREACH, "endforeach": ENDFOREACH, "as": AS,
	"switch": SWITCH, "endswitch": ENDSWITCH, "case": CASE, "default": DEFAULT,
	"break": BREAK, "continue": CONTINUE, "return": RETURN,
	"function": FUNCTION, "fn": FN,
	"class": CLASS, "interface": INTERFACE, "trait": TRAIT, "enum": ENUM,
	"extends": EXTENDS, "implements": IMPLEMENTS, "use": USE,
	"new": NEW, "clone": CLONE, "match": MATCH,
	"throw": THROW, "try": TRY, "catch": CATCH, "finally": FINALLY,
	"yield": YIELD, "from": FROM, "static": STATIC,
	"public": PUBLIC, "protected": PROTECTED, "private": PRIVATE,
	"abstract": ABSTRACT, "final": FINAL, "readonly": READONLY, "const": CONST,
	"null": NULL, "true": TRUE, "false": FALSE,
	"instanceof": INSTANCEOF, "global": GLOBAL, "namespace": NAMESPACE,
	"and": AND_KW, "or": OR_KW, "xor": XOR_KW,
}

// LookupKeyword returns the keyword Kind for ident (case-insensitive match)
// and true, or (IDENT, false) if ident is not a keyword.
func LookupKeyword(lowered string) (Kind, bool) {
	k, ok := keywords[lowered]
	return k, ok
}

// Position is a 1-based line/column plus 0-based byte offset into the source.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String renders "line:column".
func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Token is a single lexical token with its source position.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
}

// String renders the token for debugging.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Literal, t.Pos)
}
