// Package parser implements a Pratt expression parser combined with a
// recursive-descent statement parser, producing an *ast.Program.
package parser

import (
	"fmt"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/lexer"
	"github.com/leocavalcante/vhp/internal/token"
)

// Precedence ladder, low to high, per spec.md §4.2.
const (
	_ int = iota
	LOWEST
	ASSIGNMENT  // = += -= ...  (right-assoc)
	TERNARY     // ?:
	NULLCOALESCE // ?? (right-assoc)
	LOGIC_OR    // || or
	LOGIC_AND   // && and
	LOGIC_XOR   // xor
	EQUALITY    // == != === !== <=>
	COMPARISON  // < > <= >=
	PIPE_PREC   // |>
	CONCAT      // .
	ADDSUB      // + -
	MULDIV      // * / %
	POW_PREC    // ** (right-assoc)
	UNARY       // ! - ++x --x
	INSTANCEOF_PREC
	CALL // foo(), a[i], a->b, a::b, postfix ++/--
)

var precedences = map[token.Kind]int{
	token.ASSIGN:          ASSIGNMENT,
	token.PLUS_ASSIGN:     ASSIGNMENT,
	token.MINUS_ASSIGN:    ASSIGNMENT,
	token.STAR_ASSIGN:     ASSIGNMENT,
	token.SLASH_ASSIGN:    ASSIGNMENT,
	token.DOT_ASSIGN:      ASSIGNMENT,
	token.PERCENT_ASSIGN:  ASSIGNMENT,
	token.COALESCE_ASSIGN: ASSIGNMENT,
	token.QUESTION:        TERNARY,
	token.COALESCE:        NULLCOALESCE,
	token.OR_OR:           LOGIC_OR,
	token.OR_KW:           LOGIC_OR,
	token.AND_AND:         LOGIC_AND,
	token.AND_KW:          LOGIC_AND,
	token.XOR_KW:          LOGIC_XOR,
	token.EQ:              EQUALITY,
	token.NOT_EQ:          EQUALITY,
	token.IDENTICAL:       EQUALITY,
	token.NOT_IDENTICAL:   EQUALITY,
	token.LT:              COMPARISON,
	token.GT:              COMPARISON,
	token.LT_EQ:           COMPARISON,
	token.GT_EQ:           COMPARISON,
	token.SPACESHIP:       COMPARISON,
	token.PIPE:            PIPE_PREC,
	token.DOT:             CONCAT,
	token.PLUS:            ADDSUB,
	token.MINUS:           ADDSUB,
	token.STAR:            MULDIV,
	token.SLASH:           MULDIV,
	token.PERCENT:         MULDIV,
	token.POW:             POW_PREC,
	token.INSTANCEOF:      INSTANCEOF_PREC,
	token.LPAREN:          CALL,
	token.LBRACKET:        CALL,
	token.ARROW:           CALL,
	token.NULLSAFE_ARROW:  CALL,
	token.DOUBLE_COLON:    CALL,
	token.INCREMENT:       CALL,
	token.DECREMENT:       CALL,
}

type (
	prefixParseFn func() (ast.Expression, error)
	infixParseFn  func(ast.Expression) (ast.Expression, error)
)

// Parser consumes a token stream and builds an *ast.Program.
type Parser struct {
	lex *lexer.Lexer

	cur  token.Token
	peek token.Token

	errors []string

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn

	// save/restore buffer for backtracking decision points (named-argument
	// detection, first-class-callable `(...)`, anonymous class bodies).
	saved []token.Token
}

// New creates a Parser over source text.
func New(source string) *Parser {
	p := &Parser{lex: lexer.New(source)}
	p.prefixParseFns = map[token.Kind]prefixParseFn{}
	p.infixParseFns = map[token.Kind]infixParseFn{}
	p.registerExpressionParsers()

	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns accumulated non-fatal parse diagnostics (tooling use only;
// ParseProgram returns the first error as a Go error per spec.md's "any
// syntax error aborts" policy).
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.cur = p.peek
	var err error
	p.peek, err = p.lex.Next()
	if err != nil {
		p.errors = append(p.errors, err.Error())
		p.peek = token.Token{Kind: token.EOF, Pos: p.cur.Pos}
	}
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.curIs(k) {
		return token.Token{}, p.errorf("expected %s, got %s %q", k, p.cur.Kind, p.cur.Literal)
	}
	t := p.cur
	p.nextToken()
	return t, nil
}

func (p *Parser) expectPeek(k token.Kind) error {
	if !p.peekIs(k) {
		return p.errorf("expected next token to be %s, got %s %q", k, p.peek.Kind, p.peek.Literal)
	}
	p.nextToken()
	return nil
}

// ParseError is a fatal syntax error with full position context, per
// spec.md §4.2's failure model.
type ParseError struct {
	Pos     token.Position
	Message string
	Token   token.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s (got %s %q)", e.Pos, e.Message, e.Token.Kind, e.Token.Literal)
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...), Token: p.cur}
}

// ParseProgram parses the whole token stream into an *ast.Program, aborting
// with the first syntax error encountered.
func ParseProgram(source string) (*ast.Program, error) {
	p := New(source)
	return p.Parse()
}

// Parse runs the statement-level loop until EOF.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog, nil
}

// mark/reset implement the n-token lookahead save/restore the spec calls for
// at specific decision points. It snapshots the lexer and the two live
// tokens; callers must not have consumed tokens from before the mark.
type mark struct {
	lexState lexer.Lexer
	cur      token.Token
	peek     token.Token
}

func (p *Parser) mark() mark {
	return mark{lexState: *p.lex, cur: p.cur, peek: p.peek}
}

func (p *Parser) reset(m mark) {
	*p.lex = m.lexState
	p.cur = m.cur
	p.peek = m.peek
}
