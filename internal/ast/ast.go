// Package ast defines the abstract syntax tree produced by the parser.
package ast

import "github.com/leocavalcante/vhp/internal/token"

// Node is the base interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	Pos() token.Position
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// Program is the root node: the whole compiled source file.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{}
}

// Param is a function/method/closure parameter.
type Param struct {
	Name       string
	Default    Expression // may be nil
	Variadic   bool
	ByRef      bool
	Visibility string // "", "public", "protected", "private" — promoted property marker
	Readonly   bool
	Attributes []*AttributeGroup
	Token      token.Token
}

// Attribute is a single #[Name(args...)] entry.
type Attribute struct {
	Name string
	Args []Argument
}

// AttributeGroup is one #[...] block, possibly holding several attributes.
type AttributeGroup struct {
	Attributes []Attribute
	Token      token.Token
}

// Argument is a call argument, optionally named.
type Argument struct {
	Name  string // "" if positional
	Value Expression
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ExprBase is embedded by every Expression node to supply TokenLiteral/Pos.
type ExprBase struct{ Tok token.Token }

func (b ExprBase) TokenLiteral() string { return b.Tok.Literal }
func (b ExprBase) Pos() token.Position  { return b.Tok.Pos }
func (ExprBase) expressionNode()        {}

// NewExprBase constructs an ExprBase anchored at tok.
func NewExprBase(tok token.Token) ExprBase { return ExprBase{Tok: tok} }

// StmtBase is embedded by every Statement node to supply TokenLiteral/Pos.
type StmtBase struct{ Tok token.Token }

func (b StmtBase) TokenLiteral() string { return b.Tok.Literal }
func (b StmtBase) Pos() token.Position  { return b.Tok.Pos }
func (StmtBase) statementNode()         {}

// NewStmtBase constructs a StmtBase anchored at tok.
func NewStmtBase(tok token.Token) StmtBase { return StmtBase{Tok: tok} }

// IntegerLiteral is an integer constant.
type IntegerLiteral struct {
	ExprBase
	Value int64
}

// FloatLiteral is a float constant.
type FloatLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral is a string constant (already escape-processed by the lexer).
type StringLiteral struct {
	ExprBase
	Value string
}

// BoolLiteral is true/false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// NullLiteral is the null keyword.
type NullLiteral struct{ ExprBase }

// Variable is a $name reference.
type Variable struct {
	ExprBase
	Name string
}

// ArrayItem is one entry of an array literal; Key is nil for list-style items.
type ArrayItem struct {
	Key    Expression
	Value  Expression
	Spread bool
}

// ArrayLiteral is `[...]`.
type ArrayLiteral struct {
	ExprBase
	Items []ArrayItem
}

// Identifier is a bare name: function name, class name, constant.
type Identifier struct {
	ExprBase
	Name string
}

// Prefix is a unary prefix operator: -x, !x, ++x, --x.
type Prefix struct {
	ExprBase
	Operator string
	Right    Expression
}

// Postfix is a unary postfix operator: x++, x--.
type Postfix struct {
	ExprBase
	Operator string
	Left     Expression
}

// Infix is a binary operator expression.
type Infix struct {
	ExprBase
	Operator string
	Left     Expression
	Right    Expression
}

// Assign is `target = value` or a compound assignment (`+=`, etc.).
type Assign struct {
	ExprBase
	Operator string // "=", "+=", "-=", ".=", "??=", ...
	Target   Expression
	Value    Expression
}

// Ternary is `cond ? then : else`; Then may be nil for the `cond ?: else` short form.
type Ternary struct {
	ExprBase
	Cond Expression
	Then Expression
	Else Expression
}

// Index is `arr[expr]`; Index is nil for the append marker `arr[]`.
type Index struct {
	ExprBase
	Left  Expression
	Index Expression
}

// PropertyAccess is `expr->name` (or `expr?->name` when NullSafe is true).
type PropertyAccess struct {
	ExprBase
	Object   Expression
	Name     string       // static name, or "" if NameExpr is set ($obj->{$expr})
	NameExpr Expression
	NullSafe bool
}

// StaticAccess is `Class::member` — could resolve to a constant, static
// property (Name starts with "$" in source but stored without the sigil and
// IsProperty=true), class constant, or enum case at evaluation time.
type StaticAccess struct {
	ExprBase
	Class      Expression // Identifier, "self", "static", "parent", or an expr
	Name       string
	IsProperty bool
}

// Call is a function/closure/callable invocation, `callee(args...)`.
type Call struct {
	ExprBase
	Callee Expression
	Args   []Argument
}

// MethodCall is `obj->method(args...)`.
type MethodCall struct {
	ExprBase
	Object   Expression
	Method   string
	Args     []Argument
	NullSafe bool
}

// StaticCall is `Class::method(args...)`.
type StaticCall struct {
	ExprBase
	Class  Expression
	Method string
	Args   []Argument
}

// CallableFromFunc is the first-class-callable form `func(...)`.
type CallableFromFunc struct {
	ExprBase
	Name string
}

// CallableFromMethod is `$obj->method(...)`.
type CallableFromMethod struct {
	ExprBase
	Object Expression
	Method string
}

// CallableFromStatic is `Class::method(...)`.
type CallableFromStatic struct {
	ExprBase
	Class  Expression
	Method string
}

// New is `new ClassExpr(args...)`.
type New struct {
	ExprBase
	Class Expression
	Args  []Argument
}

// Clone is `clone expr` or `clone expr with { prop: val, ... }`.
type Clone struct {
	ExprBase
	Value Expression
	With  []ArrayItem // Key is an Identifier holding the property name
}

// MatchArm is one arm of a match expression; Conds is nil for the default arm.
type MatchArm struct {
	Conds  []Expression
	Result Expression
}

// Match is a `match (subject) { arms... }` expression.
type Match struct {
	ExprBase
	Subject Expression
	Arms    []MatchArm
}

// ThrowExpr is `throw expr` used as an expression.
type ThrowExpr struct {
	ExprBase
	Value Expression
}

// Yield is `yield`, `yield expr`, `yield key => expr`.
type Yield struct {
	ExprBase
	Key   Expression
	Value Expression
}

// YieldFrom is `yield from expr`.
type YieldFrom struct {
	ExprBase
	Value Expression
}

// FunctionLiteral is an anonymous `function(...) use (...) {...}` / arrow `fn(...) => expr`.
type FunctionLiteral struct {
	ExprBase
	Params     []Param
	Body       []Statement // nil for arrow functions
	ArrowBody  Expression  // non-nil for arrow functions
	Uses       []string
	UsesByRef  []bool
	IsStatic   bool
	ByRef      bool
}

// Pipe is `lhs |> rhs`; rhs must parse as a Call/MethodCall/StaticCall whose
// argument list may contain a Placeholder.
type Pipe struct {
	ExprBase
	Left  Expression
	Right Expression
}

// Placeholder is the `...` marker used inside a pipe's argument list.
type Placeholder struct{ ExprBase }

// MagicConstant is `__LINE__`, `__CLASS__`, `__FUNCTION__`, `__METHOD__`.
type MagicConstant struct {
	ExprBase
	Name string
}

// FiberSuspend is `Fiber::suspend(expr?)`.
type FiberSuspend struct {
	ExprBase
	Value Expression
}

// FiberGetCurrent is `Fiber::getCurrent()`.
type FiberGetCurrent struct{ ExprBase }

// InstanceOf is `expr instanceof ClassExpr`.
type InstanceOf struct {
	ExprBase
	Left  Expression
	Class Expression
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	StmtBase
	Expr Expression
}

// InlineHTML is a raw literal-mode text chunk emitted verbatim.
type InlineHTML struct {
	StmtBase
	Text string
}

// Echo is `echo expr, expr, ...;`.
type Echo struct {
	StmtBase
	Values []Expression
}

// Block is `{ stmts... }`.
type Block struct {
	StmtBase
	Statements []Statement
}

// If is `if (cond) then else elseifs/else`.
type ElseIf struct {
	Cond Expression
	Body Statement
}

type If struct {
	StmtBase
	Cond     Expression
	Then     Statement
	ElseIfs  []ElseIf
	Else     Statement // nil if absent
}

// While is `while (cond) body`.
type While struct {
	StmtBase
	Cond Expression
	Body Statement
}

// DoWhile is `do body while (cond);`.
type DoWhile struct {
	StmtBase
	Body Statement
	Cond Expression
}

// For is a classic C-style for loop; any clause may be nil/empty.
type For struct {
	StmtBase
	Init   []Expression
	Cond   Expression
	Update []Expression
	Body   Statement
}

// Foreach is `foreach (expr as [$k =>] $v) body`.
type Foreach struct {
	StmtBase
	Collection Expression
	KeyVar     string // "" if absent
	ValueVar   string
	ByRef      bool
	Body       Statement
}

// SwitchCase is one `case expr:`/`default:` clause with fall-through body.
type SwitchCase struct {
	Cond       Expression // nil for default
	Statements []Statement
}

// Switch is a `switch (subject) { cases... }` statement.
type Switch struct {
	StmtBase
	Subject Expression
	Cases   []SwitchCase
}

// Break is `break;` (optionally `break N;`).
type Break struct {
	StmtBase
	Levels int
}

// Continue is `continue;` (optionally `continue N;`).
type Continue struct {
	StmtBase
	Levels int
}

// Return is `return expr?;`.
type Return struct {
	StmtBase
	Value Expression // nil for bare return
}

// FunctionDecl is a top-level/nested named function declaration.
type FunctionDecl struct {
	StmtBase
	Name       string
	Params     []Param
	Body       []Statement
	ByRef      bool
	Attributes []*AttributeGroup
}

// PropertyDecl is a class property declaration.
type PropertyDecl struct {
	Name       string
	Visibility string // "public", "protected", "private"
	Static     bool
	Readonly   bool
	Default    Expression
	Attributes []*AttributeGroup
}

// MethodDecl is a class/interface/trait method declaration.
type MethodDecl struct {
	Name       string
	Visibility string
	Static     bool
	Abstract   bool
	Final      bool
	Params     []Param
	Body       []Statement // nil if abstract/interface
	Attributes []*AttributeGroup
}

// ConstDecl is a class constant declaration.
type ConstDecl struct {
	Name  string
	Value Expression
}

// TraitUse is `use Trait1, Trait2 { resolutions... };`.
type TraitUse struct {
	Traits      []string
	Resolutions []string // raw resolution clauses, kept for fidelity; unused by the evaluator
}

// ClassDecl declares a class.
type ClassDecl struct {
	StmtBase
	Name       string
	Parent     string
	Interfaces []string
	Abstract   bool
	Final      bool
	Readonly   bool
	Uses       []TraitUse
	Properties []PropertyDecl
	Methods    []MethodDecl
	Consts     []ConstDecl
	Attributes []*AttributeGroup
}

// InterfaceDecl declares an interface.
type InterfaceDecl struct {
	StmtBase
	Name       string
	Extends    []string
	Methods    []MethodDecl
	Consts     []ConstDecl
	Attributes []*AttributeGroup
}

// TraitDecl declares a trait.
type TraitDecl struct {
	StmtBase
	Name       string
	Uses       []TraitUse
	Properties []PropertyDecl
	Methods    []MethodDecl
	Attributes []*AttributeGroup
}

// EnumCaseDecl is one `case Name = value;` inside an enum.
type EnumCaseDecl struct {
	Name  string
	Value Expression // nil for pure (unbacked) enums
}

// EnumDecl declares an enum.
type EnumDecl struct {
	StmtBase
	Name        string
	BackingType string // "", "int", "string"
	Interfaces  []string
	Cases       []EnumCaseDecl
	Methods     []MethodDecl
	Consts      []ConstDecl
	Attributes  []*AttributeGroup
}

// CatchClause is one `catch (Type1|Type2 $var) { ... }` clause.
type CatchClause struct {
	Types   []string
	VarName string // "" if no binding
	Body    []Statement
}

// Try is `try { } catch (...) { } finally { }`.
type Try struct {
	StmtBase
	Body    []Statement
	Catches []CatchClause
	Finally []Statement // nil if absent
}

// Throw is `throw expr;` used as a statement.
type Throw struct {
	StmtBase
	Value Expression
}

// GlobalStmt is `global $a, $b;`.
type GlobalStmt struct {
	StmtBase
	Names []string
}

// ConstStmt is a top-level `const NAME = expr;`.
type ConstStmt struct {
	StmtBase
	Name  string
	Value Expression
}
