package parser

import (
	"strconv"
	"strings"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/token"
)

func (p *Parser) registerExpressionParsers() {
	p.prefixParseFns[token.INT] = p.parseIntegerLiteral
	p.prefixParseFns[token.FLOAT] = p.parseFloatLiteral
	p.prefixParseFns[token.STRING] = p.parseStringLiteral
	p.prefixParseFns[token.TRUE] = p.parseBoolLiteral
	p.prefixParseFns[token.FALSE] = p.parseBoolLiteral
	p.prefixParseFns[token.NULL] = p.parseNullLiteral
	p.prefixParseFns[token.VARIABLE] = p.parseVariable
	p.prefixParseFns[token.IDENT] = p.parseIdentifierExpr
	p.prefixParseFns[token.STATIC] = p.parseIdentifierExpr
	p.prefixParseFns[token.LPAREN] = p.parseGroupedExpr
	p.prefixParseFns[token.LBRACKET] = p.parseArrayLiteral
	p.prefixParseFns[token.BANG] = p.parsePrefixExpr
	p.prefixParseFns[token.MINUS] = p.parsePrefixExpr
	p.prefixParseFns[token.PLUS] = p.parsePrefixExpr
	p.prefixParseFns[token.INCREMENT] = p.parsePrefixExpr
	p.prefixParseFns[token.DECREMENT] = p.parsePrefixExpr
	p.prefixParseFns[token.AT] = p.parsePrefixExpr
	p.prefixParseFns[token.NEW] = p.parseNewExpr
	p.prefixParseFns[token.CLONE] = p.parseCloneExpr
	p.prefixParseFns[token.MATCH] = p.parseMatchExpr
	p.prefixParseFns[token.FN] = p.parseArrowFunction
	p.prefixParseFns[token.FUNCTION] = p.parseClosureExpr
	p.prefixParseFns[token.THROW] = p.parseThrowExpr
	p.prefixParseFns[token.YIELD] = p.parseYieldExpr
	p.prefixParseFns[token.ELLIPSIS] = p.parsePlaceholderExpr

	p.infixParseFns[token.PLUS] = p.parseInfixExpr
	p.infixParseFns[token.MINUS] = p.parseInfixExpr
	p.infixParseFns[token.STAR] = p.parseInfixExpr
	p.infixParseFns[token.SLASH] = p.parseInfixExpr
	p.infixParseFns[token.PERCENT] = p.parseInfixExpr
	p.infixParseFns[token.POW] = p.parsePowExpr
	p.infixParseFns[token.DOT] = p.parseInfixExpr
	p.infixParseFns[token.EQ] = p.parseInfixExpr
	p.infixParseFns[token.NOT_EQ] = p.parseInfixExpr
	p.infixParseFns[token.IDENTICAL] = p.parseInfixExpr
	p.infixParseFns[token.NOT_IDENTICAL] = p.parseInfixExpr
	p.infixParseFns[token.LT] = p.parseInfixExpr
	p.infixParseFns[token.GT] = p.parseInfixExpr
	p.infixParseFns[token.LT_EQ] = p.parseInfixExpr
	p.infixParseFns[token.GT_EQ] = p.parseInfixExpr
	p.infixParseFns[token.SPACESHIP] = p.parseInfixExpr
	p.infixParseFns[token.AND_AND] = p.parseInfixExpr
	p.infixParseFns[token.OR_OR] = p.parseInfixExpr
	p.infixParseFns[token.AND_KW] = p.parseInfixExpr
	p.infixParseFns[token.OR_KW] = p.parseInfixExpr
	p.infixParseFns[token.XOR_KW] = p.parseInfixExpr
	p.infixParseFns[token.INSTANCEOF] = p.parseInstanceOf
	p.infixParseFns[token.PIPE] = p.parsePipeExpr
	p.infixParseFns[token.COALESCE] = p.parseCoalesceExpr
	p.infixParseFns[token.QUESTION] = p.parseTernaryExpr
	p.infixParseFns[token.ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.PLUS_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.MINUS_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.STAR_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.SLASH_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.DOT_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.PERCENT_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.COALESCE_ASSIGN] = p.parseAssignExpr
	p.infixParseFns[token.LPAREN] = p.parseCallExpr
	p.infixParseFns[token.LBRACKET] = p.parseIndexExpr
	p.infixParseFns[token.ARROW] = p.parsePropertyOrMethod
	p.infixParseFns[token.NULLSAFE_ARROW] = p.parsePropertyOrMethod
	p.infixParseFns[token.DOUBLE_COLON] = p.parseStaticAccess
	p.infixParseFns[token.INCREMENT] = p.parsePostfixExpr
	p.infixParseFns[token.DECREMENT] = p.parsePostfixExpr
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Kind]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return LOWEST
}

// parseExpression climbs precedence per spec.md §4.2's Pratt algorithm.
// On return, p.cur is the last token of the parsed expression.
func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	prefix, ok := p.prefixParseFns[p.cur.Kind]
	if !ok {
		return nil, p.errorf("no prefix parse function for %s", p.cur.Kind)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for !p.peekIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peek.Kind]
		if !ok {
			return left, nil
		}
		p.nextToken()
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseIntegerLiteral() (ast.Expression, error) {
	tok := p.cur
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid integer literal %q", tok.Literal)
	}
	return &ast.IntegerLiteral{Value: v, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseFloatLiteral() (ast.Expression, error) {
	tok := p.cur
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return nil, p.errorf("invalid float literal %q", tok.Literal)
	}
	return &ast.FloatLiteral{Value: v, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseStringLiteral() (ast.Expression, error) {
	tok := p.cur
	return &ast.StringLiteral{Value: tok.Literal, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseBoolLiteral() (ast.Expression, error) {
	tok := p.cur
	return &ast.BoolLiteral{Value: tok.Kind == token.TRUE, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseNullLiteral() (ast.Expression, error) {
	return &ast.NullLiteral{ExprBase: ast.NewExprBase(p.cur)}, nil
}

func (p *Parser) parseVariable() (ast.Expression, error) {
	tok := p.cur
	return &ast.Variable{Name: tok.Literal, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseIdentifierExpr() (ast.Expression, error) {
	tok := p.cur
	name := tok.Literal
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		switch name {
		case "__LINE__", "__CLASS__", "__FUNCTION__", "__METHOD__", "__FILE__":
			return &ast.MagicConstant{Name: name, ExprBase: ast.NewExprBase(tok)}, nil
		}
	}
	return &ast.Identifier{Name: name, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseGroupedExpr() (ast.Expression, error) {
	p.nextToken()
	exp, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return exp, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	var items []ast.ArrayItem
	for !p.curIs(token.RBRACKET) {
		var item ast.ArrayItem
		if p.curIs(token.ELLIPSIS) {
			item.Spread = true
			p.nextToken()
			v, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			item.Value = v
			p.nextToken()
		} else {
			first, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			if p.peekIs(token.FAT_ARROW) {
				p.nextToken()
				p.nextToken()
				val, err := p.parseExpression(LOWEST)
				if err != nil {
					return nil, err
				}
				item.Key = first
				item.Value = val
			} else {
				item.Value = first
			}
			p.nextToken()
		}
		items = append(items, item)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.expect3(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Items: items, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parsePrefixExpr() (ast.Expression, error) {
	tok := p.cur
	op := tok.Literal
	if tok.Kind == token.AT {
		op = "@"
	}
	p.nextToken()
	right, err := p.parseExpression(UNARY)
	if err != nil {
		return nil, err
	}
	return &ast.Prefix{Operator: op, Right: right, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parsePostfixExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	return &ast.Postfix{Operator: tok.Literal, Left: left, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseInfixExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	prec := p.curPrecedence()
	p.nextToken()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &ast.Infix{Operator: tok.Literal, Left: left, Right: right, ExprBase: ast.NewExprBase(tok)}, nil
}

// parsePowExpr implements right-associativity for `**`.
func (p *Parser) parsePowExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	right, err := p.parseExpression(POW_PREC - 1)
	if err != nil {
		return nil, err
	}
	return &ast.Infix{Operator: "**", Left: left, Right: right, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseInstanceOf(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	class, err := p.parseExpression(INSTANCEOF_PREC)
	if err != nil {
		return nil, err
	}
	return &ast.InstanceOf{Left: left, Class: class, ExprBase: ast.NewExprBase(tok)}, nil
}

// parseAssignExpr implements right-associative assignment per spec.md §4.2.
func (p *Parser) parseAssignExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	op := tok.Literal
	if op != "=" {
		switch left.(type) {
		case *ast.PropertyAccess:
			return nil, p.errorf("compound assignment is not allowed on property targets")
		}
	}
	p.nextToken()
	right, err := p.parseExpression(ASSIGNMENT - 1)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Operator: op, Target: left, Value: right, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseTernaryExpr(cond ast.Expression) (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	if p.curIs(token.COLON) {
		p.nextToken()
		elseExpr, err := p.parseExpression(TERNARY - 1)
		if err != nil {
			return nil, err
		}
		return &ast.Ternary{Cond: cond, Then: nil, Else: elseExpr, ExprBase: ast.NewExprBase(tok)}, nil
	}
	then, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.COLON); err != nil {
		return nil, err
	}
	p.nextToken()
	elseExpr, err := p.parseExpression(TERNARY - 1)
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Cond: cond, Then: then, Else: elseExpr, ExprBase: ast.NewExprBase(tok)}, nil
}

// parseCoalesceExpr implements right-associative `??`.
func (p *Parser) parseCoalesceExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	right, err := p.parseExpression(NULLCOALESCE - 1)
	if err != nil {
		return nil, err
	}
	return &ast.Infix{Operator: "??", Left: left, Right: right, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseIndexExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	if p.peekIs(token.RBRACKET) {
		p.nextToken()
		return &ast.Index{Left: left, Index: nil, ExprBase: ast.NewExprBase(tok)}, nil
	}
	p.nextToken()
	idx, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.Index{Left: left, Index: idx, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parsePropertyOrMethod(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	nullSafe := tok.Kind == token.NULLSAFE_ARROW
	p.nextToken()

	var nameExpr ast.Expression
	name := ""
	if p.curIs(token.LBRACE) {
		p.nextToken()
		ne, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.RBRACE); err != nil {
			return nil, err
		}
		nameExpr = ne
	} else if p.curIs(token.VARIABLE) {
		nameExpr = &ast.Variable{Name: p.cur.Literal, ExprBase: ast.NewExprBase(p.cur)}
	} else {
		id, err := p.expect2(token.IDENT)
		if err != nil {
			return nil, err
		}
		name = id.Literal
	}

	if p.peekIs(token.LPAREN) {
		p.nextToken() // cur = '('
		args, fcc, err := p.parseCallArgsOrFCC()
		if err != nil {
			return nil, err
		}
		if fcc {
			return &ast.CallableFromMethod{Object: left, Method: name, ExprBase: ast.NewExprBase(tok)}, nil
		}
		return &ast.MethodCall{Object: left, Method: name, Args: args, NullSafe: nullSafe, ExprBase: ast.NewExprBase(tok)}, nil
	}

	return &ast.PropertyAccess{Object: left, Name: name, NameExpr: nameExpr, NullSafe: nullSafe, ExprBase: ast.NewExprBase(tok)}, nil
}

// expect2/expect3 are p.curIs(...) checks kept local to this file to avoid
// confusion with the statement-parsing expect(), which advances; these do
// not advance, so cur stays on the checked token (the last token of the
// expression being parsed).
func (p *Parser) expect2(k token.Kind) (token.Token, error) {
	if !p.curIs(k) {
		return token.Token{}, p.errorf("expected %s, got %s %q", k, p.cur.Kind, p.cur.Literal)
	}
	return p.cur, nil
}
func (p *Parser) expect3(k token.Kind) error {
	_, err := p.expect2(k)
	return err
}

// parseCallArgsOrFCC parses a call's argument list starting with cur == '('.
// An argument list consisting solely of `...` is the first-class-callable
// marker (spec.md §4.2); it is unambiguous since a spread argument is always
// `...expr`, never a bare `...` with nothing following. On return cur is the
// closing ')'.
func (p *Parser) parseCallArgsOrFCC() (args []ast.Argument, fcc bool, err error) {
	p.nextToken() // consume '('
	if p.curIs(token.ELLIPSIS) && p.peekIs(token.RPAREN) {
		p.nextToken() // cur = ')'
		return nil, true, nil
	}
	args, err = p.parseArguments(token.RPAREN)
	if err != nil {
		return nil, false, err
	}
	if err := p.expect3(token.RPAREN); err != nil {
		return nil, false, err
	}
	return args, false, nil
}

func (p *Parser) parseStaticAccess(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	p.nextToken()

	// Fiber::suspend / Fiber::getCurrent special forms.
	if id, ok := left.(*ast.Identifier); ok && id.Name == "Fiber" {
		if p.curIs(token.IDENT) && p.cur.Literal == "suspend" && p.peekIs(token.LPAREN) {
			p.nextToken()
			p.nextToken()
			var val ast.Expression
			if !p.curIs(token.RPAREN) {
				v, err := p.parseExpression(LOWEST)
				if err != nil {
					return nil, err
				}
				val = v
				p.nextToken()
			}
			if err := p.expect3(token.RPAREN); err != nil {
				return nil, err
			}
			return &ast.FiberSuspend{Value: val, ExprBase: ast.NewExprBase(tok)}, nil
		}
		if p.curIs(token.IDENT) && p.cur.Literal == "getCurrent" && p.peekIs(token.LPAREN) {
			p.nextToken()
			p.nextToken()
			if err := p.expect3(token.RPAREN); err != nil {
				return nil, err
			}
			return &ast.FiberGetCurrent{ExprBase: ast.NewExprBase(tok)}, nil
		}
	}

	if p.curIs(token.CLASS) {
		// ClassName::class — the class-name-as-string pseudo-constant.
		lit := &ast.StringLiteral{Value: identifierName(left), ExprBase: ast.NewExprBase(tok)}
		return lit, nil
	}

	if p.curIs(token.VARIABLE) {
		name := p.cur.Literal
		if p.peekIs(token.LPAREN) {
			return nil, p.errorf("static property cannot be called directly")
		}
		return &ast.StaticAccess{Class: left, Name: name, IsProperty: true, ExprBase: ast.NewExprBase(tok)}, nil
	}

	// `from` lexes as a keyword (yield from) but is also a backed enum's
	// static method name.
	name := p.cur
	if !p.curIs(token.IDENT) && !p.curIs(token.FROM) {
		return nil, p.errorf("expected %s, got %s %q", token.IDENT, p.cur.Kind, p.cur.Literal)
	}

	if p.peekIs(token.LPAREN) {
		p.nextToken() // cur = '('
		args, fcc, err := p.parseCallArgsOrFCC()
		if err != nil {
			return nil, err
		}
		if fcc {
			return &ast.CallableFromStatic{Class: left, Method: name.Literal, ExprBase: ast.NewExprBase(tok)}, nil
		}
		return &ast.StaticCall{Class: left, Method: name.Literal, Args: args, ExprBase: ast.NewExprBase(tok)}, nil
	}

	// Enum-case reference or class constant reference: resolved at eval time.
	return &ast.StaticAccess{Class: left, Name: name.Literal, ExprBase: ast.NewExprBase(tok)}, nil
}

func identifierName(e ast.Expression) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

func (p *Parser) parseCallExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur // cur == '('
	if id, ok := left.(*ast.Identifier); ok && p.peekIsEllipsisOnly() {
		p.nextToken() // cur = '...'
		p.nextToken() // cur = ')'
		return &ast.CallableFromFunc{Name: id.Name, ExprBase: ast.NewExprBase(tok)}, nil
	}
	p.nextToken() // consume '('
	args, err := p.parseArguments(token.RPAREN)
	if err != nil {
		return nil, err
	}
	if err := p.expect3(token.RPAREN); err != nil {
		return nil, err
	}
	return &ast.Call{Callee: left, Args: args, ExprBase: ast.NewExprBase(tok)}, nil
}

// peekIsEllipsisOnly reports whether, with cur == '(', the argument list is
// exactly `...` — the first-class-callable marker.
func (p *Parser) peekIsEllipsisOnly() bool {
	return p.peekIs(token.ELLIPSIS) && p.peekAtIsRParen()
}

func (p *Parser) peekAtIsRParen() bool {
	m := p.mark()
	p.nextToken()
	ok := p.peekIs(token.RPAREN)
	p.reset(m)
	return ok
}

// parseNewExpr parses `new ClassRef(args?)`. The class reference is a bare
// name, a variable (dynamic class), or a parenthesized expression — never a
// full postfix chain, so a following `(args)` unambiguously belongs to New
// rather than to a Call wrapping the class reference.
func (p *Parser) parseNewExpr() (ast.Expression, error) {
	tok := p.cur
	p.nextToken()

	var classExpr ast.Expression
	switch p.cur.Kind {
	case token.VARIABLE:
		classExpr = &ast.Variable{Name: p.cur.Literal, ExprBase: ast.NewExprBase(p.cur)}
	case token.STATIC:
		classExpr = &ast.Identifier{Name: "static", ExprBase: ast.NewExprBase(p.cur)}
	case token.LPAREN:
		p.nextToken()
		e, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.RPAREN); err != nil {
			return nil, err
		}
		classExpr = e
	default:
		if !p.curIs(token.IDENT) {
			return nil, p.errorf("expected class name after new, got %s %q", p.cur.Kind, p.cur.Literal)
		}
		classExpr = &ast.Identifier{Name: p.cur.Literal, ExprBase: ast.NewExprBase(p.cur)}
	}

	var args []ast.Argument
	if p.peekIs(token.LPAREN) {
		p.nextToken() // cur = '('
		p.nextToken()
		var err error
		args, err = p.parseArguments(token.RPAREN)
		if err != nil {
			return nil, err
		}
		if err := p.expect3(token.RPAREN); err != nil {
			return nil, err
		}
	}
	return &ast.New{Class: classExpr, Args: args, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseCloneExpr() (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	val, err := p.parseExpression(UNARY)
	if err != nil {
		return nil, err
	}
	clone := &ast.Clone{Value: val, ExprBase: ast.NewExprBase(tok)}
	if p.peekIs(token.IDENT) && p.peek.Literal == "with" {
		p.nextToken()
		p.nextToken()
		if _, err := p.expect(token.LBRACE); err != nil {
			return nil, err
		}
		for !p.curIs(token.RBRACE) {
			name, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			v, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			clone.With = append(clone.With, ast.ArrayItem{
				Key:   &ast.Identifier{Name: name.Literal, ExprBase: ast.NewExprBase(name)},
				Value: v,
			})
			p.nextToken()
			if p.curIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if err := p.expect3(token.RBRACE); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

func (p *Parser) parseMatchExpr() (ast.Expression, error) {
	tok := p.cur
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	subject, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	p.nextToken()
	m := &ast.Match{Subject: subject, ExprBase: ast.NewExprBase(tok)}
	for !p.curIs(token.RBRACE) {
		var arm ast.MatchArm
		if p.curIs(token.DEFAULT) {
			p.nextToken()
		} else {
			for {
				c, err := p.parseExpression(LOWEST)
				if err != nil {
					return nil, err
				}
				arm.Conds = append(arm.Conds, c)
				p.nextToken()
				if p.curIs(token.COMMA) && p.peekIs(token.FAT_ARROW) == false && !p.isMatchArmEnd() {
					p.nextToken()
					continue
				}
				break
			}
		}
		if _, err := p.expect(token.FAT_ARROW); err != nil {
			return nil, err
		}
		res, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		arm.Result = res
		m.Arms = append(m.Arms, arm)
		p.nextToken()
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.expect3(token.RBRACE); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Parser) isMatchArmEnd() bool { return p.curIs(token.FAT_ARROW) }

func (p *Parser) parseArrowFunction() (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	static := false
	_ = static
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	p.skipReturnType()
	if _, err := p.expect(token.FAT_ARROW); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(ASSIGNMENT)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionLiteral{Params: params, ArrowBody: body, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseClosureExpr() (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	byRef := false
	if p.curIs(token.AMP) {
		byRef = true
		p.nextToken()
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionLiteral{Params: params, ByRef: byRef, ExprBase: ast.NewExprBase(tok)}
	if p.curIs(token.USE) {
		p.nextToken()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		for !p.curIs(token.RPAREN) {
			ref := false
			if p.curIs(token.AMP) {
				ref = true
				p.nextToken()
			}
			v, err := p.expect(token.VARIABLE)
			if err != nil {
				return nil, err
			}
			fn.Uses = append(fn.Uses, v.Literal)
			fn.UsesByRef = append(fn.UsesByRef, ref)
			if p.curIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}
	p.skipReturnType()
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			fn.Body = append(fn.Body, s)
		}
	}
	if err := p.expect3(token.RBRACE); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) parseThrowExpr() (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	val, err := p.parseExpression(ASSIGNMENT)
	if err != nil {
		return nil, err
	}
	return &ast.ThrowExpr{Value: val, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parseYieldExpr() (ast.Expression, error) {
	tok := p.cur
	if p.peekIs(token.FROM) {
		p.nextToken()
		p.nextToken()
		val, err := p.parseExpression(ASSIGNMENT)
		if err != nil {
			return nil, err
		}
		return &ast.YieldFrom{Value: val, ExprBase: ast.NewExprBase(tok)}, nil
	}
	if p.peekIs(token.SEMICOLON) || p.peekIs(token.RPAREN) || p.peekIs(token.RBRACE) {
		return &ast.Yield{ExprBase: ast.NewExprBase(tok)}, nil
	}
	p.nextToken()
	first, err := p.parseExpression(ASSIGNMENT)
	if err != nil {
		return nil, err
	}
	if p.peekIs(token.FAT_ARROW) {
		p.nextToken()
		p.nextToken()
		val, err := p.parseExpression(ASSIGNMENT)
		if err != nil {
			return nil, err
		}
		return &ast.Yield{Key: first, Value: val, ExprBase: ast.NewExprBase(tok)}, nil
	}
	return &ast.Yield{Value: first, ExprBase: ast.NewExprBase(tok)}, nil
}

func (p *Parser) parsePlaceholderExpr() (ast.Expression, error) {
	return &ast.Placeholder{ExprBase: ast.NewExprBase(p.cur)}, nil
}

// parsePipeExpr implements `lhs |> rhs(...)`: the RHS must be a call
// expression per spec.md §4.4.
func (p *Parser) parsePipeExpr(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	p.nextToken()
	right, err := p.parseExpression(PIPE_PREC)
	if err != nil {
		return nil, err
	}
	return &ast.Pipe{Left: left, Right: right, ExprBase: ast.NewExprBase(tok)}, nil
}
