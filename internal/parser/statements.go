package parser

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/token"
)

func (p *Parser) parseStatement() (ast.Statement, error) {
	attrs, err := p.tryParseAttributes()
	if err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case token.INLINE_HTML:
		s := &ast.InlineHTML{Text: p.cur.Literal, StmtBase: mkBaseStmt(p.cur)}
		p.nextToken()
		return s, nil
	case token.CLOSE_TAG:
		p.nextToken()
		return nil, nil
	case token.ECHO:
		return p.parseEcho()
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.FOREACH:
		return p.parseForeach()
	case token.SWITCH:
		return p.parseSwitch()
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.RETURN:
		return p.parseReturn()
	case token.FUNCTION:
		return p.parseFunctionDecl(attrs)
	case token.CLASS, token.ABSTRACT, token.FINAL, token.READONLY:
		if isClassStart(p) {
			return p.parseClassDecl(attrs)
		}
	case token.INTERFACE:
		return p.parseInterfaceDecl(attrs)
	case token.TRAIT:
		return p.parseTraitDecl(attrs)
	case token.ENUM:
		return p.parseEnumDecl(attrs)
	case token.TRY:
		return p.parseTry()
	case token.THROW:
		return p.parseThrowStmt()
	case token.GLOBAL:
		return p.parseGlobal()
	case token.CONST:
		return p.parseConstStmt()
	case token.SEMICOLON:
		p.nextToken()
		return nil, nil
	}

	return p.parseExpressionStatement()
}

// isClassStart disambiguates `abstract class`, `final class`, `readonly
// class` modifiers from a bare expression starting with those identifiers
// (none of which are valid expression starts here, so this always holds,
// but kept explicit for readability at the call site).
func isClassStart(p *Parser) bool {
	if p.curIs(token.CLASS) {
		return true
	}
	return true
}

func (p *Parser) parseEcho() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	var values []ast.Expression
	for {
		v, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	p.nextToken() // move to ';' or close tag
	p.consumeStmtEnd()
	return &ast.Echo{Values: values, StmtBase: mkBaseStmt(tok)}, nil
}

func mkBaseStmt(t token.Token) ast.StmtBase { return ast.NewStmtBase(t) }

func (p *Parser) consumeStmtEnd() {
	if p.curIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	tok := p.cur
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.nextToken()
	p.consumeStmtEnd()
	return &ast.ExpressionStatement{Expr: expr, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	tok := p.cur
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Block{Statements: stmts, StmtBase: mkBaseStmt(tok)}, nil
}

// parseStatementBody parses either a `{ ... }` block or a single statement,
// for constructs like `if (c) stmt;` without braces.
func (p *Parser) parseStatementBody() (ast.Statement, error) {
	if p.curIs(token.LBRACE) {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseIf() (ast.Statement, error) {
	tok := p.cur
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	then, err := p.parseStatementBody()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{Cond: cond, Then: then, StmtBase: mkBaseStmt(tok)}
	for p.curIs(token.ELSEIF) {
		if err := p.expectPeek(token.LPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		c, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.RPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		b, err := p.parseStatementBody()
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Cond: c, Body: b})
	}
	if p.curIs(token.ELSE) {
		p.nextToken()
		elseBody, err := p.parseStatementBody()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	tok := p.cur
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	body, err := p.parseStatementBody()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseDoWhile() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	body, err := p.parseStatementBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	p.consumeStmtEnd()
	return &ast.DoWhile{Body: body, Cond: cond, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	tok := p.cur
	if _, err := p.expect(token.FOR); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	init, err := p.parseExprList(token.SEMICOLON)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	var cond ast.Expression
	if !p.curIs(token.SEMICOLON) {
		cond, err = p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		p.nextToken()
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	update, err := p.parseExprList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatementBody()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Update: update, Body: body, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseExprList(stop token.Kind) ([]ast.Expression, error) {
	var exprs []ast.Expression
	if p.curIs(stop) {
		return exprs, nil
	}
	for {
		e, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		p.nextToken()
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return exprs, nil
}

func (p *Parser) parseForeach() (ast.Statement, error) {
	tok := p.cur
	if _, err := p.expect(token.FOREACH); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	coll, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.nextToken()
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	byRef := false
	if p.curIs(token.AMP) {
		byRef = true
		p.nextToken()
	}
	first, err := p.expect(token.VARIABLE)
	if err != nil {
		return nil, err
	}
	var keyVar, valVar string
	if p.curIs(token.FAT_ARROW) {
		keyVar = first.Literal
		p.nextToken()
		if p.curIs(token.AMP) {
			byRef = true
			p.nextToken()
		}
		second, err := p.expect(token.VARIABLE)
		if err != nil {
			return nil, err
		}
		valVar = second.Literal
	} else {
		valVar = first.Literal
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatementBody()
	if err != nil {
		return nil, err
	}
	return &ast.Foreach{Collection: coll, KeyVar: keyVar, ValueVar: valVar, ByRef: byRef, Body: body, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseSwitch() (ast.Statement, error) {
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

	var cases []ast.SwitchCase
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		var cs ast.SwitchCase
		if p.curIs(token.CASE) {
			p.nextToken()
			cond, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			cs.Cond = cond
			p.nextToken()
		} else if p.curIs(token.DEFAULT) {
			p.nextToken()
		} else {
			return nil, p.errorf("expected case or default in switch")
		}
		if p.curIs(token.COLON) {
			p.nextToken()
		} else if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			if s != nil {
				cs.Statements = append(cs.Statements, s)
			}
		}
		cases = append(cases, cs)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Switch{Subject: subject, Cases: cases, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseBreak() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	levels := 1
	if p.curIs(token.INT) {
		levels = parseIntLiteral(p.cur.Literal)
		p.nextToken()
	}
	p.consumeStmtEnd()
	return &ast.Break{Levels: levels, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseContinue() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	levels := 1
	if p.curIs(token.INT) {
		levels = parseIntLiteral(p.cur.Literal)
		p.nextToken()
	}
	p.consumeStmtEnd()
	return &ast.Continue{Levels: levels, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	if p.curIs(token.SEMICOLON) || p.curIs(token.CLOSE_TAG) || p.curIs(token.EOF) {
		p.consumeStmtEnd()
		return &ast.Return{StmtBase: mkBaseStmt(tok)}, nil
	}
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.nextToken()
	p.consumeStmtEnd()
	return &ast.Return{Value: val, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseThrowStmt() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.nextToken()
	p.consumeStmtEnd()
	return &ast.Throw{Value: val, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseGlobal() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	var names []string
	for {
		v, err := p.expect(token.VARIABLE)
		if err != nil {
			return nil, err
		}
		names = append(names, v.Literal)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.consumeStmtEnd()
	return &ast.GlobalStmt{Names: names, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseConstStmt() (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.nextToken()
	p.consumeStmtEnd()
	return &ast.ConstStmt{Name: name.Literal, Value: val, StmtBase: mkBaseStmt(tok)}, nil
}

func (p *Parser) parseTry() (ast.Statement, error) {
	tok := p.cur
	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var catches []ast.CatchClause
	for p.curIs(token.CATCH) {
		p.nextToken()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		var types []string
		for {
			id, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			types = append(types, id.Literal)
			if p.curIs(token.OR_OR) || (p.curIs(token.PIPE)) {
				p.nextToken()
				continue
			}
			break
		}
		varName := ""
		if p.curIs(token.VARIABLE) {
			varName = p.cur.Literal
			p.nextToken()
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		cblock, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		catches = append(catches, ast.CatchClause{Types: types, VarName: varName, Body: cblock.Statements})
	}
	var finallyStmts []ast.Statement
	if p.curIs(token.FINALLY) {
		p.nextToken()
		fblock, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		finallyStmts = fblock.Statements
	}
	return &ast.Try{Body: body.Statements, Catches: catches, Finally: finallyStmts, StmtBase: mkBaseStmt(tok)}, nil
}

func parseIntLiteral(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
