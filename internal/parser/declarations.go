package parser

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/token"
)

// tryParseAttributes consumes zero or more `#[...]` attribute groups,
// accumulating them per spec.md §4.2 ("Multiple #[...] blocks accumulate").
func (p *Parser) tryParseAttributes() ([]*ast.AttributeGroup, error) {
	var groups []*ast.AttributeGroup
	for p.curIs(token.HASH) {
		g, err := p.parseAttributeGroup()
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (p *Parser) parseAttributeGroup() (*ast.AttributeGroup, error) {
	tok := p.cur
	p.nextToken() // consume '#['
	g := &ast.AttributeGroup{Token: tok}
	for {
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		attr := ast.Attribute{Name: name.Literal}
		if p.curIs(token.LPAREN) {
			p.nextToken()
			args, err := p.parseArguments(token.RPAREN)
			if err != nil {
				return nil, err
			}
			attr.Args = args
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
		}
		g.Attributes = append(g.Attributes, attr)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return g, nil
}

func (p *Parser) parseArguments(stop token.Kind) ([]ast.Argument, error) {
	var args []ast.Argument
	sawNamed := false
	for !p.curIs(stop) {
		if p.curIs(token.ELLIPSIS) && p.peekIs(stop) {
			p.nextToken()
			args = append(args, ast.Argument{Value: &ast.Placeholder{}})
			break
		}
		name := ""
		if p.curIs(token.IDENT) && p.peekIs(token.COLON) {
			name = p.cur.Literal
			p.nextToken()
			p.nextToken()
			sawNamed = true
		} else if sawNamed {
			return nil, p.errorf("positional argument after named argument")
		}
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Argument{Name: name, Value: val})
		p.nextToken()
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.curIs(token.RPAREN) {
		attrs, err := p.tryParseAttributes()
		if err != nil {
			return nil, err
		}
		var param ast.Param
		param.Attributes = attrs
		for p.curIs(token.PUBLIC) || p.curIs(token.PROTECTED) || p.curIs(token.PRIVATE) || p.curIs(token.READONLY) {
			if p.curIs(token.READONLY) {
				param.Readonly = true
			} else {
				param.Visibility = p.cur.Literal
			}
			p.nextToken()
		}
		if p.curIs(token.ELLIPSIS) {
			param.Variadic = true
			p.nextToken()
		}
		if p.curIs(token.AMP) {
			param.ByRef = true
			p.nextToken()
		}
		// optional type hint(s): identifiers/`?`/`null`/`||` preceding the variable.
		for p.curIs(token.IDENT) || p.curIs(token.QUESTION) || p.curIs(token.NULL) || p.curIs(token.OR_OR) {
			p.nextToken()
		}
		v, err := p.expect(token.VARIABLE)
		if err != nil {
			return nil, err
		}
		param.Name = v.Literal
		param.Token = v
		if p.curIs(token.ASSIGN) {
			p.nextToken()
			def, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			param.Default = def
			p.nextToken()
		}
		params = append(params, param)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// skipReturnType consumes an optional `: Type` return-type annotation.
func (p *Parser) skipReturnType() {
	if p.curIs(token.COLON) {
		p.nextToken()
		if p.curIs(token.QUESTION) {
			p.nextToken()
		}
		for p.curIs(token.IDENT) || p.curIs(token.NULL) {
			p.nextToken()
			if p.curIs(token.OR_OR) {
				p.nextToken()
				continue
			}
			break
		}
	}
}

func (p *Parser) parseFunctionDecl(attrs []*ast.AttributeGroup) (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	byRef := false
	if p.curIs(token.AMP) {
		byRef = true
		p.nextToken()
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	p.skipReturnType()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{
		Name: name.Literal, Params: params, Body: body.Statements, ByRef: byRef,
		Attributes: attrs, StmtBase: mkBaseStmt(tok),
	}, nil
}

func (p *Parser) parseClassDecl(attrs []*ast.AttributeGroup) (ast.Statement, error) {
	tok := p.cur
	decl := &ast.ClassDecl{Attributes: attrs, StmtBase: mkBaseStmt(tok)}
	for p.curIs(token.ABSTRACT) || p.curIs(token.FINAL) || p.curIs(token.READONLY) {
		switch p.cur.Kind {
		case token.ABSTRACT:
			decl.Abstract = true
		case token.FINAL:
			decl.Final = true
		case token.READONLY:
			decl.Readonly = true
		}
		p.nextToken()
	}
	if _, err := p.expect(token.CLASS); err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl.Name = name.Literal
	if p.curIs(token.EXTENDS) {
		p.nextToken()
		parent, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		decl.Parent = parent.Literal
	}
	if p.curIs(token.IMPLEMENTS) {
		p.nextToken()
		for {
			iface, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			decl.Interfaces = append(decl.Interfaces, iface.Literal)
			if p.curIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}
	if err := p.parseClassBody(decl); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseClassBody parses `{ members... }` shared by class declarations,
// filling in the Uses/Properties/Methods/Consts of decl.
func (p *Parser) parseClassBody(decl *ast.ClassDecl) error {
	if _, err := p.expect(token.LBRACE); err != nil {
		return err
	}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.USE) {
			use, err := p.parseTraitUse()
			if err != nil {
				return err
			}
			decl.Uses = append(decl.Uses, use)
			continue
		}
		memberAttrs, err := p.tryParseAttributes()
		if err != nil {
			return err
		}
		if p.curIs(token.CONST) {
			c, err := p.parseClassConst()
			if err != nil {
				return err
			}
			decl.Consts = append(decl.Consts, c)
			continue
		}
		visibility, static, abstract, final, readonly := p.parseMemberModifiers()
		if p.curIs(token.FUNCTION) {
			m, err := p.parseMethodDecl(visibility, static, abstract, final, memberAttrs)
			if err != nil {
				return err
			}
			decl.Methods = append(decl.Methods, m)
			continue
		}
		if readonly && p.curIs(token.RBRACE) {
			break
		}
		prop, err := p.parsePropertyDecl(visibility, static, readonly, memberAttrs)
		if err != nil {
			return err
		}
		decl.Properties = append(decl.Properties, prop)
	}
	_, err := p.expect(token.RBRACE)
	return err
}

func (p *Parser) parseMemberModifiers() (visibility string, static, abstract, final, readonly bool) {
	visibility = "public"
	for {
		switch p.cur.Kind {
		case token.PUBLIC:
			visibility = "public"
		case token.PROTECTED:
			visibility = "protected"
		case token.PRIVATE:
			visibility = "private"
		case token.STATIC:
			static = true
		case token.ABSTRACT:
			abstract = true
		case token.FINAL:
			final = true
		case token.READONLY:
			readonly = true
		default:
			return
		}
		p.nextToken()
	}
}

func (p *Parser) parseTraitUse() (ast.TraitUse, error) {
	p.nextToken()
	var use ast.TraitUse
	for {
		t, err := p.expect(token.IDENT)
		if err != nil {
			return use, err
		}
		use.Traits = append(use.Traits, t.Literal)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if p.curIs(token.LBRACE) {
		p.nextToken()
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			p.nextToken()
		}
		p.nextToken() // consume '}'
		return use, nil
	}
	p.consumeStmtEnd()
	return use, nil
}

func (p *Parser) parseClassConst() (ast.ConstDecl, error) {
	p.nextToken()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return ast.ConstDecl{}, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return ast.ConstDecl{}, err
	}
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return ast.ConstDecl{}, err
	}
	p.nextToken()
	p.consumeStmtEnd()
	return ast.ConstDecl{Name: name.Literal, Value: val}, nil
}

func (p *Parser) parsePropertyDecl(visibility string, static, readonly bool, attrs []*ast.AttributeGroup) (ast.PropertyDecl, error) {
	// optional type hint(s) before the variable.
	for (p.curIs(token.IDENT) || p.curIs(token.QUESTION) || p.curIs(token.NULL)) && !p.curIs(token.VARIABLE) {
		p.nextToken()
		if p.curIs(token.OR_OR) {
			p.nextToken()
			continue
		}
	}
	v, err := p.expect(token.VARIABLE)
	if err != nil {
		return ast.PropertyDecl{}, err
	}
	prop := ast.PropertyDecl{Name: v.Literal, Visibility: visibility, Static: static, Readonly: readonly, Attributes: attrs}
	if p.curIs(token.ASSIGN) {
		p.nextToken()
		def, err := p.parseExpression(LOWEST)
		if err != nil {
			return ast.PropertyDecl{}, err
		}
		prop.Default = def
		p.nextToken()
	}
	p.consumeStmtEnd()
	return prop, nil
}

func (p *Parser) parseMethodDecl(visibility string, static, abstract, final bool, attrs []*ast.AttributeGroup) (ast.MethodDecl, error) {
	p.nextToken() // consume 'function'
	if p.curIs(token.AMP) {
		p.nextToken()
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return ast.MethodDecl{}, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return ast.MethodDecl{}, err
	}
	p.skipReturnType()
	m := ast.MethodDecl{Name: name.Literal, Visibility: visibility, Static: static, Abstract: abstract, Final: final, Params: params, Attributes: attrs}
	if p.curIs(token.SEMICOLON) {
		p.nextToken()
		return m, nil
	}
	body, err := p.parseBlock()
	if err != nil {
		return ast.MethodDecl{}, err
	}
	m.Body = body.Statements
	return m, nil
}

func (p *Parser) parseInterfaceDecl(attrs []*ast.AttributeGroup) (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.InterfaceDecl{Name: name.Literal, Attributes: attrs, StmtBase: mkBaseStmt(tok)}
	if p.curIs(token.EXTENDS) {
		p.nextToken()
		for {
			e, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			decl.Extends = append(decl.Extends, e.Literal)
			if p.curIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		memberAttrs, err := p.tryParseAttributes()
		if err != nil {
			return nil, err
		}
		if p.curIs(token.CONST) {
			c, err := p.parseClassConst()
			if err != nil {
				return nil, err
			}
			decl.Consts = append(decl.Consts, c)
			continue
		}
		visibility, static, _, _, _ := p.parseMemberModifiers()
		m, err := p.parseMethodDecl(visibility, static, true, false, memberAttrs)
		if err != nil {
			return nil, err
		}
		decl.Methods = append(decl.Methods, m)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseTraitDecl(attrs []*ast.AttributeGroup) (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.TraitDecl{Name: name.Literal, Attributes: attrs, StmtBase: mkBaseStmt(tok)}
	asClass := &ast.ClassDecl{Name: decl.Name}
	if err := p.parseClassBody(asClass); err != nil {
		return nil, err
	}
	decl.Uses = asClass.Uses
	decl.Properties = asClass.Properties
	decl.Methods = asClass.Methods
	return decl, nil
}

func (p *Parser) parseEnumDecl(attrs []*ast.AttributeGroup) (ast.Statement, error) {
	tok := p.cur
	p.nextToken()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.EnumDecl{Name: name.Literal, Attributes: attrs, StmtBase: mkBaseStmt(tok)}
	if p.curIs(token.COLON) {
		p.nextToken()
		bt, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		decl.BackingType = bt.Literal
	}
	if p.curIs(token.IMPLEMENTS) {
		p.nextToken()
		for {
			iface, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			decl.Interfaces = append(decl.Interfaces, iface.Literal)
			if p.curIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.USE) {
			if _, err := p.parseTraitUse(); err != nil {
				return nil, err
			}
			continue
		}
		memberAttrs, err := p.tryParseAttributes()
		if err != nil {
			return nil, err
		}
		if p.curIs(token.CASE) {
			p.nextToken()
			cn, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			ec := ast.EnumCaseDecl{Name: cn.Literal}
			if p.curIs(token.ASSIGN) {
				p.nextToken()
				val, err := p.parseExpression(LOWEST)
				if err != nil {
					return nil, err
				}
				ec.Value = val
				p.nextToken()
			}
			p.consumeStmtEnd()
			decl.Cases = append(decl.Cases, ec)
			continue
		}
		if p.curIs(token.CONST) {
			c, err := p.parseClassConst()
			if err != nil {
				return nil, err
			}
			decl.Consts = append(decl.Consts, c)
			continue
		}
		visibility, static, abstract, final, _ := p.parseMemberModifiers()
		m, err := p.parseMethodDecl(visibility, static, abstract, final, memberAttrs)
		if err != nil {
			return nil, err
		}
		decl.Methods = append(decl.Methods, m)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return decl, nil
}
