package evaluator

import (
	"strings"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/value"
)

func lower(s string) string { return strings.ToLower(s) }

// execStatement executes one statement, returning the control-flow signal
// it produced (spec.md §4.4).
func (e *Evaluator) execStatement(stmt ast.Statement) signal {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, sig := e.eval(s.Expr)
		return sig
	case *ast.InlineHTML:
		e.writeOutput(s.Text)
		return noSignal
	case *ast.Echo:
		for _, v := range s.Values {
			val, sig := e.eval(v)
			if !sig.isNone() {
				return sig
			}
			e.writeOutput(value.ToStr(val))
		}
		return noSignal
	case *ast.Block:
		return e.execBlock(s.Statements)
	case *ast.If:
		return e.execIf(s)
	case *ast.While:
		return e.execWhile(s)
	case *ast.DoWhile:
		return e.execDoWhile(s)
	case *ast.For:
		return e.execFor(s)
	case *ast.Foreach:
		return e.execForeach(s)
	case *ast.Switch:
		return e.execSwitch(s)
	case *ast.Break:
		return breakSignal(levelsOrOne(s.Levels))
	case *ast.Continue:
		return continueSignal(levelsOrOne(s.Levels))
	case *ast.Return:
		if s.Value == nil {
			return returnSignal(value.Null{})
		}
		v, sig := e.eval(s.Value)
		if !sig.isNone() {
			return sig
		}
		return returnSignal(v)
	case *ast.FunctionDecl:
		e.Registries.RegisterFunction(s)
		return noSignal
	case *ast.ClassDecl:
		e.registerClass(s)
		return noSignal
	case *ast.InterfaceDecl:
		e.registerInterface(s)
		return noSignal
	case *ast.TraitDecl:
		e.registerTrait(s)
		return noSignal
	case *ast.EnumDecl:
		e.registerEnum(s)
		return noSignal
	case *ast.Try:
		return e.execTry(s)
	case *ast.Throw:
		v, sig := e.eval(s.Value)
		if !sig.isNone() {
			return sig
		}
		return e.raise(v)
	case *ast.GlobalStmt:
		return noSignal
	case *ast.ConstStmt:
		v, sig := e.eval(s.Value)
		if !sig.isNone() {
			return sig
		}
		e.env.Set(s.Name, v)
		return noSignal
	}
	return noSignal
}

func levelsOrOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func (e *Evaluator) execBlock(stmts []ast.Statement) signal {
	for _, st := range stmts {
		sig := e.execStatement(st)
		if !sig.isNone() {
			return sig
		}
	}
	return noSignal
}

func (e *Evaluator) execIf(s *ast.If) signal {
	cond, sig := e.eval(s.Cond)
	if !sig.isNone() {
		return sig
	}
	if value.ToBool(cond) {
		return e.execStatement(s.Then)
	}
	for _, ei := range s.ElseIfs {
		c, sig := e.eval(ei.Cond)
		if !sig.isNone() {
			return sig
		}
		if value.ToBool(c) {
			return e.execStatement(ei.Body)
		}
	}
	if s.Else != nil {
		return e.execStatement(s.Else)
	}
	return noSignal
}

func (e *Evaluator) execWhile(s *ast.While) signal {
	for {
		cond, sig := e.eval(s.Cond)
		if !sig.isNone() {
			return sig
		}
		if !value.ToBool(cond) {
			return noSignal
		}
		bodySig := e.execStatement(s.Body)
		if stop, prop := consumeLoop(bodySig); stop {
			return prop
		}
	}
}

func (e *Evaluator) execDoWhile(s *ast.DoWhile) signal {
	for {
		bodySig := e.execStatement(s.Body)
		if stop, prop := consumeLoop(bodySig); stop {
			return prop
		}
		cond, sig := e.eval(s.Cond)
		if !sig.isNone() {
			return sig
		}
		if !value.ToBool(cond) {
			return noSignal
		}
	}
}

func (e *Evaluator) execFor(s *ast.For) signal {
	for _, init := range s.Init {
		if _, sig := e.eval(init); !sig.isNone() {
			return sig
		}
	}
	for {
		if s.Cond != nil {
			v, sig := e.eval(s.Cond)
			if !sig.isNone() {
				return sig
			}
			if !value.ToBool(v) {
				return noSignal
			}
		}
		bodySig := e.execStatement(s.Body)
		if stop, prop := consumeLoop(bodySig); stop {
			return prop
		}
		for _, u := range s.Update {
			if _, sig := e.eval(u); !sig.isNone() {
				return sig
			}
		}
	}
}

func (e *Evaluator) execForeach(s *ast.Foreach) signal {
	coll, sig := e.eval(s.Collection)
	if !sig.isNone() {
		return sig
	}
	if gen, ok := coll.(*value.Generator); ok {
		for !gen.Done {
			if s.KeyVar != "" {
				e.env.Set(s.KeyVar, gen.CurrentK)
			}
			e.env.Set(s.ValueVar, gen.CurrentV)
			bodySig := e.execStatement(s.Body)
			if stop, prop := consumeLoop(bodySig); stop {
				return prop
			}
			e.generatorNext(gen, value.Null{})
		}
		return noSignal
	}
	arr, ok := coll.(*value.Array)
	if !ok {
		return noSignal
	}
	for _, k := range append([]value.ArrayKey(nil), arr.Keys()...) {
		v, ok := arr.Get(k)
		if !ok {
			continue
		}
		if s.KeyVar != "" {
			e.env.Set(s.KeyVar, k.ToValue())
		}
		e.env.Set(s.ValueVar, v)
		bodySig := e.execStatement(s.Body)
		if stop, prop := consumeLoop(bodySig); stop {
			return prop
		}
	}
	return noSignal
}

func (e *Evaluator) execSwitch(s *ast.Switch) signal {
	subject, sig := e.eval(s.Subject)
	if !sig.isNone() {
		return sig
	}
	matched := false
	for _, c := range s.Cases {
		if !matched {
			if c.Cond == nil { // default
				matched = true
			} else {
				cv, sig := e.eval(c.Cond)
				if !sig.isNone() {
					return sig
				}
				matched = value.LooseEqual(subject, cv)
			}
		}
		if matched {
			bodySig := e.execBlock(c.Statements)
			if bodySig.kind == sigBreak && bodySig.levels <= 1 {
				return noSignal
			}
			if !bodySig.isNone() {
				if stop, prop := consumeLoop(bodySig); stop {
					return prop
				}
			}
		}
	}
	return noSignal
}

func (e *Evaluator) execTry(s *ast.Try) signal {
	bodySig := e.execBlock(s.Body)
	result := bodySig
	if bodySig.kind == sigException {
		for _, c := range s.Catches {
			if e.catchMatches(c.Types, bodySig.exception) {
				if c.VarName != "" {
					e.env.Set(c.VarName, e.exceptionValue(bodySig.exception))
				}
				result = e.execBlock(c.Body)
				break
			}
		}
	}
	if s.Finally != nil {
		finallySig := e.execBlock(s.Finally)
		if !finallySig.isNone() {
			return finallySig
		}
	}
	return result
}

func (e *Evaluator) catchMatches(types []string, exc *value.Exception) bool {
	for _, t := range types {
		if e.Registries.IsSubclassOf(exc.ClassName, t) || t == "Throwable" || t == "Exception" {
			return true
		}
	}
	return false
}

func (e *Evaluator) exceptionValue(exc *value.Exception) value.Value {
	if exc.Instance != nil {
		return value.NewObject(exc.Instance)
	}
	return exc
}

func (e *Evaluator) registerClass(s *ast.ClassDecl) {
	c := &object.ClassDefinition{
		Name:       s.Name,
		Abstract:   s.Abstract,
		Final:      s.Final,
		Readonly:   s.Readonly,
		Parent:     s.Parent,
		Interfaces: s.Interfaces,
		Methods:    map[string]*ast.MethodDecl{},
		Visibility: map[string]string{},
		Consts:     map[string]ast.Expression{},
	}
	for i := range s.Properties {
		c.Properties = append(c.Properties, &s.Properties[i])
	}
	for i := range s.Methods {
		m := &s.Methods[i]
		c.Methods[lower(m.Name)] = m
		c.Visibility[lower(m.Name)] = m.Visibility
	}
	for _, cd := range s.Consts {
		c.Consts[cd.Name] = cd.Value
	}
	for _, traitName := range traitNamesOf(s.Uses) {
		if t, ok := e.Registries.LookupTrait(traitName); ok {
			for name, m := range t.Methods {
				if _, exists := c.Methods[name]; !exists {
					c.Methods[name] = m
					c.Visibility[name] = t.Visibility[name]
				}
			}
			c.Properties = append(c.Properties, t.Properties...)
		}
	}
	e.Registries.RegisterClass(c)
}

func traitNamesOf(uses []ast.TraitUse) []string {
	var names []string
	for _, u := range uses {
		names = append(names, u.Traits...)
	}
	return names
}

func (e *Evaluator) registerInterface(s *ast.InterfaceDecl) {
	i := &object.InterfaceDefinition{Name: s.Name, Extends: s.Extends, Methods: map[string]*ast.MethodDecl{}, Consts: map[string]ast.Expression{}}
	for idx := range s.Methods {
		m := &s.Methods[idx]
		i.Methods[lower(m.Name)] = m
	}
	e.Registries.RegisterInterface(i)
}

func (e *Evaluator) registerTrait(s *ast.TraitDecl) {
	t := &object.TraitDefinition{Name: s.Name, Methods: map[string]*ast.MethodDecl{}, Visibility: map[string]string{}}
	for i := range s.Properties {
		t.Properties = append(t.Properties, &s.Properties[i])
	}
	for i := range s.Methods {
		m := &s.Methods[i]
		t.Methods[lower(m.Name)] = m
		t.Visibility[lower(m.Name)] = m.Visibility
	}
	e.Registries.RegisterTrait(t)
}

func (e *Evaluator) registerEnum(s *ast.EnumDecl) {
	def := &object.EnumDefinition{Name: s.Name, BackingType: s.BackingType, Methods: map[string]*ast.MethodDecl{}}
	for _, c := range s.Cases {
		def.Cases = append(def.Cases, object.EnumCaseDef{Name: c.Name, Value: c.Value})
	}
	for i := range s.Methods {
		m := &s.Methods[i]
		def.Methods[lower(m.Name)] = m
	}
	e.Registries.RegisterEnum(def)
}
