package bytecode

import (
	"strings"

	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/object"
)

// Declaration registration mirrors evaluator/statements.go's
// registerClass/registerInterface/registerTrait/registerEnum exactly, but
// as free functions over a *object.Registries so the compiler's
// registration pre-pass needs no Evaluator.

func lower(s string) string { return strings.ToLower(s) }

func registerClassDecl(reg *object.Registries, s *ast.ClassDecl) {
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
		if t, ok := reg.LookupTrait(traitName); ok {
			for name, m := range t.Methods {
				if _, exists := c.Methods[name]; !exists {
					c.Methods[name] = m
					c.Visibility[name] = t.Visibility[name]
				}
			}
			c.Properties = append(c.Properties, t.Properties...)
		}
	}
	reg.RegisterClass(c)
}

func traitNamesOf(uses []ast.TraitUse) []string {
	var names []string
	for _, u := range uses {
		names = append(names, u.Traits...)
	}
	return names
}

func registerInterfaceDecl(reg *object.Registries, s *ast.InterfaceDecl) {
	i := &object.InterfaceDefinition{Name: s.Name, Extends: s.Extends, Methods: map[string]*ast.MethodDecl{}, Consts: map[string]ast.Expression{}}
	for idx := range s.Methods {
		m := &s.Methods[idx]
		i.Methods[lower(m.Name)] = m
	}
	reg.RegisterInterface(i)
}

func registerTraitDecl(reg *object.Registries, s *ast.TraitDecl) {
	t := &object.TraitDefinition{Name: s.Name, Methods: map[string]*ast.MethodDecl{}, Visibility: map[string]string{}}
	for i := range s.Properties {
		t.Properties = append(t.Properties, &s.Properties[i])
	}
	for i := range s.Methods {
		m := &s.Methods[i]
		t.Methods[lower(m.Name)] = m
		t.Visibility[lower(m.Name)] = m.Visibility
	}
	reg.RegisterTrait(t)
}

func registerEnumDecl(reg *object.Registries, s *ast.EnumDecl) {
	def := &object.EnumDefinition{Name: s.Name, BackingType: s.BackingType, Methods: map[string]*ast.MethodDecl{}}
	for _, c := range s.Cases {
		def.Cases = append(def.Cases, object.EnumCaseDef{Name: c.Name, Value: c.Value})
	}
	for i := range s.Methods {
		m := &s.Methods[i]
		def.Methods[lower(m.Name)] = m
	}
	reg.RegisterEnum(def)
}

// registerDecl registers stmt if it is a type/function declaration,
// reporting whether it did.
func registerDecl(reg *object.Registries, stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		reg.RegisterFunction(s)
		return true
	case *ast.ClassDecl:
		registerClassDecl(reg, s)
		return true
	case *ast.InterfaceDecl:
		registerInterfaceDecl(reg, s)
		return true
	case *ast.TraitDecl:
		registerTraitDecl(reg, s)
		return true
	case *ast.EnumDecl:
		registerEnumDecl(reg, s)
		return true
	}
	return false
}
