// Package object holds the process-wide, mutable type registries —
// classes, interfaces, traits, and enums — shared by the evaluator and the
// bytecode VM, grounded on the teacher's internal/interp/class.go and
// internal/interp/runtime/class_interface.go case-insensitive lookup
// convention (strings.EqualFold at the boundary, canonical case preserved
// in storage).
package object

import (
	"strings"

	"github.com/leocavalcante/vhp/internal/ast"
)

// ClassDefinition is the registered shape of a `class` declaration.
type ClassDefinition struct {
	Name       string
	Abstract   bool
	Final      bool
	Readonly   bool
	Parent     string
	Interfaces []string
	Properties []*ast.PropertyDecl
	Methods    map[string]*ast.MethodDecl // lowercased name -> decl
	Visibility map[string]string          // lowercased method name -> visibility
	Consts     map[string]ast.Expression
	Attributes []*ast.AttributeGroup
}

// InterfaceDefinition is the registered shape of an `interface` declaration.
type InterfaceDefinition struct {
	Name       string
	Extends    []string
	Methods    map[string]*ast.MethodDecl
	Consts     map[string]ast.Expression
	Attributes []*ast.AttributeGroup
}

// TraitDefinition is the registered shape of a `trait` declaration.
type TraitDefinition struct {
	Name       string
	Uses       []string
	Properties []*ast.PropertyDecl
	Methods    map[string]*ast.MethodDecl
	Visibility map[string]string
	Attributes []*ast.AttributeGroup
}

// EnumDefinition is the registered shape of an `enum` declaration.
type EnumDefinition struct {
	Name        string
	BackingType string // "", "int", or "string"
	Cases       []EnumCaseDef
	Methods     map[string]*ast.MethodDecl
	Consts      map[string]ast.Expression
	Attributes  []*ast.AttributeGroup
}

// EnumCaseDef is one declared case, in declaration order.
type EnumCaseDef struct {
	Name  string
	Value ast.Expression // nil for pure enum cases
}

// Registries is the shared, process-wide store of all named definitions,
// keyed by lowercased name per spec.md §3's case-insensitivity invariant.
// Both the evaluator and the VM hold a *Registries and register/resolve
// through it, matching spec.md §5's "shared mutable state" model.
type Registries struct {
	Classes    map[string]*ClassDefinition
	Interfaces map[string]*InterfaceDefinition
	Traits     map[string]*TraitDefinition
	Enums      map[string]*EnumDefinition
	Functions  map[string]*ast.FunctionDecl
}

// NewRegistries returns an empty registry set.
func NewRegistries() *Registries {
	return &Registries{
		Classes:    map[string]*ClassDefinition{},
		Interfaces: map[string]*InterfaceDefinition{},
		Traits:     map[string]*TraitDefinition{},
		Enums:      map[string]*EnumDefinition{},
		Functions:  map[string]*ast.FunctionDecl{},
	}
}

// Reset clears all tables, for test-harness isolation per spec.md §5.
func (r *Registries) Reset() { *r = *NewRegistries() }

func key(name string) string { return strings.ToLower(name) }

func (r *Registries) RegisterClass(c *ClassDefinition) { r.Classes[key(c.Name)] = c }
func (r *Registries) RegisterInterface(i *InterfaceDefinition) { r.Interfaces[key(i.Name)] = i }
func (r *Registries) RegisterTrait(t *TraitDefinition) { r.Traits[key(t.Name)] = t }
func (r *Registries) RegisterEnum(e *EnumDefinition) { r.Enums[key(e.Name)] = e }
func (r *Registries) RegisterFunction(f *ast.FunctionDecl) { r.Functions[key(f.Name)] = f }

func (r *Registries) LookupClass(name string) (*ClassDefinition, bool) {
	c, ok := r.Classes[key(name)]
	return c, ok
}

func (r *Registries) LookupInterface(name string) (*InterfaceDefinition, bool) {
	i, ok := r.Interfaces[key(name)]
	return i, ok
}

func (r *Registries) LookupTrait(name string) (*TraitDefinition, bool) {
	t, ok := r.Traits[key(name)]
	return t, ok
}

func (r *Registries) LookupEnum(name string) (*EnumDefinition, bool) {
	e, ok := r.Enums[key(name)]
	return e, ok
}

func (r *Registries) LookupFunction(name string) (*ast.FunctionDecl, bool) {
	f, ok := r.Functions[key(name)]
	return f, ok
}

// LookupMethod walks the class chain, self first, for a case-insensitive
// method name; it returns the method and the name of the class that
// declares it (for `parent::` resolution), per spec.md §4.4.
func (r *Registries) LookupMethod(className, methodName string) (*ast.MethodDecl, string, bool) {
	cur := className
	for cur != "" {
		c, ok := r.LookupClass(cur)
		if !ok {
			return nil, "", false
		}
		if m, ok := c.Methods[key(methodName)]; ok {
			return m, c.Name, true
		}
		cur = c.Parent
	}
	return nil, "", false
}

// IsSubclassOf reports whether className is class target or descends from
// it through the parent chain, used for catch-clause type matching.
func (r *Registries) IsSubclassOf(className, target string) bool {
	cur := className
	for cur != "" {
		if strings.EqualFold(cur, target) {
			return true
		}
		c, ok := r.LookupClass(cur)
		if !ok {
			return false
		}
		cur = c.Parent
	}
	return false
}

// ImplementsInterface reports whether className's chain declares target
// among its Interfaces lists, following interface `extends` transitively.
func (r *Registries) ImplementsInterface(className, target string) bool {
	cur := className
	for cur != "" {
		c, ok := r.LookupClass(cur)
		if !ok {
			return false
		}
		for _, iface := range c.Interfaces {
			if strings.EqualFold(iface, target) || r.interfaceExtends(iface, target) {
				return true
			}
		}
		cur = c.Parent
	}
	return false
}

func (r *Registries) interfaceExtends(iface, target string) bool {
	i, ok := r.LookupInterface(iface)
	if !ok {
		return false
	}
	for _, parent := range i.Extends {
		if strings.EqualFold(parent, target) || r.interfaceExtends(parent, target) {
			return true
		}
	}
	return false
}
