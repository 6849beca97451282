package object

import "testing"

func TestRegisterAndLookupClassIsCaseInsensitive(t *testing.T) {
	r := NewRegistries()
	r.RegisterClass(&ClassDefinition{Name: "MyClass"})

	for _, name := range []string{"MyClass", "myclass", "MYCLASS", "mYcLaSs"} {
		if _, ok := r.LookupClass(name); !ok {
			t.Errorf("LookupClass(%q) not found, want a hit (case-insensitive names)", name)
		}
	}
}

func TestIsSubclassOfWalksAncestorChain(t *testing.T) {
	r := NewRegistries()
	r.RegisterClass(&ClassDefinition{Name: "Base"})
	r.RegisterClass(&ClassDefinition{Name: "Middle", Parent: "Base"})
	r.RegisterClass(&ClassDefinition{Name: "Leaf", Parent: "Middle"})

	if !r.IsSubclassOf("Leaf", "Base") {
		t.Error("IsSubclassOf(Leaf, Base) = false, want true (transitive over extends)")
	}
	if r.IsSubclassOf("Base", "Leaf") {
		t.Error("IsSubclassOf(Base, Leaf) = true, want false")
	}
	if !r.IsSubclassOf("Leaf", "leaf") {
		t.Error("IsSubclassOf should compare names case-insensitively")
	}
}

func TestImplementsInterfaceIsTransitiveAcrossExtends(t *testing.T) {
	r := NewRegistries()
	r.RegisterInterface(&InterfaceDefinition{Name: "Shape"})
	r.RegisterClass(&ClassDefinition{Name: "Base", Interfaces: []string{"Shape"}})
	r.RegisterClass(&ClassDefinition{Name: "Derived", Parent: "Base"})

	if !r.ImplementsInterface("Derived", "Shape") {
		t.Error("ImplementsInterface(Derived, Shape) = false, want true (inherited from Base)")
	}
}
