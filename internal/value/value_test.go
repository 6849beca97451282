package value

import "testing"

func TestToBoolStringSpecialCase(t *testing.T) {
	if ToBool(Str("0")) {
		t.Error(`ToBool("0") = true, want false`)
	}
	if !ToBool(Str("00")) {
		t.Error(`ToBool("00") = false, want true`)
	}
}

func TestNormalizeKeyCanonicalIntString(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want ArrayKey
	}{
		{"canonical int string", Str("42"), IntKey(42)},
		{"leading zero is not canonical", Str("007"), StringKey("007")},
		{"negative canonical int", Str("-3"), IntKey(-3)},
		{"non-numeric string", Str("abc"), StringKey("abc")},
		{"bool true", Bool(true), IntKey(1)},
		{"bool false", Bool(false), IntKey(0)},
		{"null", Null{}, StringKey("")},
		{"float truncates", Float(3.9), IntKey(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestArraySetUnderStringAndIntSameSlot(t *testing.T) {
	a := NewArray()
	a.Set(NormalizeKey(Str("5")), Str("via string"))
	a.Set(NormalizeKey(Int(5)), Str("via int"))
	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (same normalized slot)", a.Len())
	}
	got, ok := a.Get(IntKey(5))
	if !ok || got != Str("via int") {
		t.Errorf("Get(IntKey(5)) = %v, %v, want %q, true", got, ok, "via int")
	}
}

func TestArrayPreservesInsertionOrder(t *testing.T) {
	a := NewArray()
	a.Set(StringKey("b"), Int(1))
	a.Set(StringKey("a"), Int(2))
	keys := a.Keys()
	if len(keys) != 2 || keys[0] != StringKey("b") || keys[1] != StringKey("a") {
		t.Errorf("Keys() = %v, want [b a] in insertion order", keys)
	}
}

func TestArrayDeleteShiftsIndex(t *testing.T) {
	a := NewArray()
	a.Set(StringKey("x"), Int(1))
	a.Set(StringKey("y"), Int(2))
	a.Set(StringKey("z"), Int(3))
	a.Delete(StringKey("x"))
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	keys := a.Keys()
	if keys[0] != StringKey("y") || keys[1] != StringKey("z") {
		t.Errorf("Keys() after delete = %v, want [y z]", keys)
	}
}

func TestStrictEqualNaNIsNeverEqual(t *testing.T) {
	nan := Float(nanValue())
	if StrictEqual(nan, nan) {
		t.Error("StrictEqual(NaN, NaN) = true, want false")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
