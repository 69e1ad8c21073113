package value

import "testing"

func TestValueCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"i32 less", I32(1), I32(2), -1},
		{"i32 equal", I32(5), I32(5), 0},
		{"f64 greater", F64(3.5), F64(1.5), 1},
		{"string collation", String("apple"), String("banana"), -1},
		{"bool false lt true", Bool(false), Bool(true), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValueCastTo(t *testing.T) {
	v, ok := I32(42).CastTo(TypeF64)
	if !ok || v.AsF64() != 42.0 {
		t.Fatalf("cast i32->f64 failed: %v %v", v, ok)
	}
	v, ok = I32(-1).CastTo(TypeU8)
	if !ok || v.AsU64() != 255 {
		t.Fatalf("cast i32(-1)->u8 = %v, want 255", v)
	}
}

func TestFitsInteger(t *testing.T) {
	if !FitsInteger(200, TypeU8) {
		t.Error("expected 200 to fit in u8")
	}
	if FitsInteger(200, TypeI8) {
		t.Error("expected 200 not to fit in i8")
	}
}

func TestTupleCompare(t *testing.T) {
	a := Compound(Leaf(I32(1)), Leaf(I32(2)))
	b := Compound(Leaf(I32(1)), Leaf(I32(3)))
	if a.Compare(b) >= 0 {
		t.Errorf("expected a < b")
	}
	if !a.Equal(a) {
		t.Errorf("expected a == a")
	}
}

func TestTupleTypeCheckShape(t *testing.T) {
	ty := CompoundType(LeafType(TypeI32), LeafType(TypeString))
	good := Compound(Leaf(I32(1)), Leaf(String("x")))
	bad := Compound(Leaf(I32(1)), Leaf(I32(2)))
	if !ty.CheckShape(good) {
		t.Error("expected shape to match")
	}
	if ty.CheckShape(bad) {
		t.Error("expected shape mismatch")
	}
}
