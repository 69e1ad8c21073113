package expr

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/value"
)

type fibFF struct{}

func (fibFF) Execute(name string, args []value.Value) (value.Value, bool, error) {
	if name != "fib" {
		return value.Value{}, false, nil
	}
	n := args[0].AsI64()
	if n < 0 {
		return value.Value{}, false, nil
	}
	a, b := int64(0), int64(1)
	for i := int64(1); i < n; i++ {
		a, b = b, a+b
	}
	return value.I32(int32(b)), true, nil
}

func TestEvalArithmetic(t *testing.T) {
	e := Binary(Add, Constant(value.I32(2)), Constant(value.I32(3)))
	v, err := Eval(e, nil, nil)
	if err != nil || v.AsI64() != 5 {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestEvalIfThenElse(t *testing.T) {
	e := IfThenElse(
		Binary(Gt, Variable("x"), Constant(value.I32(0))),
		Constant(value.String("pos")),
		Constant(value.String("nonpos")),
	)
	v, err := Eval(e, Context{"x": value.I32(5)}, nil)
	if err != nil || v.AsString() != "pos" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestEvalCallSuppressed(t *testing.T) {
	e := Call("fib", Constant(value.I32(-1)))
	_, err := Eval(e, nil, fibFF{})
	if err != ErrSuppressed {
		t.Fatalf("expected ErrSuppressed, got %v", err)
	}
}

func TestEvalCallFib(t *testing.T) {
	e := Call("fib", Variable("x"))
	for _, tc := range []struct{ n, want int64 }{{0, 1}, {3, 2}, {5, 5}, {8, 21}} {
		v, err := Eval(e, Context{"x": value.I32(int32(tc.n))}, fibFF{})
		if err != nil || v.AsI64() != tc.want {
			t.Fatalf("fib(%d) = %v, %v; want %d", tc.n, v, err, tc.want)
		}
	}
}

func TestVariables(t *testing.T) {
	e := Binary(Add, Variable("x"), Binary(Mul, Variable("y"), Variable("x")))
	vars := e.Variables()
	if len(vars) != 2 {
		t.Fatalf("expected 2 unique variables, got %v", vars)
	}
}
