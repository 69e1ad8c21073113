package expr

import (
	"fmt"

	"github.com/ramonfmir/scallop/internal/value"
)

// Context binds variable names to values for one evaluation of an Expr tree.
type Context map[string]value.Value

// ForeignFunctions resolves a foreign function by name for Call nodes
// (§6 Foreign function contract). Execute returns ok=false to signal a
// suppressed tuple (the foreign function returned None), not an error.
type ForeignFunctions interface {
	Execute(name string, args []value.Value) (result value.Value, ok bool, err error)
}

// ErrSuppressed is returned by Eval when a foreign function call suppresses
// the enclosing tuple (§6: "returning None suppresses that tuple without
// raising").
var ErrSuppressed = fmt.Errorf("expr: tuple suppressed by foreign function")

// Eval evaluates e against ctx, resolving any Call nodes through ff.
func Eval(e *Expr, ctx Context, ff ForeignFunctions) (value.Value, error) {
	switch e.Kind {
	case KindConst:
		return e.Const, nil
	case KindVar:
		v, ok := ctx[e.Var]
		if !ok {
			return value.Value{}, fmt.Errorf("expr: unbound variable %q", e.Var)
		}
		return v, nil
	case KindBinary:
		return evalBinary(e, ctx, ff)
	case KindUnary:
		return evalUnary(e, ctx, ff)
	case KindCast:
		v, err := Eval(e.CastFrom, ctx, ff)
		if err != nil {
			return value.Value{}, err
		}
		out, ok := v.CastTo(e.CastTarget)
		if !ok {
			return value.Value{}, fmt.Errorf("expr: cannot cast %s to %s", v.Type(), e.CastTarget)
		}
		return out, nil
	case KindIfThenElse:
		c, err := Eval(e.Cond, ctx, ff)
		if err != nil {
			return value.Value{}, err
		}
		if c.AsBool() {
			return Eval(e.Then, ctx, ff)
		}
		return Eval(e.Else, ctx, ff)
	case KindCall:
		if ff == nil {
			return value.Value{}, fmt.Errorf("expr: call to %q with no foreign function registry", e.CallFunc)
		}
		args := make([]value.Value, len(e.CallArgs))
		for i, a := range e.CallArgs {
			v, err := Eval(a, ctx, ff)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		result, ok, err := ff.Execute(e.CallFunc, args)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Value{}, ErrSuppressed
		}
		return result, nil
	default:
		return value.Value{}, fmt.Errorf("expr: unknown expression kind %d", e.Kind)
	}
}

func evalUnary(e *Expr, ctx Context, ff ForeignFunctions) (value.Value, error) {
	v, err := Eval(e.Operand, ctx, ff)
	if err != nil {
		return value.Value{}, err
	}
	switch e.UnOp {
	case Not:
		return value.Bool(!v.AsBool()), nil
	case Pos:
		return v, nil
	case Neg:
		if v.Type().IsFloat() {
			return negateFloat(v), nil
		}
		return negateInt(v), nil
	default:
		return value.Value{}, fmt.Errorf("expr: unknown unary operator %d", e.UnOp)
	}
}

func negateFloat(v value.Value) value.Value {
	if v.Type() == value.TypeF32 {
		return value.F32(-float32(v.AsF64()))
	}
	return value.F64(-v.AsF64())
}

func negateInt(v value.Value) value.Value {
	n := -v.AsI64()
	out, _ := value.I64(n).CastTo(v.Type())
	return out
}

func evalBinary(e *Expr, ctx Context, ff ForeignFunctions) (value.Value, error) {
	l, err := Eval(e.Left, ctx, ff)
	if err != nil {
		return value.Value{}, err
	}
	r, err := Eval(e.Right, ctx, ff)
	if err != nil {
		return value.Value{}, err
	}
	switch e.BinOp {
	case And:
		return value.Bool(l.AsBool() && r.AsBool()), nil
	case Or:
		return value.Bool(l.AsBool() || r.AsBool()), nil
	case Eq:
		return value.Bool(l.Compare(r) == 0), nil
	case Neq:
		return value.Bool(l.Compare(r) != 0), nil
	case Lt:
		return value.Bool(l.Compare(r) < 0), nil
	case Leq:
		return value.Bool(l.Compare(r) <= 0), nil
	case Gt:
		return value.Bool(l.Compare(r) > 0), nil
	case Geq:
		return value.Bool(l.Compare(r) >= 0), nil
	case Add:
		if l.Type() == value.TypeString {
			return value.String(l.AsString() + r.AsString()), nil
		}
		return arith(l, r, func(a, b int64) int64 { return a + b }, func(a, b uint64) uint64 { return a + b }, func(a, b float64) float64 { return a + b })
	case Sub:
		return arith(l, r, func(a, b int64) int64 { return a - b }, func(a, b uint64) uint64 { return a - b }, func(a, b float64) float64 { return a - b })
	case Mul:
		return arith(l, r, func(a, b int64) int64 { return a * b }, func(a, b uint64) uint64 { return a * b }, func(a, b float64) float64 { return a * b })
	case Div:
		if l.Type().IsFloat() {
			return arith(l, r, nil, nil, func(a, b float64) float64 { return a / b })
		}
		if r.AsI64() == 0 && r.AsU64() == 0 {
			return value.Value{}, fmt.Errorf("expr: division by zero")
		}
		return arith(l, r, func(a, b int64) int64 { return a / b }, func(a, b uint64) uint64 { return a / b }, nil)
	case Mod:
		return arith(l, r, func(a, b int64) int64 { return a % b }, func(a, b uint64) uint64 { return a % b }, nil)
	default:
		return value.Value{}, fmt.Errorf("expr: unknown binary operator %d", e.BinOp)
	}
}

func arith(l, r value.Value, signed func(a, b int64) int64, unsigned func(a, b uint64) uint64, float func(a, b float64) float64) (value.Value, error) {
	switch {
	case l.Type().IsFloat():
		if float == nil {
			return value.Value{}, fmt.Errorf("expr: operator not defined on %s", l.Type())
		}
		out := float(l.AsF64(), r.AsF64())
		if l.Type() == value.TypeF32 {
			return value.F32(float32(out)), nil
		}
		return value.F64(out), nil
	case l.Type().IsSignedInteger():
		if signed == nil {
			return value.Value{}, fmt.Errorf("expr: operator not defined on %s", l.Type())
		}
		out, _ := value.I64(signed(l.AsI64(), r.AsI64())).CastTo(l.Type())
		return out, nil
	default:
		if unsigned == nil {
			return value.Value{}, fmt.Errorf("expr: operator not defined on %s", l.Type())
		}
		out, _ := value.U64(unsigned(l.AsU64(), r.AsU64())).CastTo(l.Type())
		return out, nil
	}
}
