package expr

import (
	"math"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common"
	"github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

// Binary operators are rewritten at parse time into these functions, which promote
// int operands to double when the other side is a double. JSON numbers are doubles,
// so `price + 1` and `ratio * 2` must work without explicit conversions.
var arithmetic = map[string]struct {
	name string
	op   func(lhs, rhs ref.Val) ref.Val
}{
	operators.Add:      {"numeric_add", add},
	operators.Subtract: {"numeric_subtract", subtract},
	operators.Multiply: {"numeric_multiply", multiply},
	operators.Divide:   {"numeric_divide", divide},
	operators.Modulo:   {"numeric_modulo", modulo},
}

func baseOptions() []celgo.EnvOption {
	opts := []celgo.EnvOption{
		ext.Strings(),
		celgo.CrossTypeNumericComparisons(true),
	}
	for operator, fn := range arithmetic {
		opts = append(opts,
			celgo.Macros(celgo.GlobalMacro(operator, 2, rewriteTo(fn.name))),
			celgo.Function(fn.name,
				celgo.Overload(fn.name+"_dyn", []*celgo.Type{celgo.DynType, celgo.DynType}, celgo.DynType),
				celgo.SingletonBinaryBinding(fn.op),
			),
		)
	}
	return opts
}

func rewriteTo(function string) celgo.MacroFactory {
	return func(eh celgo.MacroExprFactory, _ ast.Expr, args []ast.Expr) (ast.Expr, *common.Error) {
		return eh.NewCall(function, args...), nil
	}
}

func promote(lhs, rhs ref.Val) (ref.Val, ref.Val) {
	switch l := lhs.(type) {
	case types.Int:
		if _, ok := rhs.(types.Double); ok {
			return types.Double(l), rhs
		}
	case types.Double:
		if r, ok := rhs.(types.Int); ok {
			return lhs, types.Double(r)
		}
	}
	return lhs, rhs
}

func add(lhs, rhs ref.Val) ref.Val {
	lhs, rhs = promote(lhs, rhs)
	a, ok := lhs.(traits.Adder)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	return finite(a.Add(rhs))
}

func subtract(lhs, rhs ref.Val) ref.Val {
	lhs, rhs = promote(lhs, rhs)
	s, ok := lhs.(traits.Subtractor)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	return finite(s.Subtract(rhs))
}

func multiply(lhs, rhs ref.Val) ref.Val {
	lhs, rhs = promote(lhs, rhs)
	m, ok := lhs.(traits.Multiplier)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	return finite(m.Multiply(rhs))
}

func divide(lhs, rhs ref.Val) ref.Val {
	lhs, rhs = promote(lhs, rhs)
	if r, ok := rhs.(types.Double); ok && r == 0 {
		return types.NewErr("division by zero")
	}
	d, ok := lhs.(traits.Divider)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	return finite(d.Divide(rhs))
}

func modulo(lhs, rhs ref.Val) ref.Val {
	lhs, rhs = promote(lhs, rhs)
	if l, ok := lhs.(types.Double); ok {
		r, ok := rhs.(types.Double)
		if !ok {
			return types.MaybeNoSuchOverloadErr(rhs)
		}
		if r == 0 {
			return types.NewErr("modulus by zero")
		}
		return types.Double(math.Mod(float64(l), float64(r)))
	}
	m, ok := lhs.(traits.Modder)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	return m.Modulo(rhs)
}

// finite turns NaN and infinite doubles into evaluation errors.
func finite(v ref.Val) ref.Val {
	if d, ok := v.(types.Double); ok && !isFinite(float64(d)) {
		return types.NewErr("arithmetic result is not a finite number")
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
