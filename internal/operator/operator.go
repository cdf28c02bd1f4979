// Package operator implements the elementwise operations used by mapping
// rules and filter predicates: comparisons, arithmetic and boolean algebra.
// No-data in any operand propagates to no-data in the result; output value
// types come from the promotion table.
package operator

import (
	"fmt"
	"sort"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/valuetype"
)

// Operator is a named binary or unary elementwise operation.
type Operator struct {
	Name   string
	Family valuetype.Family
	Unary  bool
	Fn     func(x, y float64) float64
}

var registry = map[string]*Operator{}

func register(name string, family valuetype.Family, fn func(x, y float64) float64) {
	registry[name] = &Operator{Name: name, Family: family, Fn: fn}
}

func registerUnary(name string, family valuetype.Family, fn func(x float64) float64) {
	registry[name] = &Operator{
		Name:   name,
		Family: family,
		Unary:  true,
		Fn:     func(x, _ float64) float64 { return fn(x) },
	}
}

// Lookup resolves an operator by name.
func Lookup(name string) (*Operator, error) {
	op, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", name)
	}
	return op, nil
}

// Names returns all registered operator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// guard wraps an operator function with no-data propagation.
func guard(fn func(x, y float64) float64) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		if array.IsNoData(x) || array.IsNoData(y) {
			return array.NoData()
		}
		return fn(x, y)
	}
}

// Apply evaluates `x <op> y` cell by cell. With trackTypes set, the output
// type is promoted from x's type before any cell is read.
func Apply(x, y *array.Array, name string, trackTypes bool) (*array.Array, error) {
	op, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	outType, err := promote(op, x, trackTypes)
	if err != nil {
		return nil, err
	}
	out, err := x.Zip(y, guard(op.Fn))
	if err != nil {
		return nil, err
	}
	if trackTypes {
		out.SetValueType(outType)
	}
	return out, nil
}

// ApplyScalar evaluates `x <op> scalar` cell by cell.
func ApplyScalar(x *array.Array, scalar float64, name string, trackTypes bool) (*array.Array, error) {
	op, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	outType, err := promote(op, x, trackTypes)
	if err != nil {
		return nil, err
	}
	out := x.ZipScalar(scalar, guard(op.Fn))
	if trackTypes {
		out.SetValueType(outType)
	}
	return out, nil
}

// ApplyUnary evaluates a unary operator cell by cell.
func ApplyUnary(x *array.Array, name string, trackTypes bool) (*array.Array, error) {
	op, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if !op.Unary {
		return nil, fmt.Errorf("operator %q is not unary", name)
	}
	outType, err := promote(op, x, trackTypes)
	if err != nil {
		return nil, err
	}
	out := x.Map(func(v float64) float64 {
		if array.IsNoData(v) {
			return array.NoData()
		}
		return op.Fn(v, 0)
	})
	if trackTypes {
		out.SetValueType(outType)
	}
	return out, nil
}

func promote(op *Operator, x *array.Array, trackTypes bool) (valuetype.Type, error) {
	if !trackTypes {
		return x.ValueType(), nil
	}
	return valuetype.Promote(op.Name, op.Family, x.ValueType())
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func init() {
	register("equal", valuetype.ComparisonOperators, func(x, y float64) float64 { return boolVal(x == y) })
	register("not_equal", valuetype.ComparisonOperators, func(x, y float64) float64 { return boolVal(x != y) })
	register("greater", valuetype.ComparisonOperators, func(x, y float64) float64 { return boolVal(x > y) })
	register("greater_equal", valuetype.ComparisonOperators, func(x, y float64) float64 { return boolVal(x >= y) })
	register("less", valuetype.ComparisonOperators, func(x, y float64) float64 { return boolVal(x < y) })
	register("less_equal", valuetype.ComparisonOperators, func(x, y float64) float64 { return boolVal(x <= y) })

	register("add", valuetype.ArithmeticOperators, func(x, y float64) float64 { return x + y })
	register("subtract", valuetype.ArithmeticOperators, func(x, y float64) float64 { return x - y })
	register("multiply", valuetype.ArithmeticOperators, func(x, y float64) float64 { return x * y })
	register("divide", valuetype.ArithmeticOperators, func(x, y float64) float64 {
		// Division by zero is absence of a result, not infinity.
		if y == 0 {
			return array.NoData()
		}
		return x / y
	})

	register("and", valuetype.BooleanOperators, func(x, y float64) float64 { return boolVal(x != 0 && y != 0) })
	register("or", valuetype.BooleanOperators, func(x, y float64) float64 { return boolVal(x != 0 || y != 0) })
	registerUnary("not", valuetype.BooleanOperators, func(x float64) float64 { return boolVal(x == 0) })
}
