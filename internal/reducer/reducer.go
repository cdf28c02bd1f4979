// Package reducer implements the catalogue of dimension-collapsing
// operations. Every reducer composes the no-data convention (an all-missing
// slice reduces to no-data, never to an identity element) with the type
// promotion table, which runs before any cell is touched.
package reducer

import (
	"fmt"
	"sort"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/valuetype"
)

// Reducer is a named aggregation with its promotion family.
type Reducer struct {
	Name   string
	Family valuetype.Family
	Fn     array.Aggregator
}

var registry = map[string]*Reducer{}

func register(name string, family valuetype.Family, fn array.Aggregator) {
	registry[name] = &Reducer{Name: name, Family: family, Fn: fn}
}

// Lookup resolves a reducer by name.
func Lookup(name string) (*Reducer, error) {
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown reducer %q", name)
	}
	return r, nil
}

// Names returns all registered reducer names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reduce collapses the named dimension of x with the named reducer. With
// trackTypes set, the output value type is promoted through the table; the
// legality check runs before any data is read, so an illegal type fails
// fast regardless of array size.
func Reduce(x *array.Array, dimension, name string, trackTypes bool) (*array.Array, error) {
	r, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	outType := x.ValueType()
	if trackTypes {
		outType, err = valuetype.Promote(r.Name, r.Family, x.ValueType())
		if err != nil {
			return nil, err
		}
	}

	out, err := x.ReduceAlong(dimension, r.Fn)
	if err != nil {
		return nil, err
	}
	if trackTypes {
		out.SetValueType(outType)
	}
	return out, nil
}

// allNoData reports whether a slice holds no valid value at all. Reducers
// whose numeric core has an identity element (sum, product, any, count)
// must consult it explicitly instead of relying on the identity.
func allNoData(xs []float64) bool {
	for _, v := range xs {
		if !array.IsNoData(v) {
			return false
		}
	}
	return true
}

// finite returns the valid values of a slice in order.
func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !array.IsNoData(v) {
			out = append(out, v)
		}
	}
	return out
}
