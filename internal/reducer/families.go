package reducer

import (
	"math"
	"sort"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/valuetype"
)

func init() {
	// A malformed promotion table is a programming error, caught here
	// before any reducer can consult it.
	if err := valuetype.VerifyTable(); err != nil {
		panic(err)
	}

	// Numerical reducers.
	register("mean", valuetype.NumericalReducers, mean)
	register("sum", valuetype.NumericalReducers, sum)
	register("product", valuetype.NumericalReducers, product)
	register("variance", valuetype.NumericalReducers, variance)
	register("standard_deviation", valuetype.NumericalReducers, standardDeviation)

	// Boolean reducers.
	register("all", valuetype.BooleanReducers, all)
	register("any", valuetype.BooleanReducers, anyTrue)

	// Count reducers.
	register("count", valuetype.CountReducers, count)
	register("percentage", valuetype.CountReducers, percentage)

	// Ordered reducers.
	register("max", valuetype.OrderedReducers, maxValue)
	register("min", valuetype.OrderedReducers, minValue)
	register("median", valuetype.OrderedReducers, median)

	// Universal reducers.
	register("first", valuetype.UniversalReducers, first)
	register("last", valuetype.UniversalReducers, last)
	register("mode", valuetype.UniversalReducers, mode)
}

func mean(xs []float64) float64 {
	s, n := 0.0, 0
	for _, v := range xs {
		if !array.IsNoData(v) {
			s += v
			n++
		}
	}
	if n == 0 {
		return array.NoData()
	}
	return s / float64(n)
}

func sum(xs []float64) float64 {
	// The numeric identity of 0 must not leak out of an all-missing slice.
	if allNoData(xs) {
		return array.NoData()
	}
	s := 0.0
	for _, v := range xs {
		if !array.IsNoData(v) {
			s += v
		}
	}
	return s
}

func product(xs []float64) float64 {
	if allNoData(xs) {
		return array.NoData()
	}
	p := 1.0
	for _, v := range xs {
		if !array.IsNoData(v) {
			p *= v
		}
	}
	return p
}

func variance(xs []float64) float64 {
	// Population variance over the valid values.
	vs := finite(xs)
	if len(vs) == 0 {
		return array.NoData()
	}
	m := 0.0
	for _, v := range vs {
		m += v
	}
	m /= float64(len(vs))
	s := 0.0
	for _, v := range vs {
		d := v - m
		s += d * d
	}
	return s / float64(len(vs))
}

func standardDeviation(xs []float64) float64 {
	v := variance(xs)
	if array.IsNoData(v) {
		return array.NoData()
	}
	return math.Sqrt(v)
}

func all(xs []float64) float64 {
	if allNoData(xs) {
		return array.NoData()
	}
	for _, v := range xs {
		if !array.IsNoData(v) && v == 0 {
			return 0
		}
	}
	return 1
}

func anyTrue(xs []float64) float64 {
	// "any" has a natural identity of false; the all-missing guard keeps an
	// entirely absent slice from reporting a definite false.
	if allNoData(xs) {
		return array.NoData()
	}
	for _, v := range xs {
		if !array.IsNoData(v) && v != 0 {
			return 1
		}
	}
	return 0
}

func count(xs []float64) float64 {
	if allNoData(xs) {
		return array.NoData()
	}
	n := 0
	for _, v := range xs {
		if !array.IsNoData(v) && v != 0 {
			n++
		}
	}
	return float64(n)
}

func percentage(xs []float64) float64 {
	part := count(xs)
	if array.IsNoData(part) {
		return array.NoData()
	}
	whole := 0
	for _, v := range xs {
		if !array.IsNoData(v) {
			whole++
		}
	}
	return part / float64(whole) * 100
}

func maxValue(xs []float64) float64 {
	vs := finite(xs)
	if len(vs) == 0 {
		return array.NoData()
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minValue(xs []float64) float64 {
	vs := finite(xs)
	if len(vs) == 0 {
		return array.NoData()
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func median(xs []float64) float64 {
	vs := finite(xs)
	if len(vs) == 0 {
		return array.NoData()
	}
	sort.Float64s(vs)
	mid := len(vs) / 2
	if len(vs)%2 == 1 {
		return vs[mid]
	}
	return (vs[mid-1] + vs[mid]) / 2
}

func first(xs []float64) float64 {
	for _, v := range xs {
		if !array.IsNoData(v) {
			return v
		}
	}
	return array.NoData()
}

// last is first applied to the slice in reversed coordinate order.
func last(xs []float64) float64 {
	for i := len(xs) - 1; i >= 0; i-- {
		if !array.IsNoData(xs[i]) {
			return xs[i]
		}
	}
	return array.NoData()
}

func mode(xs []float64) float64 {
	counts := map[float64]int{}
	for _, v := range xs {
		if !array.IsNoData(v) {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return array.NoData()
	}
	best := array.NoData()
	bestCount := 0
	for v, n := range counts {
		// On a tie the smallest of the tied values wins.
		if n > bestCount || (n == bestCount && v < best) {
			best = v
			bestCount = n
		}
	}
	return best
}
