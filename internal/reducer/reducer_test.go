package reducer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/valuetype"
)

// line builds a 1-d numerical array over an "time" axis.
func line(t *testing.T, vtype valuetype.Type, values ...float64) *array.Array {
	t.Helper()
	coords := make([]string, len(values))
	for i := range coords {
		coords[i] = string(rune('a' + i))
	}
	a, err := array.New("line", vtype, []array.Axis{{Name: "time", Coords: coords}}, values)
	require.NoError(t, err)
	return a
}

func reduceScalar(t *testing.T, a *array.Array, name string) float64 {
	t.Helper()
	out, err := Reduce(a, "time", name, true)
	require.NoError(t, err)
	require.Equal(t, 1, out.Size())
	return out.Data()[0]
}

func TestAllMissingSliceYieldsNoData(t *testing.T) {
	// Every family, including the ones whose numeric core has an identity
	// element, must emit no-data for an entirely missing slice.
	numerical := []string{"mean", "sum", "product", "variance", "standard_deviation", "max", "min", "median", "first", "last", "mode"}
	nd := array.NoData()
	for _, name := range numerical {
		t.Run(name, func(t *testing.T) {
			a := line(t, valuetype.Numerical, nd, nd, nd)
			assert.True(t, array.IsNoData(reduceScalar(t, a, name)), "reducer %q", name)
		})
	}
	for _, name := range []string{"all", "any", "count", "percentage"} {
		t.Run(name, func(t *testing.T) {
			a := line(t, valuetype.Boolean, nd, nd, nd)
			assert.True(t, array.IsNoData(reduceScalar(t, a, name)), "reducer %q", name)
		})
	}
}

func TestNumericalReducers(t *testing.T) {
	nd := array.NoData()
	a := line(t, valuetype.Numerical, 1, nd, 2, 3)

	assert.Equal(t, 2.0, reduceScalar(t, a, "mean"))
	assert.Equal(t, 6.0, reduceScalar(t, a, "sum"))
	assert.Equal(t, 6.0, reduceScalar(t, a, "product"))
	assert.InDelta(t, 2.0/3.0, reduceScalar(t, a, "variance"), 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), reduceScalar(t, a, "standard_deviation"), 1e-12)
}

func TestBooleanReducers(t *testing.T) {
	nd := array.NoData()

	assert.Equal(t, 1.0, reduceScalar(t, line(t, valuetype.Boolean, 1, nd, 1), "all"))
	assert.Equal(t, 0.0, reduceScalar(t, line(t, valuetype.Boolean, 1, 0, 1), "all"))
	assert.Equal(t, 1.0, reduceScalar(t, line(t, valuetype.Boolean, 0, nd, 1), "any"))
	assert.Equal(t, 0.0, reduceScalar(t, line(t, valuetype.Boolean, 0, nd, 0), "any"))
}

func TestCountAndPercentage(t *testing.T) {
	nd := array.NoData()
	a := line(t, valuetype.Boolean, 1, 1, 0, nd)

	assert.Equal(t, 2.0, reduceScalar(t, a, "count"))
	// 2 of 3 valid cells are true.
	assert.InDelta(t, 100.0*2.0/3.0, reduceScalar(t, a, "percentage"), 1e-12)
}

func TestOrderedReducers(t *testing.T) {
	nd := array.NoData()
	a := line(t, valuetype.Numerical, 4, nd, 1, 3)

	assert.Equal(t, 4.0, reduceScalar(t, a, "max"))
	assert.Equal(t, 1.0, reduceScalar(t, a, "min"))
	assert.Equal(t, 3.0, reduceScalar(t, a, "median"))

	even := line(t, valuetype.Numerical, 1, 2, 3, 4)
	assert.Equal(t, 2.5, reduceScalar(t, even, "median"))
}

func TestFirstAndLast(t *testing.T) {
	nd := array.NoData()
	a := line(t, valuetype.Numerical, nd, 2, nd, 5)

	assert.Equal(t, 2.0, reduceScalar(t, a, "first"))
	assert.Equal(t, 5.0, reduceScalar(t, a, "last"))
}

func TestModeTieBreaksToSmallest(t *testing.T) {
	// 1 and 3 both appear twice; the smallest tied value wins.
	a := line(t, valuetype.Numerical, 3, 1, 2, 1, 3)
	assert.Equal(t, 1.0, reduceScalar(t, a, "mode"))
}

func TestPromotionRunsBeforeData(t *testing.T) {
	a := line(t, valuetype.Nominal, 1, 2, 2)

	_, err := Reduce(a, "time", "mean", true)
	var typeErr *valuetype.UnsupportedTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "mean", typeErr.Operation)
	assert.Equal(t, valuetype.Nominal, typeErr.Input)

	// The same reduction with type tracking disabled is allowed through.
	out, err := Reduce(a, "time", "mean", false)
	require.NoError(t, err)
	assert.Equal(t, valuetype.Nominal, out.ValueType())
}

func TestReduceUnknownDimension(t *testing.T) {
	a := line(t, valuetype.Numerical, 1, 2)
	_, err := Reduce(a, "band", "mean", true)
	var dimErr *array.DimensionNotFoundError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "band", dimErr.Dimension)
}

func TestReduceUnknownReducer(t *testing.T) {
	a := line(t, valuetype.Numerical, 1, 2)
	_, err := Reduce(a, "time", "harmonic_mean", true)
	assert.ErrorContains(t, err, "unknown reducer")
}

func TestPromotedOutputTypes(t *testing.T) {
	a := line(t, valuetype.Numerical, 1, 0, 1)

	out, err := Reduce(a, "time", "any", true)
	require.NoError(t, err)
	assert.Equal(t, valuetype.Boolean, out.ValueType())

	out, err = Reduce(a, "time", "count", true)
	require.NoError(t, err)
	assert.Equal(t, valuetype.Numerical, out.ValueType())

	ord := line(t, valuetype.Ordinal, 2, 1, 2)
	out, err = Reduce(ord, "time", "mode", true)
	require.NoError(t, err)
	assert.Equal(t, valuetype.Ordinal, out.ValueType())
}

func TestReduceKeepsRemainingAxes(t *testing.T) {
	nd := array.NoData()
	axes := []array.Axis{
		{Name: "time", Coords: []string{"t0", "t1", "t2"}},
		{Name: "x", Coords: []string{"x0", "x1"}},
	}
	a, err := array.New("grid", valuetype.Numerical, axes, []float64{
		1, nd,
		2, nd,
		3, nd,
	})
	require.NoError(t, err)

	out, err := Reduce(a, "time", "sum", true)
	require.NoError(t, err)
	require.Len(t, out.Axes(), 1)
	assert.Equal(t, "x", out.Axes()[0].Name)
	assert.Equal(t, 6.0, out.Data()[0])
	assert.True(t, array.IsNoData(out.Data()[1]))
}
