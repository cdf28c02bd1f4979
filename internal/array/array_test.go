package array

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/semcube/internal/valuetype"
)

func axes2x3() []Axis {
	return []Axis{
		{Name: "time", Coords: []string{"t0", "t1"}},
		{Name: "x", Coords: []string{"x0", "x1", "x2"}},
	}
}

func TestNewSizeMismatch(t *testing.T) {
	_, err := New("bad", valuetype.Numerical, axes2x3(), []float64{1, 2, 3})
	assert.ErrorContains(t, err, "axes require 6")
}

func TestAxisIndex(t *testing.T) {
	a, err := New("a", valuetype.Numerical, axes2x3(), []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	i, err := a.AxisIndex("x")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = a.AxisIndex("band")
	var dimErr *DimensionNotFoundError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "band", dimErr.Dimension)
}

func TestReduceAlong(t *testing.T) {
	a, err := New("a", valuetype.Numerical, axes2x3(), []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	sum := func(xs []float64) float64 {
		s := 0.0
		for _, v := range xs {
			s += v
		}
		return s
	}

	t.Run("reduce leading axis", func(t *testing.T) {
		out, err := a.ReduceAlong("time", sum)
		require.NoError(t, err)
		require.Len(t, out.Axes(), 1)
		assert.Equal(t, "x", out.Axes()[0].Name)
		assert.Equal(t, []float64{5, 7, 9}, out.Data())
	})

	t.Run("reduce trailing axis", func(t *testing.T) {
		out, err := a.ReduceAlong("x", sum)
		require.NoError(t, err)
		require.Len(t, out.Axes(), 1)
		assert.Equal(t, "time", out.Axes()[0].Name)
		assert.Equal(t, []float64{6, 15}, out.Data())
	})

	t.Run("reduce to scalar", func(t *testing.T) {
		line, err := a.ReduceAlong("time", sum)
		require.NoError(t, err)
		out, err := line.ReduceAlong("x", sum)
		require.NoError(t, err)
		assert.Equal(t, []float64{21}, out.Data())
	})

	t.Run("unknown dimension", func(t *testing.T) {
		_, err := a.ReduceAlong("band", sum)
		var dimErr *DimensionNotFoundError
		assert.True(t, errors.As(err, &dimErr))
	})
}

func TestReduceAlongCoordinateOrder(t *testing.T) {
	a, err := New("a", valuetype.Numerical, axes2x3(), []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	var seen [][]float64
	_, err = a.ReduceAlong("x", func(xs []float64) float64 {
		cp := make([]float64, len(xs))
		copy(cp, xs)
		seen = append(seen, cp)
		return 0
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, seen)
}

func TestZipShapeMismatch(t *testing.T) {
	a, _ := New("a", valuetype.Numerical, axes2x3(), []float64{1, 2, 3, 4, 5, 6})
	b, _ := New("b", valuetype.Numerical, []Axis{{Name: "time", Coords: []string{"t0", "t1"}}}, []float64{1, 2})

	_, err := a.Zip(b, func(x, y float64) float64 { return x + y })
	assert.ErrorContains(t, err, "not defined on the same axes")
}

func TestEqualTreatsNoDataAsEqual(t *testing.T) {
	nd := NoData()
	a, _ := New("a", valuetype.Numerical, axes2x3(), []float64{1, nd, 3, 4, 5, 6})
	b, _ := New("b", valuetype.Numerical, axes2x3(), []float64{1, nd, 3, 4, 5, 6})
	c, _ := New("c", valuetype.Numerical, axes2x3(), []float64{1, 2, 3, 4, 5, 6})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	b.SetValueType(valuetype.Ordinal)
	assert.False(t, a.Equal(b))
}

func TestStack(t *testing.T) {
	axes := []Axis{{Name: "x", Coords: []string{"x0", "x1"}}}
	a, _ := New("a", valuetype.Boolean, axes, []float64{1, 0})
	b, _ := New("b", valuetype.Boolean, axes, []float64{0, 1})

	out, err := Stack("merged", "member", []*Array{a, b})
	require.NoError(t, err)
	require.Len(t, out.Axes(), 2)
	assert.Equal(t, "member", out.Axes()[0].Name)
	assert.Equal(t, []string{"0", "1"}, out.Axes()[0].Coords)
	assert.Equal(t, []float64{1, 0, 0, 1}, out.Data())
}

func TestNoDataMarker(t *testing.T) {
	assert.True(t, IsNoData(NoData()))
	assert.True(t, IsNoData(math.NaN()))
	assert.False(t, IsNoData(0))
	assert.False(t, IsNoData(math.Inf(1)))
}
