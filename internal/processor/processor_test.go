package processor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/datacube"
	"github.com/vk/semcube/internal/expression"
	"github.com/vk/semcube/internal/extent"
	"github.com/vk/semcube/internal/mapping"
	"github.com/vk/semcube/internal/recipe"
	"github.com/vk/semcube/internal/valuetype"
)

var timeCoords = []string{
	"2021-01-01T00:00:00Z",
	"2021-01-02T00:00:00Z",
	"2021-01-03T00:00:00Z",
}

func testSpace() extent.Spatial {
	return extent.Spatial{
		XMin: 0, YMin: 0, XMax: 2, YMax: 2,
		CRS:        3035,
		Resolution: [2]float64{-1, 1},
	}
}

func testTime() extent.Temporal {
	return extent.Temporal{
		Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
	}
}

func timeSeries(t *testing.T, name string, vtype valuetype.Type, data []float64) *array.Array {
	t.Helper()
	arr, err := array.New(name, vtype, []array.Axis{{Name: "time", Coords: timeCoords}}, data)
	require.NoError(t, err)
	return arr
}

func testCube(t *testing.T) *datacube.MemoryCube {
	t.Helper()
	cube := datacube.NewMemoryCube()
	cube.AddLayer([]string{"appearance", "colortype"},
		timeSeries(t, "colortype", valuetype.Nominal, []float64{21, 4, 21}))
	cube.AddLayer([]string{"topography", "elevation"},
		timeSeries(t, "elevation", valuetype.Numerical, []float64{10, 20, 30}))
	return cube
}

func testMapping() *mapping.RuleMapping {
	m := mapping.NewRuleMapping()
	m.Define([]string{"entity", "water"}, mapping.Ruleset{
		{Name: "color", Rule: expression.NewEvaluate("equal",
			expression.Layer("appearance", "colortype"), expression.NumberLit(21))},
	})
	m.Define([]string{"entity", "lake"}, mapping.Ruleset{
		{Name: "color", Rule: expression.NewEvaluate("equal",
			expression.Layer("appearance", "colortype"), expression.NumberLit(21))},
		{Name: "depth", Rule: expression.NewEvaluate("greater",
			expression.Layer("topography", "elevation"), expression.NumberLit(15))},
	})
	return m
}

func parseRecipe(t *testing.T, rec *recipe.QueryRecipe, opts map[string]any) *QueryProcessor {
	t.Helper()
	qp, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), opts)
	require.NoError(t, err)
	return qp
}

func TestExecuteConceptRoundTrip(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))

	qp := parseRecipe(t, rec, nil)
	out, err := qp.Optimize().Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)

	water := out["water"]
	require.NotNil(t, water)
	assert.Equal(t, "water", water.Name())
	assert.Equal(t, valuetype.Boolean, water.ValueType())
	assert.Equal(t, []float64{1, 0, 1}, water.Data())
}

func TestExecuteLayerIdentity(t *testing.T) {
	rec := recipe.New()
	rec.Set("raw", expression.Layer("topography", "elevation"))

	out, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	require.NoError(t, err)

	raw := out["raw"]
	assert.Equal(t, "raw", raw.Name())
	assert.Equal(t, valuetype.Numerical, raw.ValueType())
	assert.Equal(t, []float64{10, 20, 30}, raw.Data())
	require.Len(t, raw.Axes(), 1)
	assert.Equal(t, timeCoords, raw.Axes()[0].Coords)
}

func TestExecuteMultiPropertyConcept(t *testing.T) {
	rec := recipe.New()
	rec.Set("lake", expression.Concept("entity", "lake"))

	out, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	require.NoError(t, err)

	lake := out["lake"]
	assert.Equal(t, valuetype.Boolean, lake.ValueType())
	assert.Equal(t, []float64{0, 0, 1}, lake.Data())
}

func TestExecuteReduceOverTime(t *testing.T) {
	rec := recipe.New()
	rec.Set("water_count", expression.NewReduce(
		expression.Concept("entity", "water"), "time", "count"))

	out, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	require.NoError(t, err)

	count := out["water_count"]
	assert.Equal(t, valuetype.Numerical, count.ValueType())
	assert.Equal(t, []float64{2}, count.Data())
}

func TestOptimizeDoesNotChangeOutputs(t *testing.T) {
	build := func() *recipe.QueryRecipe {
		rec := recipe.New()
		rec.Set("water", expression.Concept("entity", "water"))
		rec.Set("lake", expression.Concept("entity", "lake"))
		rec.Set("water_count", expression.NewReduce(
			expression.Result("water"), "time", "count"))
		return rec
	}

	plain, err := parseRecipe(t, build(), nil).Execute(context.Background())
	require.NoError(t, err)
	optimized, err := parseRecipe(t, build(), nil).Optimize().Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, optimized, len(plain))
	for name, arr := range plain {
		assert.True(t, arr.Equal(optimized[name]), "result %q differs", name)
	}
}

type countingCube struct {
	*datacube.MemoryCube
	retrievals atomic.Int64
}

func (c *countingCube) Retrieve(ctx context.Context, reference []string, ext *extent.Extent) (*array.Array, error) {
	c.retrievals.Add(1)
	return c.MemoryCube.Retrieve(ctx, reference, ext)
}

func TestSharedLayerFetchedOnce(t *testing.T) {
	cube := &countingCube{MemoryCube: testCube(t)}

	// Both results resolve to the same colortype layer.
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))
	rec.Set("not_water", expression.NewEvaluateUnary("not",
		expression.Concept("entity", "water")))

	qp, err := Parse(context.Background(), rec, cube, testMapping(),
		testSpace(), testTime(), nil)
	require.NoError(t, err)

	_, err = qp.Optimize().Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cube.retrievals.Load())
}

func TestUnresolvedConceptFailsParse(t *testing.T) {
	rec := recipe.New()
	rec.Set("glacier", expression.Concept("entity", "glacier"))

	_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), nil)
	require.Error(t, err)

	var resErr *ResultError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "glacier", resErr.Result)
	var unresolved *UnresolvedReferenceError
	assert.ErrorAs(t, err, &unresolved)
}

func TestUnknownLayerFailsParse(t *testing.T) {
	rec := recipe.New()
	rec.Set("bad", expression.Layer("appearance", "texture"))

	_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), nil)
	var notFound *datacube.LayerNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestBareLiteralFailsParse(t *testing.T) {
	rec := recipe.New()
	rec.Set("bad", expression.NumberLit(1))

	_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only valid as an operand")
}

func TestSelfReferencingResultFailsParse(t *testing.T) {
	rec := recipe.New()
	rec.Set("loop", expression.NewEvaluateUnary("not", expression.Result("loop")))

	_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "references itself")
}

func TestFailFastReturnsNoPartialResults(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))
	rec.Set("broken", expression.NewReduce(
		expression.Layer("topography", "elevation"), "band", "mean"))

	out, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	require.Error(t, err)
	assert.Nil(t, out)

	var resErr *ResultError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "broken", resErr.Result)
	var dimErr *array.DimensionNotFoundError
	assert.ErrorAs(t, err, &dimErr)
}

func TestFilterRequiresBooleanFilterer(t *testing.T) {
	rec := recipe.New()
	rec.Set("bad", expression.NewFilter(
		expression.Layer("topography", "elevation"),
		expression.Layer("topography", "elevation")))

	_, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	var typeErr *valuetype.UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "filter", typeErr.Operation)
}

func TestFilterWithoutTypeTracking(t *testing.T) {
	rec := recipe.New()
	rec.Set("loose", expression.NewFilter(
		expression.Layer("topography", "elevation"),
		expression.Layer("topography", "elevation")))

	out, err := parseRecipe(t, rec, map[string]any{"track_types": false}).
		Optimize().Execute(context.Background())
	require.NoError(t, err)
	for _, v := range out["loose"].Data() {
		assert.True(t, array.IsNoData(v))
	}
}

func TestFilterKeepsMatchingCells(t *testing.T) {
	rec := recipe.New()
	rec.Set("wet_elevation", expression.NewFilter(
		expression.Layer("topography", "elevation"),
		expression.Concept("entity", "water")))

	out, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	require.NoError(t, err)

	data := out["wet_elevation"].Data()
	assert.Equal(t, 10.0, data[0])
	assert.True(t, array.IsNoData(data[1]))
	assert.Equal(t, 30.0, data[2])
}

func TestApplyRegisteredFunction(t *testing.T) {
	RegisterFunction("scale", func(x *array.Array, args []cty.Value) (*array.Array, error) {
		factor, _ := args[0].AsBigFloat().Float64()
		return x.Map(func(v float64) float64 { return v * factor }), nil
	})

	rec := recipe.New()
	rec.Set("scaled", expression.NewApply("scale",
		expression.Layer("topography", "elevation"), cty.NumberFloatVal(2)))

	out, err := parseRecipe(t, rec, nil).Optimize().Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 40, 60}, out["scaled"].Data())
}

func TestUnknownFunctionFailsParse(t *testing.T) {
	rec := recipe.New()
	rec.Set("bad", expression.NewApply("no_such_function",
		expression.Layer("topography", "elevation")))

	_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no function registered")
}

func TestConfigRejectsUnknownOption(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))

	_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
		testSpace(), testTime(), map[string]any{"resolution": 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unrecognized configuration option "resolution"`)
}

func TestConfigValidatesOptionTypes(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))

	cases := map[string]map[string]any{
		"crs as string":      {"crs": "EPSG:3035"},
		"negative workers":   {"workers": -2},
		"tz as number":       {"tz": 42},
		"odd resolution":     {"spatial_resolution": []float64{1, 2, 3}},
		"bad duration":       {"temporal_resolution": "yearly"},
		"track_types string": {"track_types": "yes"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(context.Background(), rec, testCube(t), testMapping(),
				testSpace(), testTime(), opts)
			assert.Error(t, err)
		})
	}
}

func TestConfigOverridesExtent(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))

	// Two-day steps halve the time axis; the mismatch with stored
	// three-step layers is resolved by label matching in the backend.
	qp := parseRecipe(t, rec, map[string]any{"temporal_resolution": "48h"})
	out, err := qp.Optimize().Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, out["water"].Data())
}

func TestExecuteTwiceFails(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))

	qp := parseRecipe(t, rec, nil)
	_, err := qp.Execute(context.Background())
	require.NoError(t, err)
	_, err = qp.Execute(context.Background())
	require.Error(t, err)
}

func TestDescribeGolden(t *testing.T) {
	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))
	rec.Set("count", expression.NewReduce(
		expression.Result("water"), "time", "count"))

	qp := parseRecipe(t, rec, nil).Optimize()
	g := goldie.New(t)
	g.Assert(t, "plan", []byte(qp.Describe()))
}
