package semcube_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semcube "github.com/vk/semcube"
	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/datacube"
	"github.com/vk/semcube/internal/expression"
	"github.com/vk/semcube/internal/extent"
	"github.com/vk/semcube/internal/mapping"
	"github.com/vk/semcube/internal/recipe"
	"github.com/vk/semcube/internal/valuetype"
)

func TestExecutePipeline(t *testing.T) {
	coords := []string{"2021-01-01T00:00:00Z", "2021-01-02T00:00:00Z"}
	layer, err := array.New("appearance/colortype", valuetype.Nominal,
		[]array.Axis{{Name: "time", Coords: coords}}, []float64{21, 4})
	require.NoError(t, err)

	cube := datacube.NewMemoryCube()
	cube.AddLayer([]string{"appearance", "colortype"}, layer)

	m := mapping.NewRuleMapping()
	m.Define([]string{"entity", "water"}, mapping.Ruleset{
		{Name: "color", Rule: expression.NewEvaluate("equal",
			expression.Layer("appearance", "colortype"), expression.NumberLit(21))},
	})

	rec := recipe.New()
	rec.Set("water", expression.Concept("entity", "water"))

	out, err := semcube.Execute(context.Background(), rec, cube, m,
		extent.Spatial{XMin: 0, YMin: 0, XMax: 2, YMax: 2, CRS: 3035, Resolution: [2]float64{-1, 1}},
		extent.Temporal{
			Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float64{1, 0}, out["water"].Data())
	assert.Equal(t, valuetype.Boolean, out["water"].ValueType())
}
