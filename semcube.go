// Package semcube answers semantic queries against datacubes. A query
// couples a recipe of result expressions with a mapping that translates
// its semantic references into rules over datacube layers; executing it
// yields one labeled array per result, confined to a spatio-temporal
// extent.
package semcube

import (
	"context"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/datacube"
	"github.com/vk/semcube/internal/extent"
	"github.com/vk/semcube/internal/mapping"
	"github.com/vk/semcube/internal/processor"
	"github.com/vk/semcube/internal/recipe"
)

// Execute runs a recipe through the full parse, optimize and execute
// pipeline and returns its result arrays keyed by result name. See the
// processor package for the recognized configuration options.
func Execute(
	ctx context.Context,
	rec *recipe.QueryRecipe,
	dc datacube.Datacube,
	m mapping.Mapping,
	space extent.Spatial,
	t extent.Temporal,
	opts map[string]any,
) (map[string]*array.Array, error) {
	qp, err := processor.Parse(ctx, rec, dc, m, space, t, opts)
	if err != nil {
		return nil, err
	}
	return qp.Optimize().Execute(ctx)
}
