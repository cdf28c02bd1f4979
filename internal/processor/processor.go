// Package processor turns a query recipe into result arrays. Processing
// runs in three strict phases: Parse resolves every semantic reference
// against the mapping and datacube backends restricted to the query
// extent, Optimize rewrites the plan to share common subexpressions, and
// Execute evaluates the plan bottom-up with a worker pool. One processor
// instance serves one query; its plan and layer cache die with it.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vk/semcube/internal/ctxlog"
	"github.com/vk/semcube/internal/datacube"
	"github.com/vk/semcube/internal/extent"
	"github.com/vk/semcube/internal/mapping"
	"github.com/vk/semcube/internal/recipe"
)

const defaultWorkers = 4

// Config holds the recognized configuration options of a query. Every
// option given to Parse is validated; unknown options are rejected, never
// ignored.
type Config struct {
	CRS                int
	TZ                 string
	SpatialResolution  [2]float64
	TemporalResolution time.Duration
	Workers            int
	TrackTypes         bool
}

// parseOptions validates a free-form option map into a Config.
func parseOptions(opts map[string]any) (Config, error) {
	cfg := Config{Workers: defaultWorkers, TrackTypes: true}
	for key, raw := range opts {
		switch key {
		case "crs":
			v, err := intOption(key, raw)
			if err != nil {
				return cfg, err
			}
			cfg.CRS = v
		case "tz":
			v, ok := raw.(string)
			if !ok {
				return cfg, optionTypeError(key, "string", raw)
			}
			cfg.TZ = v
		case "spatial_resolution":
			v, err := resolutionOption(key, raw)
			if err != nil {
				return cfg, err
			}
			cfg.SpatialResolution = v
		case "temporal_resolution":
			switch v := raw.(type) {
			case time.Duration:
				cfg.TemporalResolution = v
			case string:
				d, err := time.ParseDuration(v)
				if err != nil {
					return cfg, fmt.Errorf("configuration option %q: %w", key, err)
				}
				cfg.TemporalResolution = d
			default:
				return cfg, optionTypeError(key, "duration", raw)
			}
		case "workers":
			v, err := intOption(key, raw)
			if err != nil {
				return cfg, err
			}
			if v <= 0 {
				return cfg, fmt.Errorf("configuration option %q must be positive, got %d", key, v)
			}
			cfg.Workers = v
		case "track_types":
			v, ok := raw.(bool)
			if !ok {
				return cfg, optionTypeError(key, "bool", raw)
			}
			cfg.TrackTypes = v
		default:
			return cfg, fmt.Errorf("unrecognized configuration option %q", key)
		}
	}
	return cfg, nil
}

func intOption(key string, raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, optionTypeError(key, "integer", raw)
	}
}

func resolutionOption(key string, raw any) ([2]float64, error) {
	switch v := raw.(type) {
	case [2]float64:
		return v, nil
	case []float64:
		if len(v) == 2 {
			return [2]float64{v[0], v[1]}, nil
		}
	}
	return [2]float64{}, optionTypeError(key, "pair of numbers", raw)
}

func optionTypeError(key, want string, raw any) error {
	return fmt.Errorf("configuration option %q expects a %s, got %T", key, want, raw)
}

// QueryProcessor holds the state of one query through its three phases.
type QueryProcessor struct {
	id       string
	datacube datacube.Datacube
	mapping  mapping.Mapping
	extent   *extent.Extent
	config   Config

	results   []resultPlan
	cache     *layerCache
	optimized bool
	executed  bool
}

// Parse resolves a recipe against the backends and extents into an
// evaluation plan. The configuration options recognized are crs, tz,
// spatial_resolution, temporal_resolution, workers and track_types.
func Parse(
	ctx context.Context,
	rec *recipe.QueryRecipe,
	dc datacube.Datacube,
	m mapping.Mapping,
	space extent.Spatial,
	t extent.Temporal,
	opts map[string]any,
) (*QueryProcessor, error) {
	logger := ctxlog.FromContext(ctx)

	cfg, err := parseOptions(opts)
	if err != nil {
		return nil, err
	}

	// Configuration overrides the extent descriptors before validation.
	if cfg.CRS != 0 {
		space.CRS = cfg.CRS
	}
	if cfg.SpatialResolution != [2]float64{} {
		space.Resolution = cfg.SpatialResolution
	}
	if cfg.TZ != "" {
		t.TZ = cfg.TZ
	}
	if cfg.TemporalResolution != 0 {
		t.Resolution = cfg.TemporalResolution
	}

	ext, err := extent.Build(space, t)
	if err != nil {
		return nil, err
	}

	qp := &QueryProcessor{
		id:       uuid.NewString(),
		datacube: dc,
		mapping:  m,
		extent:   ext,
		config:   cfg,
		cache:    newLayerCache(),
	}
	logger.Debug("Parsing recipe.", "processor", qp.id, "results", rec.Len())

	p := &parser{qp: qp, rec: rec, byName: make(map[string]*planNode), parsing: make(map[string]bool)}
	for _, name := range rec.Names() {
		root, err := p.resolveResult(name)
		if err != nil {
			return nil, tagResult(name, err)
		}
		qp.results = append(qp.results, resultPlan{name: name, root: root})
	}
	logger.Debug("Recipe parsed.", "processor", qp.id)
	return qp, nil
}

// Results returns the result names of the plan, in recipe order.
func (qp *QueryProcessor) Results() []string {
	names := make([]string, len(qp.results))
	for i, r := range qp.results {
		names[i] = r.name
	}
	return names
}
