package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/semcube/internal/app"
)

// queryFlags are the flags describing one query, shared by run and
// explain.
type queryFlags struct {
	recipe  string
	mapping string
	cube    string
	output  string

	bounds     string
	crs        int
	resolution string

	start string
	end   string
	tz    string
	step  string

	workers int
	noTypes bool
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.recipe, "recipe", "r", "", "path to the recipe document (required)")
	cmd.Flags().StringVarP(&q.mapping, "mapping", "m", "", "path to the mapping document (required)")
	cmd.Flags().StringVarP(&q.cube, "cube", "c", "", "path to the datacube, a .yaml layout or .db sqlite file (required)")
	cmd.Flags().StringVarP(&q.output, "output", "o", "", "path for the result json, stdout when omitted")

	cmd.Flags().StringVar(&q.bounds, "bounds", "", "spatial bounds as xmin,ymin,xmax,ymax (required)")
	cmd.Flags().IntVar(&q.crs, "crs", 0, "EPSG code of the spatial extent (required)")
	cmd.Flags().StringVar(&q.resolution, "resolution", "", "cell resolution as dy,dx (required)")

	cmd.Flags().StringVar(&q.start, "start", "", "start of the temporal extent (required)")
	cmd.Flags().StringVar(&q.end, "end", "", "end of the temporal extent (required)")
	cmd.Flags().StringVar(&q.tz, "tz", "", "timezone of the temporal extent, UTC when omitted")
	cmd.Flags().StringVar(&q.step, "step", "", "temporal step, for example 24h")

	cmd.Flags().IntVar(&q.workers, "workers", 0, "number of concurrent plan workers")
	cmd.Flags().BoolVar(&q.noTypes, "no-type-tracking", false, "disable value type checking")

	for _, name := range []string{"recipe", "mapping", "cube", "bounds", "crs", "resolution", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (q *queryFlags) toConfig(opts *RootOptions) (*app.Config, error) {
	bounds, err := app.ParseBounds(q.bounds)
	if err != nil {
		return nil, err
	}
	resolution, err := app.ParseResolution(q.resolution)
	if err != nil {
		return nil, err
	}
	start, err := app.ParseInstant(q.start)
	if err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	end, err := app.ParseInstant(q.end)
	if err != nil {
		return nil, fmt.Errorf("--end: %w", err)
	}

	cfg := app.Config{
		RecipePath:  q.recipe,
		MappingPath: q.mapping,
		CubePath:    q.cube,
		OutputPath:  q.output,
		LogFormat:   opts.LogFormat,
		LogLevel:    opts.LogLevel,
		Bounds:      bounds,
		CRS:         q.crs,
		Resolution:  resolution,
		Start:       start,
		End:         end,
		TZ:          q.tz,
		Workers:     q.workers,
		TrackTypes:  !q.noTypes,
	}
	if q.step != "" {
		step, err := app.ParseStep(q.step)
		if err != nil {
			return nil, err
		}
		cfg.Step = step
	}
	return app.NewConfig(cfg)
}
