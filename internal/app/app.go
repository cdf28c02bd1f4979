// Package app wires documents, backends and the processor into one
// runnable unit. It owns its logger and performs no global setup, so it
// can be embedded or exercised directly from tests.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/semcube/internal/datacube"
	"github.com/vk/semcube/internal/extent"
	"github.com/vk/semcube/internal/hcldoc"
	"github.com/vk/semcube/internal/mapping"
	"github.com/vk/semcube/internal/recipe"
)

// App encapsulates the query pipeline behind a Config.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp builds an App writing results to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		logW:   logW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, logW),
		config: cfg,
	}
}

// loadInputs reads the recipe and mapping documents and opens the
// datacube source. The returned closer releases the datacube, if it
// holds resources.
func (a *App) loadInputs() (*recipe.QueryRecipe, mapping.Mapping, datacube.Datacube, func() error, error) {
	rec, err := hcldoc.LoadRecipe(a.config.RecipePath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	a.logger.Debug("Recipe document loaded.", "path", a.config.RecipePath, "results", rec.Len())

	m, err := hcldoc.LoadMapping(a.config.MappingPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load mapping: %w", err)
	}
	a.logger.Debug("Mapping document loaded.", "path", a.config.MappingPath)

	cube, closer, err := a.openCube()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return rec, m, cube, closer, nil
}

func (a *App) openCube() (datacube.Datacube, func() error, error) {
	path := a.config.CubePath
	if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		cube, err := datacube.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("Datacube opened.", "path", path, "backend", "sqlite")
		return cube, cube.Close, nil
	}
	cube, err := datacube.LoadLayout(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cube layout: %w", err)
	}
	a.logger.Debug("Datacube opened.", "path", path, "backend", "memory")
	return cube, func() error { return nil }, nil
}

func (a *App) extents() (extent.Spatial, extent.Temporal) {
	space := extent.Spatial{
		XMin:       a.config.Bounds[0],
		YMin:       a.config.Bounds[1],
		XMax:       a.config.Bounds[2],
		YMax:       a.config.Bounds[3],
		CRS:        a.config.CRS,
		Resolution: a.config.Resolution,
	}
	t := extent.Temporal{
		Start:      a.config.Start,
		End:        a.config.End,
		TZ:         a.config.TZ,
		Resolution: a.config.Step,
	}
	return space, t
}

func (a *App) options() map[string]any {
	opts := map[string]any{"track_types": a.config.TrackTypes}
	if a.config.Workers > 0 {
		opts["workers"] = a.config.Workers
	}
	return opts
}
