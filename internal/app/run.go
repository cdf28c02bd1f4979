package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/semcube/internal/ctxlog"
	"github.com/vk/semcube/internal/processor"
)

// Run answers the configured query and writes its results as JSON.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	rec, m, cube, closeCube, err := a.loadInputs()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeCube()) }()

	space, t := a.extents()
	qp, err := processor.Parse(ctx, rec, cube, m, space, t, a.options())
	if err != nil {
		return err
	}

	results, err := qp.Optimize().Execute(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Query answered.", "results", len(results))

	out := a.outW
	if a.config.OutputPath != "" {
		f, err := os.Create(a.config.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeResults(out, qp.Results(), results)
}

// Explain parses and optimizes the configured query and writes the plan
// rendering, without touching any layer data.
func (a *App) Explain(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	rec, m, cube, closeCube, err := a.loadInputs()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeCube()) }()

	space, t := a.extents()
	qp, err := processor.Parse(ctx, rec, cube, m, space, t, a.options())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.outW, qp.Optimize().Describe())
	return err
}
