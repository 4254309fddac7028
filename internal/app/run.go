package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/taskgrid/internal/builder"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// Run executes the loaded grid: it builds the dependency graph and fires a
// wave from every root. Roots run sequentially; everything downstream of a
// root is driven by fan-out. A failed branch does not stop the remaining
// roots; all failures are joined into the returned error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	graph, err := builder.Build(ctx, a.config, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "vertex_count", len(graph.Vertices))

	if len(graph.Vertices) == 0 {
		a.logger.Warn("No steps found in grid, execution not required.")
		return nil
	}
	if len(graph.Roots) == 0 {
		return errors.New("grid has steps but no roots: every step depends on another")
	}

	a.logger.Info("🚀 Starting execution.", "roots", len(graph.Roots))
	var errs []error
	for _, root := range graph.Roots {
		if _, err := root.Execute(ctx, nil); err != nil {
			a.logger.Error("Root execution failed.", "root", root.Name(), "error", err)
			errs = append(errs, fmt.Errorf("root '%s': %w", root.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")

	return nil
}
