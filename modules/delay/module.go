// Package delay provides a runner that pauses a branch for a fixed duration.
package delay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the delay runner.
type Args struct {
	Duration string `hcl:"duration"` // time.ParseDuration format, e.g. "250ms"
}

// OnRunDelay is the handler for the 'delay' runner. The upstream value passes
// through unchanged after the delay. Cancelling the context aborts the wait.
func OnRunDelay(ctx context.Context, upstream any, args *Args) (any, error) {
	d, err := time.ParseDuration(args.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", args.Duration, err)
	}
	slog.Debug("Delaying branch.", "duration", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return upstream, nil
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("delay", &registry.Runner{
		NewArgs: func() any { return new(Args) },
		Fn:      OnRunDelay,
	})
}
