package dag

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/taskgrid/internal/ctxlog"
)

// Execute fires the vertex with a caller-supplied input. It is the entry
// point for source vertices (zero parents); vertices with parents are
// normally fired by their fan-in coordinator instead.
//
// The returned value is this vertex's own work output. The returned error is
// either this vertex's failure (validation or work) or a failure propagated
// from a descendant unblocked during fan-out; catching it at the top-level
// call is the only recovery mechanism.
func (v *Vertex) Execute(ctx context.Context, input any) (any, error) {
	v.mu.Lock()
	switch v.state {
	case StateFiring, StateDone, StateFailed:
		state := v.state
		v.mu.Unlock()
		return nil, fmt.Errorf("vertex %s (%s): %w", v.Name(), state, ErrAlreadyFired)
	}
	v.state = StateFiring
	v.mu.Unlock()

	return v.run(ctx, input)
}

// run performs one firing: validate, invoke work, then fan out. The caller
// has already transitioned the vertex to Firing.
func (v *Vertex) run(ctx context.Context, input any) (any, error) {
	logger := ctxlog.FromContext(ctx).With("vertex", v.Name())

	if v.validate != nil {
		parsed, err := v.validate(input)
		if err != nil {
			wrapped := fmt.Errorf("vertex %s: %w: %v", v.Name(), ErrValidation, err)
			v.fail(wrapped)
			logger.Error("Input validation failed.", "error", err)
			return nil, wrapped
		}
		input = parsed
	}

	logger.Debug("Vertex work starting.")
	out, err := v.work(ctx, input)
	if err != nil {
		wrapped := fmt.Errorf("vertex %s: %w", v.Name(), err)
		v.fail(wrapped)
		logger.Error("Vertex work failed.", "error", err)
		return nil, wrapped
	}

	v.mu.Lock()
	v.result = out
	v.state = StateDone
	children := make([]*Vertex, 0, len(v.children))
	for _, c := range v.children {
		children = append(children, c)
	}
	v.mu.Unlock()
	logger.Debug("Vertex work succeeded.", "children", len(children))

	// Fan-out is unordered across children; every child is notified even if
	// an earlier sibling's subtree failed, so independent branches still run.
	var errs []error
	for _, child := range children {
		if err := child.UpdateParentStatus(ctx, v.id, out); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// fail records a terminal failure for the current wave. Children are never
// notified: descendants of a failed vertex stay unfired for the wave.
func (v *Vertex) fail(err error) {
	v.mu.Lock()
	v.state = StateFailed
	v.err = err
	v.mu.Unlock()
}
