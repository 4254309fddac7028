package dag

import (
	"context"
	"fmt"

	"github.com/vk/taskgrid/internal/ctxlog"
)

// UpdateParentStatus records a parent's result against this vertex. The
// recording, the readiness check, and the firing decision are one atomic
// step per vertex, so two parents completing concurrently cannot both skip
// firing or both fire.
//
// The vertex fires exactly when every registered parent has reported. A
// duplicate report from the same parent overwrites the recorded value and
// never causes a second firing; a report arriving after the vertex reached
// Firing (or a terminal state) is ignored for the current wave.
//
// Any failure raised by the resulting dispatch, of this vertex or of a
// descendant it unblocks, propagates back through the return value, up the
// execute call chain that delivered the report.
func (v *Vertex) UpdateParentStatus(ctx context.Context, parent ID, result any) error {
	logger := ctxlog.FromContext(ctx)

	v.mu.Lock()
	switch v.state {
	case StateFiring, StateDone, StateFailed:
		v.mu.Unlock()
		logger.Debug("Ignoring parent report after firing.", "vertex", v.Name(), "parent", parent, "state", v.state.String())
		return nil
	}

	if _, known := v.parents[parent]; !known {
		v.mu.Unlock()
		return fmt.Errorf("vertex %s: %w: %s", v.Name(), ErrUnknownParent, parent)
	}

	if _, seen := v.parentResults[parent]; !seen {
		v.arrival = append(v.arrival, parent)
	}
	v.parentResults[parent] = result

	if len(v.parentResults) < len(v.parents) {
		v.state = StateAwaiting
		v.mu.Unlock()
		return nil
	}

	// All parents reported. Claim the firing slot before releasing the lock
	// so a racing duplicate report cannot dispatch a second time.
	input := v.dispatchInputLocked()
	v.state = StateFiring
	v.mu.Unlock()

	logger.Debug("All parents reported, dispatching.", "vertex", v.Name(), "parents", len(v.parents))
	_, err := v.run(ctx, input)
	return err
}

// dispatchInputLocked computes the merged work input from the recorded
// parent results. Caller holds v.mu.
func (v *Vertex) dispatchInputLocked() any {
	ordered := make([]ParentResult, 0, len(v.arrival))
	for _, id := range v.arrival {
		ordered = append(ordered, ParentResult{Parent: id, Value: v.parentResults[id]})
	}
	if v.merge != nil {
		return v.merge(ordered)
	}
	return mergeResults(ordered)
}

// mergeResults is the default fan-in merge:
//
//   - one parent: that parent's result, unchanged, with no wrapping.
//   - multiple parents, all plain key/value records: shallow union in
//     arrival order; on key collision the later-arriving parent wins.
//   - multiple parents, anything else: the raw results as a slice, in
//     arrival order.
//
// Arrival order is completion order, which varies run to run when parents
// resolve concurrently. That nondeterminism is part of the contract; callers
// needing a fixed order supply their own Merger.
func mergeResults(ordered []ParentResult) any {
	switch len(ordered) {
	case 0:
		return nil
	case 1:
		return ordered[0].Value
	}

	records := make([]map[string]any, 0, len(ordered))
	for _, r := range ordered {
		rec, ok := r.Value.(map[string]any)
		if !ok {
			values := make([]any, 0, len(ordered))
			for _, rr := range ordered {
				values = append(values, rr.Value)
			}
			return values
		}
		records = append(records, rec)
	}

	union := make(map[string]any)
	for _, rec := range records {
		for k, val := range rec {
			union[k] = val
		}
	}
	return union
}
