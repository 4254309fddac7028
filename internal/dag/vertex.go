package dag

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ID is the opaque, unique identity of a vertex. IDs are minted once at
// vertex creation, never reused, and compared by value equality only,
// never by the structural contents of the vertex.
type ID string

// newID mints a fresh vertex identity. The generator is process-wide and
// initialized once (uuid's internal state).
func newID() ID {
	return ID(uuid.NewString())
}

// Work is the user-supplied unit of work wrapped by a vertex. For a source
// vertex the input is whatever the top-level caller passed to Execute; for a
// vertex with parents it is the merged fan-in value.
type Work func(ctx context.Context, input any) (any, error)

// Validator maps a raw input to a parsed value, or fails. It is consulted
// once per firing, before Work runs; a validation failure prevents Work from
// running and counts as an execution failure for the vertex.
type Validator func(input any) (any, error)

// ParentResult pairs a parent identity with the result it produced, in the
// order results arrived at the child.
type ParentResult struct {
	Parent ID
	Value  any
}

// Merger computes the dispatch input for a vertex with multiple parents from
// the arrival-ordered parent results. Setting one replaces the default
// record-union merge.
type Merger func(results []ParentResult) any

// State is the fan-in coordinator state of a vertex within one wave.
type State int

const (
	// StateIdle means no parent has reported yet.
	StateIdle State = iota
	// StateAwaiting means some, but not all, parents have reported.
	StateAwaiting
	// StateFiring means the work invocation is in flight.
	StateFiring
	// StateDone is terminal: the result is available and children were notified.
	StateDone
	// StateFailed is terminal: work (or validation) failed; children were
	// never notified.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting"
	case StateFiring:
		return "firing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Vertex is a single node in the execution graph: one unit of work plus its
// dependency edges and per-wave fan-in state.
//
// The edge maps hold direct child references; Go's garbage collector makes
// the parent/child reference cycle harmless, and parents are kept as bare
// identities used only for readiness counting.
type Vertex struct {
	id       ID
	name     string
	work     Work
	validate Validator
	merge    Merger

	// mu guards everything below. The firing decision and the per-parent
	// result recording must be one atomic step per vertex.
	mu            sync.Mutex
	state         State
	children      map[ID]*Vertex
	parents       map[ID]struct{}
	parentResults map[ID]any
	arrival       []ID
	result        any
	err           error
}

// Option configures a vertex at construction time.
type Option func(*Vertex)

// WithName attaches a human-readable label used in logs and error messages.
// It has no effect on identity or equality.
func WithName(name string) Option {
	return func(v *Vertex) { v.name = name }
}

// WithValidator sets the input validator consulted before each firing.
func WithValidator(fn Validator) Option {
	return func(v *Vertex) { v.validate = fn }
}

// WithMerger replaces the default fan-in merge for a vertex with more than
// one parent.
func WithMerger(fn Merger) Option {
	return func(v *Vertex) { v.merge = fn }
}

// NewVertex creates a vertex wrapping the given work function, with a fresh
// identity and no edges.
func NewVertex(work Work, opts ...Option) *Vertex {
	v := &Vertex{
		id:            newID(),
		work:          work,
		children:      make(map[ID]*Vertex),
		parents:       make(map[ID]struct{}),
		parentResults: make(map[ID]any),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ID returns the vertex's immutable identity.
func (v *Vertex) ID() ID {
	return v.id
}

// Name returns the optional label, or the identity when unnamed.
func (v *Vertex) Name() string {
	if v.name != "" {
		return v.name
	}
	return string(v.id)
}

// State returns the current coordinator state.
func (v *Vertex) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Result returns the output of the last successful firing, or nil.
func (v *Vertex) Result() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

// Err returns the failure of the last firing, or nil.
func (v *Vertex) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Reset returns the vertex to Idle and clears all per-wave fan-in state,
// allowing a new wave. It does not touch edges and does not recurse; callers
// rerunning a graph reset every vertex they intend to refire.
func (v *Vertex) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateIdle
	v.parentResults = make(map[ID]any)
	v.arrival = nil
	v.result = nil
	v.err = nil
}
