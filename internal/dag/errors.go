package dag

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfReference is returned when an edge would make a vertex its own child.
	ErrSelfReference = errors.New("self-referential edge not allowed")
	// ErrDuplicateEdge is returned when the same ordered edge is inserted twice.
	ErrDuplicateEdge = errors.New("duplicate edge")
	// ErrCycle is returned when an edge would close a directed cycle.
	ErrCycle = errors.New("edge would create a cycle")
	// ErrValidation wraps a validator failure; the vertex's work never ran.
	ErrValidation = errors.New("input validation failed")
	// ErrAlreadyFired is returned when a vertex is executed again within the
	// same wave. Reset starts a new wave.
	ErrAlreadyFired = errors.New("vertex already fired this wave")
	// ErrUnknownParent is returned when a result is reported under an identity
	// that was never registered as a parent of the vertex.
	ErrUnknownParent = errors.New("report from unregistered parent")
)

// EdgeError wraps a structural edge-insertion failure with the identities of
// the ordered pair involved. The graph is left unmodified.
type EdgeError struct {
	Kind   error
	Parent ID
	Child  ID
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Kind.Error(), e.Parent, e.Child)
}

func (e *EdgeError) Unwrap() error { return e.Kind }

func edgeError(kind error, parent, child ID) error {
	return &EdgeError{Kind: kind, Parent: parent, Child: child}
}
