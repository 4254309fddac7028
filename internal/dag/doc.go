// Package dag implements the dependency-execution core: vertices wrapping
// units of work, directed edges with cycle prevention, per-vertex fan-in
// coordination, and fan-out propagation of results.
//
// A vertex fires at most once per wave, exactly when every registered parent
// has reported a result. Results from multiple parents are merged in arrival
// order before dispatch. A failed vertex never notifies its children; the
// failure propagates up the execute call chain to the top-level caller.
//
// Graph construction (AddChild) is expected to complete before execution
// begins. Fan-in bookkeeping on each vertex is guarded by that vertex's own
// mutex, so parents completing concurrently cannot double-fire a shared child.
package dag
