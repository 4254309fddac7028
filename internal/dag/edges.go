package dag

// AddChild inserts the directed edge v -> child. The guards run in a fixed
// order and each failure leaves both vertices' edge state untouched:
//
//  1. v == child: ErrSelfReference.
//  2. The edge already exists: ErrDuplicateEdge.
//  3. child can already reach v through existing edges: ErrCycle.
//
// On success the edge is owned by v (the child only records v's identity for
// readiness counting). Edges are expected to be inserted before any execution
// begins; growing a fired child's parent set mid-wave produces undefined
// readiness accounting.
func (v *Vertex) AddChild(child *Vertex) error {
	if child == v {
		return edgeError(ErrSelfReference, v.id, child.id)
	}

	v.mu.Lock()
	_, dup := v.children[child.id]
	v.mu.Unlock()
	if dup {
		return edgeError(ErrDuplicateEdge, v.id, child.id)
	}

	if child.hasPathTo(v) {
		return edgeError(ErrCycle, v.id, child.id)
	}

	v.mu.Lock()
	v.children[child.id] = child
	v.mu.Unlock()

	child.mu.Lock()
	child.parents[v.id] = struct{}{}
	child.mu.Unlock()

	return nil
}

// Children returns a point-in-time snapshot of the vertex's children. Edge
// mutations after the call are not visible through the returned slice.
func (v *Vertex) Children() []*Vertex {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*Vertex, 0, len(v.children))
	for _, c := range v.children {
		out = append(out, c)
	}
	return out
}

// Parents returns a snapshot of the identities registered as parents.
func (v *Vertex) Parents() []ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]ID, 0, len(v.parents))
	for id := range v.parents {
		out = append(out, id)
	}
	return out
}

// hasPathTo reports whether target is reachable from v via zero or more
// child edges. A zero-length path counts, so v.hasPathTo(v) is true.
//
// Iterative depth-first search with an explicit stack; the visited set
// bounds revisits on diamond-shaped subgraphs. O(V+E) worst case, which is
// acceptable because construction happens once, before heavy execution.
func (v *Vertex) hasPathTo(target *Vertex) bool {
	if v == target {
		return true
	}

	visited := map[ID]struct{}{v.id: {}}
	stack := []*Vertex{v}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n.mu.Lock()
		next := make([]*Vertex, 0, len(n.children))
		for _, c := range n.children {
			next = append(next, c)
		}
		n.mu.Unlock()

		for _, c := range next {
			if c.id == target.id {
				return true
			}
			if _, seen := visited[c.id]; seen {
				continue
			}
			visited[c.id] = struct{}{}
			stack = append(stack, c)
		}
	}
	return false
}
