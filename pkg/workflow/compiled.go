package workflow

// Workflow is an immutable, executable pipeline graph, produced by
// Builder.Compile.
//
// A Workflow is safe for concurrent use: build a pipeline's topology once
// and share it across runs. All per-run mutation lives in the state value
// threaded through Run.
type Workflow[S any] struct {
	nodes            map[string]NodeFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string

	// Pre-computed for lookup and introspection
	successors    map[string][]string
	predecessors  map[string][]string
	isConditional map[string]bool
}

// EntryPoint returns the entry node ID.
func (w *Workflow[S]) EntryPoint() string {
	return w.entryPoint
}

// NodeIDs returns all node identifiers, in no particular order.
func (w *Workflow[S]) NodeIDs() []string {
	ids := make([]string, 0, len(w.nodes))
	for id := range w.nodes {
		ids = append(ids, id)
	}
	return ids
}

// HasNode reports whether a node exists in the graph.
func (w *Workflow[S]) HasNode(id string) bool {
	_, exists := w.nodes[id]
	return exists
}

// Successors returns the nodes reachable from id via simple edges.
// Conditional edge targets are runtime-determined and not included.
// Returns nil for END or unknown nodes.
func (w *Workflow[S]) Successors(id string) []string {
	if id == END {
		return nil
	}
	return w.successors[id]
}

// Predecessors returns the nodes that have simple edges into id.
func (w *Workflow[S]) Predecessors(id string) []string {
	return w.predecessors[id]
}

// IsConditional reports whether the node has a conditional edge.
func (w *Workflow[S]) IsConditional(id string) bool {
	return w.isConditional[id]
}

// getNode returns the node function for the given ID.
func (w *Workflow[S]) getNode(id string) (NodeFunc[S], bool) {
	fn, exists := w.nodes[id]
	return fn, exists
}

// getRouter returns the router function for the given node.
func (w *Workflow[S]) getRouter(id string) (RouterFunc[S], bool) {
	router, exists := w.conditionalEdges[id]
	return router, exists
}

// getEdges returns the simple edge targets for the given node.
func (w *Workflow[S]) getEdges(id string) []string {
	return w.edges[id]
}
