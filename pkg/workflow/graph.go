package workflow

import (
	"fmt"
	"strings"
	"sync"
)

// Builder assembles a pipeline's node graph.
// Create one with New, chain AddNode, AddEdge, AddConditionalEdge and
// SetEntry calls, then Compile it into an immutable Workflow.
//
// Builder is NOT safe for concurrent use. Construct the graph from a
// single goroutine; the compiled Workflow is safe to share.
//
// Example:
//
//	wf, err := workflow.New[NoteState]().
//	    AddNode("transcribe", transcribe).
//	    AddNode("structure", structure).
//	    AddEdge("transcribe", "structure").
//	    AddEdge("structure", workflow.END).
//	    SetEntry("transcribe").
//	    Compile()
type Builder[S any] struct {
	mu               sync.RWMutex
	nodes            map[string]NodeFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
}

// New creates a graph builder for state type S.
func New[S any]() *Builder[S] {
	return &Builder[S]{
		nodes:            make(map[string]NodeFunc[S]),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string]RouterFunc[S]),
	}
}

// AddNode registers a named node. Returns the builder for chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace
//   - fn is nil
//   - id is already registered
//
// Construction mistakes are programmer errors, so they panic rather than
// return an error that every pipeline definition would have to thread.
func (b *Builder[S]) AddNode(id string, fn NodeFunc[S]) *Builder[S] {
	if id == "" {
		panic("workflow: node ID cannot be empty")
	}

	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == "__end__" {
		panic("workflow: node ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("workflow: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("workflow: node function cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.nodes[id]; exists {
		panic(fmt.Sprintf("workflow: duplicate node ID: %s", id))
	}

	b.nodes[id] = fn
	return b
}

// AddEdge adds an unconditional edge. The target may be a node ID or END.
// Edge references are validated at Compile time so edges can be added in
// any order.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.edges[from] = append(b.edges[from], to)
	return b
}

// AddConditionalEdge attaches a router to a node: the router picks the
// next node at runtime from the state.
//
// A node can have either simple edges or a conditional edge, not both.
// If both are present, the conditional edge wins.
func (b *Builder[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Builder[S] {
	if router == nil {
		panic("workflow: router function cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.conditionalEdges[from] = router
	return b
}

// SetEntry designates the entry node. Must be called before Compile;
// the reference is validated there.
func (b *Builder[S]) SetEntry(id string) *Builder[S] {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entryPoint = id
	return b
}
