package workflow

// END is the terminal node identifier.
// Use it as an edge target to mark where a pipeline finishes.
const END = "__end__"

// NodeFunc is the signature for all pipeline nodes.
// A node receives the execution context and the current state, and returns
// the updated state and any error.
//
// State is passed by value: a node updates the fields it owns and returns
// the whole value. Fields it does not touch are preserved as-is, which is
// what gives nodes partial-update semantics without a shared mutable map.
//
// A returned error halts the run. Degraded stages (a model call that
// failed, output that would not parse) should instead record the
// degradation in the state and return nil so that later stages still run.
//
// Example:
//
//	func compose(ctx workflow.Context, s NoteState) (NoteState, error) {
//	    s.FinalNote = render(s.Summary)
//	    return s, nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc selects the next node based on state.
// It backs conditional edges: decision points such as "skip deeper
// analysis when no findings exist" are encoded as routers, never as
// implicit skipping inside the engine.
//
// A router must return a valid node ID or END. An empty string or an
// unknown node ID is a runtime error.
type RouterFunc[S any] func(ctx Context, state S) string
