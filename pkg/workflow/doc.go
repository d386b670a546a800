/*
Package workflow provides graph-based orchestration for the clinical AI
pipelines.

# Overview

A pipeline is a directed graph of nodes where each node does one unit of
work (a model call, a persistence write) and edges define the flow. The
engine carries no pipeline-specific knowledge: the clinical note,
differential-diagnosis and radiology pipelines are all built on the same
executor.

  - Type-safe generics for per-pipeline state
  - Compile-time validation of graph structure
  - Strictly sequential execution, conditional branching via routers
  - Crash recovery via checkpointing
  - slog logging plus OpenTelemetry metrics and tracing

# Basic Usage

Build a graph, compile it once, run it per case:

	type State struct {
	    Input  string
	    Output string
	}

	func process(ctx workflow.Context, s State) (State, error) {
	    s.Output = "Processed: " + s.Input
	    return s, nil
	}

	wf, err := workflow.New[State]().
	    AddNode("process", process).
	    AddEdge("process", workflow.END).
	    SetEntry("process").
	    Compile()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := workflow.NewContext(context.Background())
	result, err := wf.Run(ctx, State{Input: "hello"})

# Conditional Branching

Decision points are explicit routers, never implicit skipping:

	builder.AddConditionalEdge("detect", func(ctx workflow.Context, s ScanState) string {
	    if len(s.Findings) == 0 {
	        return "synthesize" // nothing to characterize
	    }
	    return "characterize"
	})

The router returns the ID of the next node. Returning an unknown node ID
is a runtime error.

# Checkpointing

Persist state after every node and resume after a crash:

	store, err := checkpoint.NewSQLiteStore("./checkpoints.db")
	defer store.Close()

	result, err := wf.Run(ctx, state,
	    workflow.WithCheckpointing(store),
	    workflow.WithRunID("run-123"),
	    workflow.WithPipelineName("radiology"))

	// After a crash
	result, err = wf.Resume(ctx, store, "run-123")

# Error Handling

Errors carry the node they came from:

	result, err := wf.Run(ctx, state)
	var nodeErr *workflow.NodeError
	if errors.As(err, &nodeErr) {
	    log.Printf("node %s failed: %v", nodeErr.NodeID, nodeErr.Err)
	}

Panics inside nodes are recovered and surfaced as *PanicError with the
stack trace. Degraded stages do not error at this level at all: a node
that survives a failed model call records the degradation in its state
and returns nil, so the run continues.

# Thread Safety

  - Builder[S] is NOT safe for concurrent use during construction
  - Workflow[S] IS safe for concurrent use (immutable)
  - Runs for different cases share nothing but the injected collaborators

# Subpackages

  - checkpoint: run snapshot storage (memory, SQLite)
  - observability: logging, metrics and tracing helpers
*/
package workflow
