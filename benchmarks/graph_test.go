package benchmarks

import (
	"fmt"
	"testing"

	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

// State for benchmarks.
type State struct {
	Value int
}

// noopNode does minimal work to measure framework overhead.
func noopNode(ctx workflow.Context, s State) (State, error) {
	return s, nil
}

// BenchmarkNewBuilder measures builder creation overhead.
func BenchmarkNewBuilder(b *testing.B) {
	for i := 0; i < b.N; i++ {
		workflow.New[State]()
	}
}

// BenchmarkAddNode measures node addition overhead.
func BenchmarkAddNode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		workflow.New[State]().AddNode("node", noopNode)
	}
}

// BenchmarkAddNode_10 measures adding 10 nodes.
func BenchmarkAddNode_10(b *testing.B) {
	for i := 0; i < b.N; i++ {
		builder := workflow.New[State]()
		for j := 0; j < 10; j++ {
			builder.AddNode(nodeID(j), noopNode)
		}
	}
}

// BenchmarkAddNode_100 measures adding 100 nodes.
func BenchmarkAddNode_100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		builder := workflow.New[State]()
		for j := 0; j < 100; j++ {
			builder.AddNode(nodeID(j), noopNode)
		}
	}
}

// BenchmarkCompile_Linear_5 compiles a 5-node linear pipeline.
func BenchmarkCompile_Linear_5(b *testing.B) {
	builder := buildLinearPipeline(5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = builder.Compile()
	}
}

// BenchmarkCompile_Linear_50 compiles a 50-node linear pipeline.
func BenchmarkCompile_Linear_50(b *testing.B) {
	builder := buildLinearPipeline(50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = builder.Compile()
	}
}

// BenchmarkCompile_Linear_100 compiles a 100-node linear pipeline.
func BenchmarkCompile_Linear_100(b *testing.B) {
	builder := buildLinearPipeline(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = builder.Compile()
	}
}

// BenchmarkCompile_Branching compiles a pipeline with a conditional edge.
func BenchmarkCompile_Branching(b *testing.B) {
	builder := buildBranchingPipeline()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = builder.Compile()
	}
}

// Helper functions

func nodeID(n int) string {
	return fmt.Sprintf("node_%d", n)
}

func buildLinearPipeline(n int) *workflow.Builder[State] {
	builder := workflow.New[State]()
	for i := 0; i < n; i++ {
		builder.AddNode(nodeID(i), noopNode)
	}
	for i := 0; i < n-1; i++ {
		builder.AddEdge(nodeID(i), nodeID(i+1))
	}
	builder.AddEdge(nodeID(n-1), workflow.END)
	builder.SetEntry(nodeID(0))
	return builder
}

func buildBranchingPipeline() *workflow.Builder[State] {
	router := func(ctx workflow.Context, s State) string {
		if s.Value%2 == 0 {
			return "even"
		}
		return "odd"
	}

	return workflow.New[State]().
		AddNode("start", noopNode).
		AddNode("even", noopNode).
		AddNode("odd", noopNode).
		AddNode("merge", noopNode).
		AddConditionalEdge("start", router).
		AddEdge("even", "merge").
		AddEdge("odd", "merge").
		AddEdge("merge", workflow.END).
		SetEntry("start")
}
