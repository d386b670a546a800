package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/checkpoint"
)

// CaseState approximates the size and shape of a radiology run state.
type CaseState struct {
	CaseID       string
	Findings     []string
	Progress     []string
	Intermediate map[string]any
	FinalReport  string
}

// BenchmarkMemoryStore_Save measures in-memory checkpoint save.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	data, _ := json.Marshal(createCaseState())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save("run-1", "node-1", data)
	}
}

// BenchmarkMemoryStore_Load measures in-memory checkpoint load.
func BenchmarkMemoryStore_Load(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	data, _ := json.Marshal(createCaseState())
	_ = store.Save("run-1", "node-1", data)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load("run-1", "node-1")
	}
}

// BenchmarkSQLiteStore_Save measures SQLite checkpoint save.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()

	data, _ := json.Marshal(createCaseState())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save("run-1", nodeID(i%100), data)
	}
}

// BenchmarkSQLiteStore_Load measures SQLite checkpoint load.
func BenchmarkSQLiteStore_Load(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()

	data, _ := json.Marshal(createCaseState())
	_ = store.Save("run-1", "node-1", data)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load("run-1", "node-1")
	}
}

// BenchmarkRun_WithCheckpointing measures execution with checkpointing enabled.
func BenchmarkRun_WithCheckpointing(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	wf := mustCompileCase(buildLinearCasePipeline(5))
	ctx := workflow.NewContext(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = wf.Run(ctx, CaseState{},
			workflow.WithCheckpointing(store),
			workflow.WithRunID(fmt.Sprintf("run-%d", i)),
		)
	}
}

// BenchmarkRun_WithoutCheckpointing baseline without checkpointing.
func BenchmarkRun_WithoutCheckpointing(b *testing.B) {
	wf := mustCompileCase(buildLinearCasePipeline(5))
	ctx := workflow.NewContext(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = wf.Run(ctx, CaseState{})
	}
}

// BenchmarkJSONMarshal measures state serialization overhead.
func BenchmarkJSONMarshal(b *testing.B) {
	state := createCaseState()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(state)
	}
}

// BenchmarkJSONUnmarshal measures state deserialization overhead.
func BenchmarkJSONUnmarshal(b *testing.B) {
	data, _ := json.Marshal(createCaseState())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var s CaseState
		_ = json.Unmarshal(data, &s)
	}
}

// Helper functions

func createCaseState() CaseState {
	return CaseState{
		CaseID:   "case-bench",
		Findings: []string{"pulmonary nodule", "pleural effusion", "cardiomegaly"},
		Progress: []string{
			"Image triaged and classified.",
			"Anomaly detection complete.",
			"Anomaly characterization complete.",
		},
		Intermediate: map[string]any{
			"triage":           map[string]any{"modality": "CT", "body_part": "Chest"},
			"anomalyDetection": []string{"pulmonary nodule"},
		},
		FinalReport: "Findings: ...\nImpression: ...",
	}
}

func mustCompileCase(builder *workflow.Builder[CaseState]) *workflow.Workflow[CaseState] {
	wf, err := builder.Compile()
	if err != nil {
		panic(err)
	}
	return wf
}

func buildLinearCasePipeline(n int) *workflow.Builder[CaseState] {
	pass := func(ctx workflow.Context, s CaseState) (CaseState, error) {
		return s, nil
	}
	builder := workflow.New[CaseState]()
	for i := 0; i < n; i++ {
		builder.AddNode(nodeID(i), pass)
	}
	for i := 0; i < n-1; i++ {
		builder.AddEdge(nodeID(i), nodeID(i+1))
	}
	builder.AddEdge(nodeID(n-1), workflow.END)
	builder.SetEntry(nodeID(0))
	return builder
}

func createSQLiteStore(b *testing.B) (*checkpoint.SQLiteStore, func()) {
	b.Helper()
	tmpFile, err := os.CreateTemp("", "bench-*.db")
	if err != nil {
		b.Fatal(err)
	}
	tmpFile.Close()

	store, err := checkpoint.NewSQLiteStore(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		b.Fatal(err)
	}

	return store, func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}
}
