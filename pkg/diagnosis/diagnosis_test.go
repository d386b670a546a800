package diagnosis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ItsMeCK/IntelligentHealth/pkg/llm"
	"github.com/ItsMeCK/IntelligentHealth/pkg/store"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

func testCtx() workflow.Context {
	return workflow.NewContext(context.Background())
}

func seedCase(t *testing.T) store.Store {
	t.Helper()
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.PutCase(ctx, &store.Case{
		ID:       "case-1",
		Notes:    "persistent headache for two weeks",
		SOAPNote: "Subjective: headache\nPlan: ibuprofen",
	}))
	require.NoError(t, st.PutDocument(ctx, &store.Document{
		CaseID:   "case-1",
		Filename: "bloodwork.pdf",
		Summary:  "Elevated white cell count.",
	}))
	require.NoError(t, st.PutDocument(ctx, &store.Document{
		CaseID:   "case-1",
		Filename: "mri.jpg",
		Summary:  "No acute intracranial abnormality.",
	}))
	return st
}

func TestPipeline_EndToEnd(t *testing.T) {
	client := llm.NewMockClient().
		QueueCompletion("1. Primary Diagnosis: tension headache\n2. Differential: migraine, sinusitis")

	st := seedCase(t)
	p, err := NewPipeline(client, st)
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)
	require.Empty(t, result.Err)

	assert.Contains(t, result.Report, "Primary Diagnosis")

	c, err := st.GetCase(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, result.Report, c.DDxResult)
}

func TestPipeline_GatherAssemblesContext(t *testing.T) {
	client := llm.NewMockClient().QueueCompletion("report")

	p, err := NewPipeline(client, seedCase(t))
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)
	require.Empty(t, result.Err)

	assert.Contains(t, result.Context, "Patient Notes: persistent headache for two weeks")
	assert.Contains(t, result.Context, "SOAP Note from Consultation Audio:")
	assert.Contains(t, result.Context, "Report: bloodwork.pdf")
	assert.Contains(t, result.Context, "Elevated white cell count.")
	assert.Contains(t, result.Context, "Report: mri.jpg")

	// The assembled context reaches the model verbatim.
	require.Len(t, client.Prompts, 1)
	assert.Contains(t, client.Prompts[0], "Report: bloodwork.pdf")
}

func TestPipeline_ReportTruncatedToTenLines(t *testing.T) {
	long := strings.Repeat("line\n", 14) + "line"
	client := llm.NewMockClient().QueueCompletion(long)

	p, err := NewPipeline(client, seedCase(t))
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)
	require.Empty(t, result.Err)

	assert.Len(t, strings.Split(result.Report, "\n"), 10)
}

func TestPipeline_MissingCase_StopsEarly(t *testing.T) {
	client := llm.NewMockClient().QueueCompletion("never used")

	p, err := NewPipeline(client, store.NewMemoryStore())
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "ghost"})
	require.NoError(t, err)

	assert.Equal(t, "Consultation not found.", result.Err)
	assert.Zero(t, client.Calls["Complete"])
}

func TestPipeline_GenerationFailure(t *testing.T) {
	client := llm.NewMockClient().
		QueueCompletionErr(errors.New("quota exceeded"))

	st := seedCase(t)
	p, err := NewPipeline(client, st)
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)

	assert.Equal(t, "Failed to generate DDx report.", result.Err)

	// Nothing was persisted.
	c, err := st.GetCase(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Empty(t, c.DDxResult)
}
