package scribe

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

const structuredSummary = `{
	"patient_symptoms": ["headache"],
	"doctor_observations": ["normal vitals"],
	"prescribed_medications": ["ibuprofen"],
	"follow_up_instructions": ["return in two weeks"]
}`

func newTestCase(t *testing.T) store.Store {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.PutCase(context.Background(), &store.Case{ID: "case-1"}))
	return st
}

func testCtx() workflow.Context {
	return workflow.NewContext(context.Background())
}

func TestPipeline_EndToEnd(t *testing.T) {
	client := llm.NewMockClient().
		QueueTranscription("Patient reports a headache. Vitals normal. Ibuprofen prescribed.").
		QueueStructured(structuredSummary).
		QueueCompletion("Subjective: headache\nObjective: normal vitals\nAssessment: tension headache\nPlan: ibuprofen, return in two weeks")

	st := newTestCase(t)
	p, err := NewPipeline(client, st)
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1", AudioRef: "visit.mp3", Audio: []byte("audio")})
	require.NoError(t, err)
	require.Empty(t, result.Err)

	assert.Equal(t, []string{"headache"}, result.Summary.PatientSymptoms)
	assert.Contains(t, result.FinalNote, "Subjective")
	assert.Contains(t, result.FinalNote, "Plan")

	// The note landed on the case.
	c, err := st.GetCase(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, result.FinalNote, c.SOAPNote)

	assert.Equal(t, []string{
		"Audio transcribed.",
		"Transcript structured.",
		"SOAP note generated.",
		"Note saved.",
	}, result.Progress)
}

func TestPipeline_NoteTruncatedToTenLines(t *testing.T) {
	long := strings.Repeat("line\n", 14) + "line"
	client := llm.NewMockClient().
		QueueTranscription("transcript").
		QueueStructured(structuredSummary).
		QueueCompletion(long)

	p, err := NewPipeline(client, newTestCase(t))
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)
	require.Empty(t, result.Err)

	assert.Len(t, strings.Split(result.FinalNote, "\n"), 10)
}

func TestPipeline_TranscriptionFailure_StopsEarly(t *testing.T) {
	client := llm.NewMockClient().
		QueueTranscriptionErr(errors.New("service unavailable"))

	p, err := NewPipeline(client, newTestCase(t))
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)

	assert.Equal(t, "Failed to transcribe audio.", result.Err)
	assert.Empty(t, result.FinalNote)
	// No downstream model calls happened.
	assert.Zero(t, client.Calls["CompleteStructured"])
	assert.Zero(t, client.Calls["Complete"])
}

func TestPipeline_StructuringFailure_StopsEarly(t *testing.T) {
	client := llm.NewMockClient().
		QueueTranscription("transcript").
		QueueStructured("not json at all")

	p, err := NewPipeline(client, newTestCase(t))
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)

	assert.Equal(t, "Failed to structure transcript.", result.Err)
	assert.Zero(t, client.Calls["Complete"])
}

func TestPipeline_MissingCase_PersistFails(t *testing.T) {
	client := llm.NewMockClient().
		QueueTranscription("transcript").
		QueueStructured(structuredSummary).
		QueueCompletion("note")

	p, err := NewPipeline(client, store.NewMemoryStore())
	require.NoError(t, err)

	result, err := p.Run(testCtx(), State{CaseID: "ghost"})
	require.NoError(t, err)

	assert.Equal(t, "Consultation not found.", result.Err)
}

func TestPipeline_ComposePromptCarriesSummary(t *testing.T) {
	client := llm.NewMockClient().
		QueueTranscription("transcript").
		QueueStructured(structuredSummary).
		QueueCompletion("note")

	p, err := NewPipeline(client, newTestCase(t))
	require.NoError(t, err)

	_, err = p.Run(testCtx(), State{CaseID: "case-1"})
	require.NoError(t, err)

	var composePrompt string
	for _, prompt := range client.Prompts {
		if strings.Contains(prompt, "SOAP note") {
			composePrompt = prompt
		}
	}
	require.NotEmpty(t, composePrompt)
	assert.Contains(t, composePrompt, "headache")
	assert.Contains(t, composePrompt, "ibuprofen")
	assert.Contains(t, composePrompt, "EXACTLY 10 lines or fewer")
}
