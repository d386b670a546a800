package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_ScriptedInOrder(t *testing.T) {
	m := NewMockClient().
		QueueCompletion("first").
		QueueCompletion("second")

	ctx := context.Background()
	req := CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "q"}}}

	r1, err := m.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Content)

	r2, err := m.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "second", r2.Content)

	// Exhausted queue repeats the last entry.
	r3, err := m.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "second", r3.Content)
}

func TestMockClient_ScriptedError(t *testing.T) {
	boom := errors.New("quota exceeded")
	m := NewMockClient().
		QueueStructured(`{"ok":true}`).
		QueueStructuredErr(boom)

	ctx := context.Background()

	_, err := m.CompleteStructured(ctx, StructuredRequest{Prompt: "one"})
	require.NoError(t, err)

	_, err = m.CompleteStructured(ctx, StructuredRequest{Prompt: "two"})
	assert.ErrorIs(t, err, boom)
}

func TestMockClient_Unscripted(t *testing.T) {
	m := NewMockClient()

	_, err := m.Transcribe(context.Background(), TranscriptionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response scripted for Transcribe")
}

func TestMockClient_RecordsPromptsAndCalls(t *testing.T) {
	m := NewMockClient().
		QueueVision("a nodule").
		QueueStructured(`{}`)

	ctx := context.Background()
	_, err := m.CompleteVision(ctx, VisionRequest{Prompt: "classify this"})
	require.NoError(t, err)
	_, err = m.CompleteStructured(ctx, StructuredRequest{Prompt: "characterize that"})
	require.NoError(t, err)

	assert.Equal(t, []string{"classify this", "characterize that"}, m.Prompts)
	assert.Equal(t, 1, m.Calls["CompleteVision"])
	assert.Equal(t, 1, m.Calls["CompleteStructured"])
}
