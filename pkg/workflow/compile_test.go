package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Valid(t *testing.T) {
	wf, err := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()

	require.NoError(t, err)
	require.NotNil(t, wf)
}

func TestCompile_NoEntryPoint(t *testing.T) {
	_, err := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		Compile()

	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestCompile_EntryNotFound(t *testing.T) {
	_, err := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("missing").
		Compile()

	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCompile_EdgeTargetNotFound(t *testing.T) {
	_, err := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", "ghost").
		SetEntry("a").
		Compile()

	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompile_EdgeSourceNotFound(t *testing.T) {
	_, err := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		AddEdge("ghost", END).
		SetEntry("a").
		Compile()

	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompile_NoPathToEnd(t *testing.T) {
	_, err := New[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", "a").
		SetEntry("a").
		Compile()

	assert.ErrorIs(t, err, ErrNoPathToEnd)
}

// A router may return END at runtime, so a conditional edge alone
// satisfies the path-to-END check.
func TestCompile_ConditionalEdgeReachesEnd(t *testing.T) {
	_, err := New[State]().
		AddNode("a", makeTrackingNode("a", new([]string))).
		AddConditionalEdge("a", func(_ Context, s State) string { return END }).
		SetEntry("a").
		Compile()

	assert.NoError(t, err)
}

func TestCompile_MultipleErrorsJoined(t *testing.T) {
	_, err := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", "ghost").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompile_ConditionalEdgeSourceNotFound(t *testing.T) {
	_, err := New[State]().
		AddNode("a", makeTrackingNode("a", new([]string))).
		AddEdge("a", END).
		AddConditionalEdge("ghost", func(_ Context, s State) string { return END }).
		SetEntry("a").
		Compile()

	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// Compiling twice must produce independent workflows: mutating the
// builder afterwards cannot affect an already compiled workflow.
func TestCompile_Immutability(t *testing.T) {
	b := New[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a")

	wf1, err := b.Compile()
	require.NoError(t, err)

	b.AddNode("b", increment).AddEdge("b", END)

	assert.False(t, wf1.HasNode("b"))
}
