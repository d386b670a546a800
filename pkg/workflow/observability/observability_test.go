package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := newCaptureLogger()

	enriched := EnrichLogger(logger, "run-1", "triage", 2)
	require.NotNil(t, enriched)
	enriched.Info("working")

	out := buf.String()
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"node_id":"triage"`)
	assert.Contains(t, out, `"attempt":2`)
}

func TestEnrichLogger_NilLogger(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "run-1", "node", 1))
}

// All log helpers tolerate a nil logger; the engine calls them
// unconditionally.
func TestLogHelpers_NilLoggerSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunStart(nil, "run-1")
		LogRunComplete(nil, "run-1", 12.5, 3)
		LogRunError(nil, "run-1", errors.New("boom"), 12.5, "triage")
		LogNodeStart(nil, "triage")
		LogNodeComplete(nil, "triage", 2.0)
		LogNodeError(nil, "triage", errors.New("boom"))
		LogCheckpoint(nil, "triage", 128)
		LogCheckpointError(nil, "triage", "save", errors.New("disk full"))
	})
}

func TestLogHelpers_Output(t *testing.T) {
	logger, buf := newCaptureLogger()

	LogRunStart(logger, "run-1")
	assert.Contains(t, buf.String(), "pipeline run starting")
	buf.Reset()

	LogRunComplete(logger, "run-1", 42.0, 5)
	assert.Contains(t, buf.String(), "pipeline run completed")
	assert.Contains(t, buf.String(), `"nodes_executed":5`)
	buf.Reset()

	LogRunError(logger, "run-1", errors.New("node exploded"), 42.0, "detect")
	assert.Contains(t, buf.String(), "pipeline run failed")
	assert.Contains(t, buf.String(), "node exploded")
	assert.Contains(t, buf.String(), `"last_node":"detect"`)
	buf.Reset()

	LogNodeError(logger, "detect", errors.New("timeout"))
	assert.Contains(t, buf.String(), "node failed")
	buf.Reset()

	LogCheckpointError(logger, "detect", "save", errors.New("disk full"))
	assert.Contains(t, buf.String(), "checkpoint failed")
	assert.Contains(t, buf.String(), `"operation":"save"`)
}

func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, elapsed(), float64(0))
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}

	assert.NotPanics(t, func() {
		m.RecordNodeExecution(context.Background(), "node", 100*time.Millisecond, nil)
		m.RecordNodeExecution(context.Background(), "node", 0, errors.New("boom"))
		m.RecordRun(context.Background(), true, time.Second)
		m.RecordRun(context.Background(), false, 0)
		m.RecordCheckpoint(context.Background(), "node", 2048)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	runCtx, runSpan := sm.StartRunSpan(ctx, "radiology", "run-1")
	assert.Equal(t, ctx, runCtx)
	require.NotNil(t, runSpan)

	nodeCtx, nodeSpan := sm.StartNodeSpan(ctx, "triage")
	assert.Equal(t, ctx, nodeCtx)
	require.NotNil(t, nodeSpan)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(runSpan, errors.New("boom"))
		sm.EndSpanWithError(nodeSpan, nil)
		sm.AddSpanEvent(ctx, "checkpoint")
	})
}

func TestNewSpanManager_EndSpanWithError(t *testing.T) {
	sm := NewSpanManager()
	ctx, span := sm.StartNodeSpan(context.Background(), "triage")
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	// Default tracer provider yields non-recording spans; ending them
	// with or without an error must be safe.
	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("boom"))
		sm.EndSpanWithError(nil, nil)
		sm.AddSpanEvent(ctx, "detail")
	})
}

func TestMetricsRecorder_Interfaces(t *testing.T) {
	rec := NewMetricsRecorder()
	require.NotNil(t, rec)

	// Global meter provider defaults to no-op; recording must be safe.
	assert.NotPanics(t, func() {
		rec.RecordNodeExecution(context.Background(), "node", time.Millisecond, nil)
		rec.RecordRun(context.Background(), true, time.Millisecond)
		rec.RecordCheckpoint(context.Background(), "node", 64)
	})
}
