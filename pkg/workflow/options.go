package workflow

import (
	"log/slog"

	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/checkpoint"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/observability"
)

// runConfig holds configuration for a single Run.
type runConfig struct {
	maxIterations int

	// Observability
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool

	// Checkpointing
	checkpointStore        checkpoint.Store
	runID                  string
	pipeline               string
	sequence               int
	checkpointFailureFatal bool
}

// defaultRunConfig returns the default execution configuration.
// Metrics and tracing are no-ops until enabled.
func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 1000,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node executions.
// Default: 1000. Guards against a router loop that never reaches END.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithObservabilityLogger sets the logger for run and node lifecycle logs.
// Without it, the run produces no engine-level logs.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for this run.
// The recorder uses the global OTel meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing for this run.
// A run span wraps one span per executed node.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithCheckpointing persists the state to the given store after every
// successful node. Requires WithRunID.
func WithCheckpointing(store checkpoint.Store) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
	}
}

// WithRunID sets the run identifier used for checkpointing.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithPipelineName tags checkpoints with the pipeline that produced them.
func WithPipelineName(name string) RunOption {
	return func(c *runConfig) {
		c.pipeline = name
	}
}

// WithCheckpointFailureFatal makes checkpoint write failures abort the
// run. By default they are logged and the run continues.
func WithCheckpointFailureFatal(fatal bool) RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = fatal
	}
}

// resumeConfig holds configuration for Resume / ResumeFrom.
type resumeConfig struct {
	stateOverride func(any) any
	validateState func(any) error
	replayNode    bool
}

// ResumeOption configures resume behavior.
type ResumeOption func(*resumeConfig)

// WithStateOverride transforms the restored state before execution
// continues. The function receives and must return the pipeline's state
// type.
func WithStateOverride(fn func(any) any) ResumeOption {
	return func(c *resumeConfig) {
		c.stateOverride = fn
	}
}

// WithStateValidation validates the restored state before execution
// continues. A non-nil error aborts the resume.
func WithStateValidation(fn func(any) error) ResumeOption {
	return func(c *resumeConfig) {
		c.validateState = fn
	}
}

// WithReplayNode re-executes the checkpointed node instead of continuing
// from the node after it.
func WithReplayNode(replay bool) ResumeOption {
	return func(c *resumeConfig) {
		c.replayNode = replay
	}
}
