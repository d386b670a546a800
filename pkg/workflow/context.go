package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/checkpoint"
)

// Context provides execution context to nodes.
// It extends context.Context with run metadata and ambient services.
//
// Model clients and persistence collaborators are NOT carried here:
// pipelines receive them as constructor arguments so that each node's
// dependencies are explicit and per-run configuration stays possible.
//
// Context is immutable after creation. The executor derives a context per
// node with the node ID set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node
	// context. Never nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// Checkpointer returns the checkpoint store, or nil if not configured.
	Checkpointer() checkpoint.Store

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string before execution starts.
	NodeID() string

	// Attempt returns the retry attempt number (1 = first attempt).
	Attempt() int
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger       *slog.Logger
	checkpointer checkpoint.Store
	runID        string
	nodeID       string
	attempt      int
}

func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

func (c *executionContext) Checkpointer() checkpoint.Store {
	return c.checkpointer
}

func (c *executionContext) RunID() string {
	return c.runID
}

func (c *executionContext) NodeID() string {
	return c.nodeID
}

func (c *executionContext) Attempt() int {
	return c.attempt
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The executor enriches it with run_id, node_id and attempt per node.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithCheckpointer sets the checkpoint store for the context.
func WithCheckpointer(store checkpoint.Store) ContextOption {
	return func(c *executionContext) {
		c.checkpointer = store
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is auto-generated. This ID is used for logging and
// tracing; checkpointing takes its run ID from the WithRunID run option.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := workflow.NewContext(context.Background(),
//	    workflow.WithLogger(logger),
//	    workflow.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		attempt: 1,
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNodeID derives a context with the node ID set and logger enriched.
func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context:      c.Context,
		logger:       c.logger.With("run_id", c.runID, "node_id", nodeID, "attempt", c.attempt),
		checkpointer: c.checkpointer,
		runID:        c.runID,
		nodeID:       nodeID,
		attempt:      c.attempt,
	}
}
