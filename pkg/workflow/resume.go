package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/checkpoint"
)

// Resume continues a run from its latest checkpoint.
// The restored state comes from the last successful node; execution
// starts at the node after it.
//
// Example:
//
//	// A radiology run crashed after anomaly detection.
//	// Resume picks up at characterization with the detected findings.
//	result, err := wf.Resume(ctx, store, "run-123")
func (w *Workflow[S]) Resume(ctx Context, store checkpoint.Store, runID string, opts ...ResumeOption) (S, error) {
	var zero S

	if ctx == nil {
		return zero, ErrNilContext
	}

	cfg := resumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	infos, err := store.List(runID)
	if err != nil {
		return zero, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return zero, fmt.Errorf("%w: %s", ErrNoSnapshots, runID)
	}

	latest := infos[len(infos)-1]
	data, err := store.Load(runID, latest.NodeID)
	if err != nil {
		return zero, fmt.Errorf("load checkpoint: %w", err)
	}

	snap, state, err := w.restore(data, &cfg)
	if err != nil {
		return state, err
	}

	startNode := snap.NextNode
	if cfg.replayNode {
		startNode = snap.NodeID
	}

	runCfg := defaultRunConfig()
	runCfg.checkpointStore = store
	runCfg.runID = runID
	runCfg.pipeline = snap.Pipeline
	runCfg.sequence = snap.Sequence

	return w.runFrom(ctx, state, startNode, &runCfg)
}

// ResumeFrom continues a run from the checkpoint at a specific node
// rather than the latest one.
func (w *Workflow[S]) ResumeFrom(ctx Context, store checkpoint.Store, runID, nodeID string, opts ...ResumeOption) (S, error) {
	var zero S

	if ctx == nil {
		return zero, ErrNilContext
	}

	cfg := resumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := store.Load(runID, nodeID)
	if err != nil {
		if err == checkpoint.ErrNotFound {
			return zero, fmt.Errorf("%w: %s at node %s", ErrNoSnapshots, runID, nodeID)
		}
		return zero, fmt.Errorf("load checkpoint: %w", err)
	}

	snap, state, err := w.restore(data, &cfg)
	if err != nil {
		return state, err
	}

	startNode := snap.NextNode
	if cfg.replayNode {
		startNode = nodeID
	}

	if startNode != END && !w.HasNode(startNode) {
		return zero, fmt.Errorf("%w: %s", ErrInvalidResumeNode, startNode)
	}

	runCfg := defaultRunConfig()
	runCfg.checkpointStore = store
	runCfg.runID = runID
	runCfg.pipeline = snap.Pipeline
	runCfg.sequence = snap.Sequence

	return w.runFrom(ctx, state, startNode, &runCfg)
}

// restore unmarshals a checkpoint, checks its version and rebuilds the
// typed state, applying any override and validation from the options.
func (w *Workflow[S]) restore(data []byte, cfg *resumeConfig) (*checkpoint.Snapshot, S, error) {
	var zero S

	snap, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	if snap.Version != checkpoint.Version {
		return nil, zero, fmt.Errorf("%w: got %d, expected %d",
			ErrSnapshotVersionMismatch, snap.Version, checkpoint.Version)
	}

	var state S
	if err := json.Unmarshal(snap.State, &state); err != nil {
		return nil, zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	if cfg.stateOverride != nil {
		modified := cfg.stateOverride(state)
		if typed, ok := modified.(S); ok {
			state = typed
		}
	}

	if cfg.validateState != nil {
		if err := cfg.validateState(state); err != nil {
			return nil, state, fmt.Errorf("state validation failed: %w", err)
		}
	}

	return snap, state, nil
}
