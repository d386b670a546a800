package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current snapshot format version.
// Increment on breaking changes to the snapshot structure.
const Version = 1

// Snapshot is the persisted execution state after one node.
// It contains everything needed to resume the run.
type Snapshot struct {
	// Metadata
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	Pipeline  string    `json:"pipeline,omitempty"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	// Execution state
	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`

	// Execution context
	Attempt    int    `json:"attempt"`
	PrevNodeID string `json:"prev_node_id,omitempty"`
}

// Marshal serializes a snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal deserializes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// New creates a snapshot. State must already be JSON-serialized.
func New(runID, pipeline, nodeID string, sequence int, state []byte, nextNode string) *Snapshot {
	return &Snapshot{
		Version:   Version,
		RunID:     runID,
		Pipeline:  pipeline,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
		Attempt:   1,
	}
}

// WithAttempt sets the attempt number for retry tracking.
func (s *Snapshot) WithAttempt(attempt int) *Snapshot {
	s.Attempt = attempt
	return s
}

// WithPrevNode sets the previous node ID for debugging.
func (s *Snapshot) WithPrevNode(prevNodeID string) *Snapshot {
	s.PrevNodeID = prevNodeID
	return s
}
