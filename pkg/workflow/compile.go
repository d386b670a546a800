package workflow

import (
	"errors"
	"fmt"
	"log/slog"
)

// Compile validates the graph and produces an executable Workflow.
// Multiple validation failures are joined into one error.
//
// Checks, in order:
//  1. Entry point is set
//  2. Entry point references an existing node
//  3. Edge sources reference existing nodes
//  4. Edge targets reference existing nodes or END
//  5. A path from the entry to END exists
//
// Unreachable nodes are logged as warnings but do not fail compilation.
func (b *Builder[S]) Compile() (*Workflow[S], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var errs []error

	if b.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := b.nodes[b.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, b.entryPoint))
	}

	for from, targets := range b.edges {
		if from != END {
			if _, exists := b.nodes[from]; !exists {
				if _, hasConditional := b.conditionalEdges[from]; !hasConditional {
					errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
				}
			}
		}

		for _, to := range targets {
			if to != END {
				if _, exists := b.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
				}
			}
		}
	}

	for from := range b.conditionalEdges {
		if _, exists := b.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
	}

	if b.entryPoint != "" {
		if _, exists := b.nodes[b.entryPoint]; exists {
			if !b.hasPathToEnd() {
				errs = append(errs, ErrNoPathToEnd)
			}
		}
	}

	b.warnUnreachableNodes()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return b.build(), nil
}

// hasPathToEnd checks reachability of END from the entry point.
// A node with a conditional edge is assumed to potentially reach END,
// since its router may return END at runtime.
func (b *Builder[S]) hasPathToEnd() bool {
	canReachEnd := map[string]bool{END: true}

	changed := true
	for changed {
		changed = false

		for from, targets := range b.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}

		for from := range b.conditionalEdges {
			if !canReachEnd[from] {
				canReachEnd[from] = true
				changed = true
			}
		}
	}

	return canReachEnd[b.entryPoint]
}

// warnUnreachableNodes logs nodes not reachable from the entry point.
func (b *Builder[S]) warnUnreachableNodes() {
	if b.entryPoint == "" {
		return
	}

	reachable := b.findReachableNodes()

	for nodeID := range b.nodes {
		if !reachable[nodeID] {
			slog.Warn("node is unreachable from entry", "node_id", nodeID)
		}
	}
}

// findReachableNodes returns the set of nodes reachable from the entry.
// Router targets are unknown until runtime, so a conditional edge is
// treated as potentially reaching every node.
func (b *Builder[S]) findReachableNodes() map[string]bool {
	reachable := make(map[string]bool)

	if b.entryPoint == "" {
		return reachable
	}

	queue := []string{b.entryPoint}
	reachable[b.entryPoint] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range b.edges[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}

		if _, hasConditional := b.conditionalEdges[current]; hasConditional {
			for nodeID := range b.nodes {
				if !reachable[nodeID] {
					reachable[nodeID] = true
					queue = append(queue, nodeID)
				}
			}
		}
	}

	return reachable
}

// build creates the immutable Workflow from the builder state.
func (b *Builder[S]) build() *Workflow[S] {
	nodes := make(map[string]NodeFunc[S], len(b.nodes))
	for id, fn := range b.nodes {
		nodes[id] = fn
	}

	edges := make(map[string][]string, len(b.edges))
	for from, targets := range b.edges {
		edges[from] = make([]string, len(targets))
		copy(edges[from], targets)
	}

	conditionalEdges := make(map[string]RouterFunc[S], len(b.conditionalEdges))
	for from, router := range b.conditionalEdges {
		conditionalEdges[from] = router
	}

	successors := make(map[string][]string)
	for from, targets := range edges {
		successors[from] = targets
	}

	predecessors := make(map[string][]string)
	for from, targets := range edges {
		for _, to := range targets {
			if to != END {
				predecessors[to] = append(predecessors[to], from)
			}
		}
	}

	isConditional := make(map[string]bool)
	for from := range conditionalEdges {
		isConditional[from] = true
	}

	return &Workflow[S]{
		nodes:            nodes,
		edges:            edges,
		conditionalEdges: conditionalEdges,
		entryPoint:       b.entryPoint,
		successors:       successors,
		predecessors:     predecessors,
		isConditional:    isConditional,
	}
}
