// Package dag provides the thread-safe dependency graph the processor
// schedules plan nodes on.
package dag

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Graph is a directed acyclic graph of string-identified nodes.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
	pending    atomic.Int64
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a new node with the given ID to the graph. Adding an
// existing ID is a no-op.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge creates a directed edge from `fromID` to `toID`, meaning `toID`
// depends on `fromID`. An error is returned if either node does not exist
// or the edge would be self-referential.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the sorted IDs the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the sorted IDs that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedKeys(n.dependents), nil
}

// Roots returns the sorted IDs of nodes without dependencies.
func (g *Graph) Roots() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var roots []string
	for id, n := range g.nodes {
		if len(n.deps) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// InitCounters sets every node's pending-dependency counter to its number
// of dependencies. Must run before the first Decrement.
func (g *Graph) InitCounters() {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		n.pending.Store(int64(len(n.deps)))
	}
}

// Decrement lowers the pending-dependency counter of a node and returns
// the remaining count. A return of zero means the node is ready to run.
func (g *Graph) Decrement(id string) (int, error) {
	g.mu.RLock()
	n, ok := g.nodes[id]
	g.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("node not found: %s", id)
	}
	return int(n.pending.Add(-1)), nil
}

// DetectCycles returns an error naming a node on a dependency cycle, if
// any exists.
func (g *Graph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.nodes))

	var visit func(n *node) error
	visit = func(n *node) error {
		switch state[n.id] {
		case visiting:
			return fmt.Errorf("dependency cycle detected through node %s", n.id)
		case done:
			return nil
		}
		state[n.id] = visiting
		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[n.id] = done
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
