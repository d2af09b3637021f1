package graph

import (
	"fmt"

	"github.com/aretw0/loom/pkg/domain"
)

// Handle addresses a node inside a Graph.
type Handle int

// Dependency is an incoming edge: Source emits Outcome towards the node being resolved.
type Dependency struct {
	Source  Handle
	Outcome string
}

// Graph is an immutable node collection with derived queries.
type Graph struct {
	nodes    []*domain.Node
	index    map[string]Handle
	children map[string][]Handle
}

// New builds a graph from nodes, preserving their order as the graph order.
func New(nodes ...domain.Node) (*Graph, error) {
	g := &Graph{
		nodes:    make([]*domain.Node, 0, len(nodes)),
		index:    make(map[string]Handle, len(nodes)),
		children: make(map[string][]Handle),
	}
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node at position %d is missing an id", i)
		}
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id '%s'", n.ID)
		}
		n.Compile()
		h := Handle(len(g.nodes))
		g.nodes = append(g.nodes, &n)
		g.index[n.ID] = h
		if n.Parent != "" {
			g.children[n.Parent] = append(g.children[n.Parent], h)
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// All returns every handle in graph order.
func (g *Graph) All() []Handle {
	all := make([]Handle, len(g.nodes))
	for i := range g.nodes {
		all[i] = Handle(i)
	}
	return all
}

// Node returns the node behind a handle.
func (g *Graph) Node(h Handle) *domain.Node {
	return g.nodes[h]
}

// Handle resolves a node id.
func (g *Graph) Handle(id string) (Handle, error) {
	h, ok := g.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return h, nil
}

// Get returns the node with the given id.
func (g *Graph) Get(id string) (*domain.Node, error) {
	h, err := g.Handle(id)
	if err != nil {
		return nil, err
	}
	return g.nodes[h], nil
}

// Nodes returns a copy of every node, for introspection.
func (g *Graph) Nodes() []domain.Node {
	out := make([]domain.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = *n
	}
	return out
}
