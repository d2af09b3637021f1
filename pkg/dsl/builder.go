package dsl

import (
	"fmt"

	"github.com/aretw0/loom/pkg/adapters/memory"
	"github.com/aretw0/loom/pkg/domain"
)

// BlueprintPrefix prefixes the node ID of containers created with Blueprint.
const BlueprintPrefix = "blueprint_"

// Builder manages the graph construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node of the given block type.
// If the node already exists, it returns the existing builder unchanged.
func (b *Builder) Add(id, blockType string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:      id,
			Type:    blockType,
			Content: make(map[string]string),
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Blueprint creates a key-addressable container. Nodes added through the
// returned builder's Add belong to it.
func (b *Builder) Blueprint(key string) *NodeBuilder {
	return b.Add(BlueprintPrefix+key, domain.NodeTypeBlueprint).Set(domain.KeyBlueprintKey, key)
}

// Nodes returns the nodes in insertion order.
func (b *Builder) Nodes() []domain.Node {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].Build())
	}
	return nodes
}

// Build compiles the graph into a memory loader.
// Edges pointing at nodes that were never added are reported here.
func (b *Builder) Build() (*memory.Loader, error) {
	for _, id := range b.order {
		for _, e := range b.nodes[id].node.Out {
			if _, ok := b.nodes[e.Target]; !ok {
				return nil, fmt.Errorf("node '%s' has a '%s' edge to unknown node '%s'", id, e.Outcome, e.Target)
			}
		}
	}

	loader, err := memory.NewFromNodes(b.Nodes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}

	return loader, nil
}
