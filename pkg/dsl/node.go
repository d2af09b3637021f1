package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/loom/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Add creates a node inside this container.
func (n *NodeBuilder) Add(id, blockType string) *NodeBuilder {
	child := n.builder.Add(id, blockType)
	child.node.Parent = n.node.ID
	return child
}

// Set stores a content field. Values may be literals or @{...} templates.
func (n *NodeBuilder) Set(key, value string) *NodeBuilder {
	n.node.Content[key] = value
	return n
}

// SetJSON stores v as a JSON-encoded content field.
// It panics if v cannot be encoded, like regexp.MustCompile does for bad patterns.
func (n *NodeBuilder) SetJSON(key string, v any) *NodeBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("dsl: field '%s' of node '%s': %v", key, n.node.ID, err))
	}
	return n.Set(key, string(data))
}

// Describe sets the human description of a container.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	return n.Set(domain.KeyDescription, text)
}

// On adds an edge taken when the node finishes with outcome.
func (n *NodeBuilder) On(outcome, target string) *NodeBuilder {
	n.node.Out = append(n.node.Out, domain.Edge{Outcome: outcome, Target: target})
	return n
}

// Then adds a success edge to target.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	return n.On(domain.OutcomeSuccess, target)
}

// Error adds an error edge to target.
func (n *NodeBuilder) Error(target string) *NodeBuilder {
	return n.On(domain.OutcomeError, target)
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	node := n.node
	node.Content = make(map[string]string, len(n.node.Content))
	for k, v := range n.node.Content {
		node.Content[k] = v
	}
	node.Out = append([]domain.Edge(nil), n.node.Out...)
	return node
}
