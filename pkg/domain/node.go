package domain

// Edge connects a node to a target node for a given outcome.
type Edge struct {
	Outcome string `json:"outcome" yaml:"outcome" mapstructure:"outcome"`
	Target  string `json:"target" yaml:"target" mapstructure:"target"`
}

// Node represents a block in the graph.
// Nodes are authored externally and are read-only to the engine.
type Node struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// Content maps a field name to a literal or a template string.
	Content map[string]string `json:"content,omitempty" yaml:"content,omitempty" mapstructure:"content"`

	// Out lists the outgoing edges. A node without edges is terminal.
	Out []Edge `json:"out,omitempty" yaml:"out,omitempty" mapstructure:"out"`

	// Parent is the id of the container node this node belongs to, if any.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`

	// Fields holds the parsed form of Content. It is filled by Compile.
	Fields map[string]Field `json:"-" yaml:"-" mapstructure:"-"`
}

// Compile parses every content entry into a Field.
// It is called once when the graph is built so that templates are not re-scanned on every access.
func (n *Node) Compile() {
	n.Fields = make(map[string]Field, len(n.Content))
	for k, v := range n.Content {
		n.Fields[k] = ParseField(v)
	}
}

// Field returns the parsed field for key.
func (n *Node) Field(key string) (Field, bool) {
	if n.Fields != nil {
		f, ok := n.Fields[key]
		return f, ok
	}
	raw, ok := n.Content[key]
	if !ok {
		return Field{}, false
	}
	return ParseField(raw), true
}

// IsTerminal reports whether the node has no outgoing edges.
func (n *Node) IsTerminal() bool {
	return len(n.Out) == 0
}
