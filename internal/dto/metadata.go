package dto

// Document is the on-disk form of a graph (YAML or JSON).
// Nodes may be listed flat (with an explicit parent) or nested under a blueprint.
type Document struct {
	Name       string          `json:"name" mapstructure:"name"`
	Blueprints []BlueprintSpec `json:"blueprints" mapstructure:"blueprints"`
	Nodes      []NodeSpec      `json:"nodes" mapstructure:"nodes"`
}

// BlueprintSpec groups nodes under a key-addressable container.
type BlueprintSpec struct {
	// ID of the container node; defaults to "blueprint_<key>".
	ID          string     `json:"id" mapstructure:"id"`
	Key         string     `json:"key" mapstructure:"key"`
	Description string     `json:"description" mapstructure:"description"`
	Nodes       []NodeSpec `json:"nodes" mapstructure:"nodes"`
}

// NodeSpec represents one node.
// Content values that are not strings are stored as JSON text.
type NodeSpec struct {
	ID      string         `json:"id" mapstructure:"id"`
	Type    string         `json:"type" mapstructure:"type"`
	Parent  string         `json:"parent" mapstructure:"parent"`
	Content map[string]any `json:"content" mapstructure:"content"`
	Out     []EdgeSpec     `json:"out" mapstructure:"out"`

	// Next is a shorthand for Out: outcome -> target, or outcome -> [targets].
	Next map[string]any `json:"next" mapstructure:"next"`
}

// EdgeSpec is one outgoing edge.
type EdgeSpec struct {
	Outcome string `json:"outcome" mapstructure:"outcome"`
	Target  string `json:"target" mapstructure:"target"`
	// To is accepted as an alias of Target.
	To string `json:"to" mapstructure:"to"`
}
