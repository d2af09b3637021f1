package domain

// BlueprintInfo describes a key-addressable blueprint container.
type BlueprintInfo struct {
	Key         string `json:"key" yaml:"key"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	NodeID      string `json:"node_id" yaml:"node_id"`
}

// RunResult is what an embedder gets back from running a blueprint.
type RunResult struct {
	RunID string `json:"run_id"`
	// Value is the first non-empty return value of the invocation, if any.
	Value any `json:"value,omitempty"`
	// Changes holds the top-level state keys modified by the run.
	Changes map[string]any `json:"changes,omitempty"`
}
