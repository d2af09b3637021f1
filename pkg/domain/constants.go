package domain

// Node types the runner treats specially. Every other type is resolved through the block registry.
const (
	// NodeTypeBlueprint groups nodes under a named, key-addressable container.
	// Containers are never scheduled themselves; their descendants are.
	NodeTypeBlueprint = "blueprint"
)

// Content keys with a meaning for the runner.
const (
	// KeyBlueprintKey is the content field holding the lookup key of a blueprint container.
	KeyBlueprintKey = "key"
	// KeyDescription is an optional human description of a container.
	KeyDescription = "description"
)

// Standard outcomes shared by most blocks.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Environment keys seeded by the runner into every block's execution environment.
const (
	EnvPayload = "payload"
	EnvResult  = "result"
	EnvResults = "results"
	EnvRunID   = "run_id"
)
