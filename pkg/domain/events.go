package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventBlockStart  EventType = "block_start"
	EventBlockFinish EventType = "block_finish"
	EventRunStart    EventType = "run_start"
	EventRunFinish   EventType = "run_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// BlockEvent represents the start or the end of a block execution.
type BlockEvent struct {
	EventBase
	NodeID    string        `json:"node_id"`
	BlockType string        `json:"block_type"`
	Outcome   string        `json:"outcome,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// RunEvent represents the start or the end of one runner invocation.
// Executed and Duration are zero on start.
type RunEvent struct {
	EventBase
	Status   RunStatus     `json:"status"`
	Executed int           `json:"executed"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnBlockStart  func(context.Context, *BlockEvent)
	OnBlockFinish func(context.Context, *BlockEvent)
	OnRunStart    func(context.Context, *RunEvent)
	OnRunFinish   func(context.Context, *RunEvent)
}
