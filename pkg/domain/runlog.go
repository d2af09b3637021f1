package domain

import "time"

// RunStatus is the state of one runner invocation. An invocation is pending until
// its first node is scheduled, running while nodes resolve, then settles on one
// of the final states.
type RunStatus string

const (
	RunPending        RunStatus = "pending"
	RunRunning        RunStatus = "running"
	RunSucceeded      RunStatus = "succeeded"
	RunFailed         RunStatus = "failed"
	RunShortCircuited RunStatus = "short_circuited"
)

// Final reports whether s is a settled state.
func (s RunStatus) Final() bool {
	return s == RunSucceeded || s == RunFailed || s == RunShortCircuited
}

// RunLogEntry summarizes the execution of one node.
type RunLogEntry struct {
	NodeID        string         `json:"node_id"`
	Type          string         `json:"type"`
	Outcome       string         `json:"outcome"`
	Result        any            `json:"result,omitempty"`
	ReturnValue   any            `json:"return_value,omitempty"`
	Environment   map[string]any `json:"environment,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// RunLog summarizes one invocation of the runner.
type RunLog struct {
	RunID   string        `json:"run_id"`
	Status  RunStatus     `json:"status"`
	Entries []RunLogEntry `json:"entries"`
	Error   string        `json:"error,omitempty"`
}

// MailKind is the severity of a Mail record.
type MailKind string

const (
	MailInfo  MailKind = "info"
	MailError MailKind = "error"
)

// Mail is a structured record addressed to the session layer.
type Mail struct {
	Kind    MailKind `json:"kind"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Payload any      `json:"payload,omitempty"`
}

// IsEmpty reports whether a value counts as "not set" for results and return values.
// nil, the empty string and empty collections are empty; false and zero are not.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
