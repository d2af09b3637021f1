package domain

import (
	"errors"
	"fmt"
)

// ErrStructural marks faults that are always fatal, regardless of how the graph is wired.
var ErrStructural = errors.New("structural error")

// ErrNodeNotFound is returned when a node id cannot be found in the graph.
var ErrNodeNotFound = fmt.Errorf("%w: node not found", ErrStructural)

// ErrBlueprintNotFound is returned when no blueprint container matches a key.
var ErrBlueprintNotFound = fmt.Errorf("%w: blueprint not found", ErrStructural)

// ErrBlockTypeNotFound is returned when a node type has no registered block.
var ErrBlockTypeNotFound = fmt.Errorf("%w: block type not registered", ErrStructural)

// ErrPathNotFound is returned when a state path does not resolve to a value.
var ErrPathNotFound = errors.New("state path not found")

// ConfigurationError is raised when a required field resolves to an empty value,
// or when a field is present but cannot be used.
type ConfigurationError struct {
	NodeID string
	Field  string
	// Err is set when the field is present but invalid.
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node '%s': field '%s' is invalid: %v", e.NodeID, e.Field, e.Err)
	}
	return fmt.Sprintf("node '%s': required field '%s' is empty", e.NodeID, e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StateAssignmentError is raised when a state path cannot be assigned because
// its parent does not resolve to an existing container.
type StateAssignmentError struct {
	Path   string
	Reason string
}

func (e *StateAssignmentError) Error() string {
	return fmt.Sprintf("cannot assign state path '%s': %s", e.Path, e.Reason)
}

// Is makes every StateAssignmentError match ErrStructural.
func (e *StateAssignmentError) Is(target error) bool {
	return target == ErrStructural
}

// UnhandledBlockError is returned when a block fails and the graph has no edge for its outcome.
type UnhandledBlockError struct {
	NodeID  string
	Type    string
	Outcome string
	Cause   error
}

func (e *UnhandledBlockError) Error() string {
	if e.Outcome == "" {
		return fmt.Sprintf("unhandled fault in block '%s' (%s): %v", e.NodeID, e.Type, e.Cause)
	}
	return fmt.Sprintf("unhandled fault in block '%s' (%s), outcome '%s' has no edge: %v", e.NodeID, e.Type, e.Outcome, e.Cause)
}

func (e *UnhandledBlockError) Unwrap() error {
	return e.Cause
}

// IsStructural reports whether err must propagate regardless of graph wiring.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}
