package state

import (
	"reflect"
)

// Diff calculates the top-level difference between two state snapshots.
// It is designed to be serialized to JSON for partial updates on a client.
// Added or modified keys carry their new value; deleted keys are present with a nil value.
// If old is nil, every key of new is part of the delta (initial load).
// It returns nil when nothing changed so that omitempty can drop it.
func Diff(old, new map[string]any) map[string]any {
	delta := make(map[string]any)

	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}
