package state

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/mohae/deepcopy"
)

// Store is the mutable state shared by every block of an engine.
// Safe for concurrent use; writers are serialized.
type Store struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewStore creates a store seeded with a copy of initial.
func NewStore(initial map[string]any) *Store {
	root := make(map[string]any, len(initial))
	for k, v := range initial {
		root[k] = deepcopy.Copy(v)
	}
	return &Store{root: root}
}

// Get returns a copy of the value at path, or domain.ErrPathNotFound.
func (s *Store) Get(path string) (any, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var cur any = s.root
	for _, seg := range segs {
		next, ok := child(cur, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrPathNotFound, path)
		}
		cur = next
	}
	return deepcopy.Copy(cur), nil
}

// Set assigns value at path. The parent of the last segment must already be a container.
func (s *Store) Set(path string, value any) error {
	return s.SetContext(context.Background(), path, value)
}

// SetContext is Set, recording the write in the ChangeSet carried by ctx.
func (s *Store) SetContext(ctx context.Context, path string, value any) error {
	return s.MutateContext(ctx, path, func(any, bool) (any, error) {
		return value, nil
	})
}

// Mutate replaces the value at path with the result of fn, atomically.
// fn receives the current value and whether it exists.
func (s *Store) Mutate(path string, fn func(current any, exists bool) (any, error)) error {
	return s.MutateContext(context.Background(), path, fn)
}

// MutateContext is Mutate, recording the write in the ChangeSet carried by ctx.
func (s *Store) MutateContext(ctx context.Context, path string, fn func(current any, exists bool) (any, error)) error {
	segs, err := ParsePath(path)
	if err != nil {
		return &domain.StateAssignmentError{Path: path, Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var parent any = s.root
	for i, seg := range segs[:len(segs)-1] {
		next, ok := child(parent, seg)
		if !ok {
			return &domain.StateAssignmentError{Path: path, Reason: fmt.Sprintf("parent '%s' is not defined", joinSegments(segs[:i+1]))}
		}
		if !isContainer(next) {
			return &domain.StateAssignmentError{Path: path, Reason: fmt.Sprintf("parent '%s' is not a container (%T)", joinSegments(segs[:i+1]), next)}
		}
		parent = next
	}

	last := segs[len(segs)-1]
	current, exists := child(parent, last)
	value, err := fn(deepcopy.Copy(current), exists)
	if err != nil {
		return err
	}
	value = deepcopy.Copy(value)

	switch c := parent.(type) {
	case map[string]any:
		key := last.Key
		if last.IsIndex {
			key = strconv.Itoa(last.Index)
		}
		c[key] = value
	case []any:
		if !last.IsIndex || last.Index < 0 || last.Index >= len(c) {
			return &domain.StateAssignmentError{Path: path, Reason: fmt.Sprintf("index %s out of range", last)}
		}
		c[last.Index] = value
	}

	if cs := changeSetFrom(ctx); cs != nil {
		cs.add(segs[0].Key)
	}
	return nil
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepcopy.Copy(s.root).(map[string]any)
}

func joinSegments(segs []Segment) string {
	out := ""
	for i, seg := range segs {
		switch {
		case seg.IsIndex:
			out += seg.String()
		case i == 0:
			out += seg.Key
		default:
			out += "." + seg.Key
		}
	}
	return out
}
