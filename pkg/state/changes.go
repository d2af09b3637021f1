package state

import (
	"context"
	"sync"

	"github.com/mohae/deepcopy"
)

type changeSetKey struct{}

// ChangeSet records the top-level keys written through a context, so that concurrent
// runs report their own writes only.
type ChangeSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// WithChangeSet returns a context whose SetContext and MutateContext writes are recorded
// in the returned ChangeSet. An inner WithChangeSet shadows an outer one.
func WithChangeSet(ctx context.Context) (context.Context, *ChangeSet) {
	cs := &ChangeSet{keys: make(map[string]struct{})}
	return context.WithValue(ctx, changeSetKey{}, cs), cs
}

func changeSetFrom(ctx context.Context) *ChangeSet {
	cs, _ := ctx.Value(changeSetKey{}).(*ChangeSet)
	return cs
}

func (c *ChangeSet) add(key string) {
	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()
}

// Collect returns the current value in s of every recorded key, nil for deleted keys.
// It returns nil when nothing was written.
func (c *ChangeSet) Collect(s *Store) map[string]any {
	c.mu.Lock()
	keys := make([]string, 0, len(c.keys))
	for k := range c.keys {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	if len(keys) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	delta := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := s.root[k]; ok {
			delta[k] = deepcopy.Copy(v)
		} else {
			delta[k] = nil
		}
	}
	return delta
}
