package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/loom/pkg/adapters/redis"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowRunner counts overlapping runs per blueprint.
type slowRunner struct {
	inFlight sync.Map // key -> *int32
	overlaps atomic.Int32
	runs     atomic.Int32
	fail     bool
}

func (r *slowRunner) RunBlueprint(ctx context.Context, key string, payload any) (*domain.RunResult, error) {
	v, _ := r.inFlight.LoadOrStore(key, new(int32))
	n := v.(*int32)
	if atomic.AddInt32(n, 1) > 1 {
		r.overlaps.Add(1)
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(n, -1)
	r.runs.Add(1)
	if r.fail {
		return nil, errors.New("boom")
	}
	return &domain.RunResult{RunID: "r", Value: payload}, nil
}

func (r *slowRunner) Blueprints() []domain.BlueprintInfo {
	return []domain.BlueprintInfo{{Key: "a"}, {Key: "b"}}
}

type memStore struct {
	mu    sync.Mutex
	saves int
	last  map[string]any
}

func (s *memStore) Load() (map[string]any, error) { return map[string]any{}, nil }

func (s *memStore) Save(snapshot map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.last = snapshot
	return nil
}

func TestManager_SerializesRunsPerBlueprint(t *testing.T) {
	runner := &slowRunner{}
	mgr := NewManager(runner)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "a"
			if i%2 == 0 {
				key = "b"
			}
			_, err := mgr.RunBlueprint(context.Background(), key, i)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(20), runner.runs.Load())
	assert.Zero(t, runner.overlaps.Load())
	assert.Empty(t, mgr.locks, "locks must be released after use")
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&slowRunner{})
	for i := 0; i < 1000; i++ {
		err := mgr.WithLock(context.Background(), fmt.Sprintf("bp-%d", i), func(context.Context) error { return nil })
		require.NoError(t, err)
	}
	assert.Empty(t, mgr.locks)
}

func TestManager_Checkpoint(t *testing.T) {
	store := &memStore{}
	var calls atomic.Int32
	mgr := NewManager(&slowRunner{}, WithStore(store, func() map[string]any {
		return map[string]any{"n": calls.Add(1)}
	}))

	res, err := mgr.RunBlueprint(context.Background(), "a", "x")
	require.NoError(t, err)
	assert.Equal(t, "x", res.Value)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, map[string]any{"n": int32(1)}, store.last)

	// Failed runs may have changed state too.
	failing := NewManager(&slowRunner{fail: true}, WithStore(store, func() map[string]any { return nil }))
	_, err = failing.RunBlueprint(context.Background(), "a", nil)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 2, store.saves)
}

func TestManager_CheckpointSkipsUnchangedState(t *testing.T) {
	store := &memStore{}
	current := map[string]any{"hits": 1}
	mgr := NewManager(&slowRunner{}, WithStore(store, func() map[string]any {
		return map[string]any{"hits": current["hits"]}
	}))

	require.NoError(t, mgr.Checkpoint())
	require.NoError(t, mgr.Checkpoint())
	assert.Equal(t, 1, store.saves)

	current["hits"] = 2
	require.NoError(t, mgr.Checkpoint())
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, map[string]any{"hits": 2}, store.last)
}

func TestManager_CheckpointWithoutStore(t *testing.T) {
	assert.NoError(t, NewManager(&slowRunner{}).Checkpoint())
}

func TestManager_Blueprints(t *testing.T) {
	mgr := NewManager(&slowRunner{})
	assert.Len(t, mgr.Blueprints(), 2)
	var _ ports.BlueprintRunner = mgr
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mgr := NewManager(&slowRunner{}, WithLocker(redis.NewLocker(client, "loom:"), time.Minute))

	err := mgr.WithLock(context.Background(), "a", func(context.Context) error {
		assert.True(t, mr.Exists("loom:lock:blueprint:a"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("loom:lock:blueprint:a"))
}

func TestManager_DistributedLockTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, mr.Set("loom:lock:blueprint:a", "someone-else"))

	mgr := NewManager(&slowRunner{}, WithLocker(redis.NewLocker(client, "loom:"), time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := mgr.RunBlueprint(ctx, "a", nil)
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}
