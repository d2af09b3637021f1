package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

type branchItem struct {
	idx int
	env map[string]any
}

// RunBranchPool runs the branch once per env on a bounded worker pool.
// Results are ordered like envs. The first failing item cancels the remaining ones and its
// error is returned without partial results.
func (r *Runner) RunBranchPool(ctx context.Context, baseID, outcome string, envs []map[string]any) ([]any, error) {
	if _, err := r.graph.Handle(baseID); err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return []any{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		results  = make([]any, len(envs))
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	// A pool per call: items may start nested pools without starving this one.
	pool, err := ants.NewPoolWithFunc(min(len(envs), r.poolSize), func(arg any) {
		item := arg.(branchItem)
		defer wg.Done()
		v, err := r.RunBranch(ctx, baseID, outcome, item.env)
		if err != nil {
			fail(fmt.Errorf("branch pool item %d: %w", item.idx, err))
			return
		}
		results[item.idx] = v
	})
	if err != nil {
		return nil, fmt.Errorf("create branch pool: %w", err)
	}
	defer pool.Release()

	for i, env := range envs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(branchItem{idx: i, env: env}); err != nil {
			wg.Done()
			fail(fmt.Errorf("submit branch pool item %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
