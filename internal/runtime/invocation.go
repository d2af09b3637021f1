package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/google/uuid"
)

// errShortCircuit unwinds the resolution once a node produced a return value.
var errShortCircuit = errors.New("short circuit")

// invocation is one call of runNodes. Resolution is depth-first and synchronous,
// so its maps need no locking.
type invocation struct {
	r         *Runner
	id        string
	nodes     []graph.Handle
	env       map[string]any
	cache     map[graph.Handle]*blocks.Instance
	resolving map[graph.Handle]bool
	order     []graph.Handle
	results   map[string]any
	status    domain.RunStatus
}

// runNodes resolves every terminal node of nodes and returns the invocation's return value.
func (r *Runner) runNodes(ctx context.Context, nodes []graph.Handle, env map[string]any) (any, error) {
	inv := &invocation{
		r:         r,
		id:        runID(env),
		nodes:     r.schedulable(nodes),
		env:       env,
		cache:     make(map[graph.Handle]*blocks.Instance),
		resolving: make(map[graph.Handle]bool),
		results:   make(map[string]any),
		status:    domain.RunPending,
	}

	start := time.Now()
	r.runStart(ctx, inv)
	err := inv.run(ctx)
	value := inv.returnValue()

	status := domain.RunSucceeded
	switch {
	case err != nil:
		status = domain.RunFailed
	case !domain.IsEmpty(value):
		status = domain.RunShortCircuited
	}

	r.finish(ctx, inv, status, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return value, nil
}

// schedulable drops container nodes, which group blocks but never run.
func (r *Runner) schedulable(nodes []graph.Handle) []graph.Handle {
	out := make([]graph.Handle, 0, len(nodes))
	for _, h := range nodes {
		if r.graph.Node(h).Type != domain.NodeTypeBlueprint {
			out = append(out, h)
		}
	}
	return out
}

func (inv *invocation) run(ctx context.Context) error {
	for _, h := range inv.r.graph.TerminalNodes(inv.nodes) {
		if _, err := inv.runNode(ctx, h); err != nil {
			if errors.Is(err, errShortCircuit) {
				return nil
			}
			return err
		}
	}
	return nil
}

// runNode resolves target: its dependencies first, then the block itself when at least one
// incoming edge matched. It returns nil when the node did not execute.
func (inv *invocation) runNode(ctx context.Context, target graph.Handle) (*blocks.Instance, error) {
	if inst, ok := inv.cache[target]; ok {
		return inst, nil
	}
	if inv.resolving[target] {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inv.resolving[target] = true
	defer delete(inv.resolving, target)

	deps := inv.r.graph.IncomingEdges(target, inv.nodes)
	var last *blocks.Instance
	matched := 0
	for _, dep := range deps {
		src, err := inv.runNode(ctx, dep.Source)
		if err != nil {
			return nil, err
		}
		if src != nil && src.Outcome == dep.Outcome {
			matched++
			last = src
		}
	}
	if len(deps) > 0 && matched == 0 {
		return nil, nil
	}

	return inv.execute(ctx, target, last)
}

func (inv *invocation) execute(ctx context.Context, h graph.Handle, upstream *blocks.Instance) (*blocks.Instance, error) {
	r := inv.r
	node := r.graph.Node(h)

	reg, err := r.registry.Lookup(node.Type)
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", node.ID, err)
	}

	env := make(map[string]any, len(inv.env)+3)
	for k, v := range inv.env {
		env[k] = v
	}
	var result any
	if upstream != nil {
		result = upstream.Result
	}
	env[domain.EnvResult] = result
	results := make(map[string]any, len(inv.results))
	for k, v := range inv.results {
		results[k] = v
	}
	env[domain.EnvResults] = results
	env[domain.EnvRunID] = inv.id

	inst := blocks.NewInstance(node, r, env, r.evaluator)
	logger := r.logger.With("run_id", inv.id, "node_id", node.ID, "block_type", node.Type)

	r.blockStart(ctx, inv.id, node)
	start := time.Now()
	runErr := safeRun(ctx, reg.New, inst)
	inst.ExecutionTime = time.Since(start)
	if runErr != nil && domain.IsEmpty(inst.Result) {
		inst.Result = runErr.Error()
	}

	inv.cache[h] = inst
	inv.order = append(inv.order, h)
	inv.results[node.ID] = inst.Result
	r.blockFinish(ctx, inv.id, node, inst, runErr)

	if runErr != nil {
		switch {
		case domain.IsStructural(runErr):
			return inst, fmt.Errorf("node '%s': %w", node.ID, runErr)
		case inst.Outcome == "" || !r.graph.HasOutEdge(h, inst.Outcome):
			return inst, &domain.UnhandledBlockError{NodeID: node.ID, Type: node.Type, Outcome: inst.Outcome, Cause: runErr}
		}
		logger.WarnContext(ctx, "block fault handled by graph", "outcome", inst.Outcome, "error", runErr)
	} else {
		logger.DebugContext(ctx, "block finished", "outcome", inst.Outcome, "duration", inst.ExecutionTime)
	}

	if !domain.IsEmpty(inst.ReturnValue) {
		return inst, errShortCircuit
	}
	return inst, nil
}

// returnValue is the first non-empty return value in node-set order.
func (inv *invocation) returnValue() any {
	for _, h := range inv.nodes {
		if inst, ok := inv.cache[h]; ok && !domain.IsEmpty(inst.ReturnValue) {
			return inst.ReturnValue
		}
	}
	return nil
}

// safeRun converts panics raised by a block into faults.
func safeRun(ctx context.Context, ctor blocks.Constructor, inst *blocks.Instance) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("block panicked: %v", p)
		}
	}()
	return ctor(inst).Run(ctx)
}

// runID reuses the trace id of an enclosing invocation, so nested runs share it.
func runID(env map[string]any) string {
	if id, ok := env[domain.EnvRunID].(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
