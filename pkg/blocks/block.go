package blocks

import (
	"context"
	"log/slog"

	"github.com/aretw0/loom/pkg/domain"
)

// Block is the executable behavior of a node type.
// Run must set an outcome on success. On failure it sets an error outcome when it can
// determine one (see Instance.Fail) and returns the fault.
type Block interface {
	Run(ctx context.Context) error
}

// Constructor builds the block for one node instance.
type Constructor func(inst *Instance) Block

// RunFunc is the function form of a block.
type RunFunc func(ctx context.Context, inst *Instance) error

type funcBlock struct {
	inst *Instance
	fn   RunFunc
}

func (b funcBlock) Run(ctx context.Context) error {
	return b.fn(ctx, b.inst)
}

// Func adapts a RunFunc into a Constructor.
func Func(fn RunFunc) Constructor {
	return func(inst *Instance) Block {
		return funcBlock{inst: inst, fn: fn}
	}
}

// Host is the runner as seen from inside a block.
// Blocks use it to run sub-graphs and to reach the session layer.
type Host interface {
	// RunBranch runs the nodes reachable from baseID through edges labelled outcome.
	RunBranch(ctx context.Context, baseID, outcome string, env map[string]any) (any, error)
	// RunBranchPool runs the branch once per env, concurrently. Results keep the order of envs.
	RunBranchPool(ctx context.Context, baseID, outcome string, envs []map[string]any) ([]any, error)
	// RunBlueprintByKey runs the descendants of the blueprint container with the given key.
	RunBlueprintByKey(ctx context.Context, key string, env map[string]any) (any, error)
	// Mail delivers a record to the session layer.
	Mail(ctx context.Context, mail domain.Mail)
	Logger() *slog.Logger
}
