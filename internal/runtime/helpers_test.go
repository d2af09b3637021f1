package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/loom/internal/runtime"
	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/expr"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/aretw0/loom/pkg/state"
	"github.com/stretchr/testify/require"
)

// recorder counts block executions.
type recorder struct {
	mu    sync.Mutex
	runs  map[string]int
	order []string
	mails []domain.Mail
}

func newRecorder() *recorder {
	return &recorder{runs: make(map[string]int)}
}

func (r *recorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[id]++
	r.order = append(r.order, id)
}

func (r *recorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

func (r *recorder) Mail(ctx context.Context, mail domain.Mail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mails = append(r.mails, mail)
	return nil
}

func (r *recorder) runLogs() []domain.RunLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RunLog
	for _, m := range r.mails {
		if rl, ok := m.Payload.(domain.RunLog); ok {
			out = append(out, rl)
		}
	}
	return out
}

var _ ports.Mailer = (*recorder)(nil)

// testRegistry holds the built-ins plus:
//   - emit: result = value, outcome = outcome (default success)
//   - fail: outcome = outcome (default unset), returns an error
//   - boom: panics
func testRegistry(rec *recorder) *blocks.Registry {
	reg := blocks.NewRegistry()
	blocks.RegisterBuiltins(reg)

	reg.Register("emit", blocks.Func(func(ctx context.Context, inst *blocks.Instance) error {
		rec.record(inst.Node.ID)
		outcome, err := inst.GetString(ctx, "outcome", false, domain.OutcomeSuccess)
		if err != nil {
			return err
		}
		value, err := inst.GetField(ctx, "value", false, nil, false)
		if err != nil {
			return err
		}
		inst.Result = value
		inst.Outcome = outcome
		return nil
	}), blocks.Metadata{})

	reg.Register("fail", blocks.Func(func(ctx context.Context, inst *blocks.Instance) error {
		rec.record(inst.Node.ID)
		outcome, _ := inst.GetString(ctx, "outcome", false, "")
		inst.Outcome = outcome
		return errors.New("boom")
	}), blocks.Metadata{})

	reg.Register("boom", blocks.Func(func(ctx context.Context, inst *blocks.Instance) error {
		rec.record(inst.Node.ID)
		panic("kaboom")
	}), blocks.Metadata{})

	return reg
}

func node(id, typ string, content map[string]string, out ...domain.Edge) domain.Node {
	return domain.Node{ID: id, Type: typ, Content: content, Out: out}
}

func to(outcome, target string) domain.Edge {
	return domain.Edge{Outcome: outcome, Target: target}
}

// blueprint places children under a container keyed key.
func blueprint(key string, children ...domain.Node) []domain.Node {
	id := "bp_" + key
	nodes := []domain.Node{node(id, domain.NodeTypeBlueprint, map[string]string{domain.KeyBlueprintKey: key})}
	for _, c := range children {
		c.Parent = id
		nodes = append(nodes, c)
	}
	return nodes
}

type fixture struct {
	runner *runtime.Runner
	rec    *recorder
	store  *state.Store
}

func newFixture(t *testing.T, initial map[string]any, nodes []domain.Node, opts ...runtime.Option) *fixture {
	t.Helper()
	g, err := graph.New(nodes...)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	rec := newRecorder()
	store := state.NewStore(initial)
	opts = append([]runtime.Option{
		runtime.WithRegistry(testRegistry(rec)),
		runtime.WithMailer(rec),
	}, opts...)
	return &fixture{
		runner: runtime.New(g, expr.New(store), opts...),
		rec:    rec,
		store:  store,
	}
}

func (f *fixture) run(key string, payload any) (any, error) {
	return f.runner.RunBlueprintByKey(context.Background(), key, map[string]any{domain.EnvPayload: payload})
}
