package blocks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/expr"
	"github.com/mitchellh/mapstructure"
)

// Instance is one execution of a node within one invocation.
type Instance struct {
	Node *domain.Node
	// Env is the execution environment, a private copy for this instance.
	Env map[string]any

	Outcome       string
	Result        any
	ReturnValue   any
	ExecutionTime time.Duration

	host      Host
	evaluator *expr.Evaluator
}

// NewInstance creates the instance of node. env is copied.
func NewInstance(node *domain.Node, host Host, env map[string]any, evaluator *expr.Evaluator) *Instance {
	own := make(map[string]any, len(env))
	for k, v := range env {
		own[k] = v
	}
	return &Instance{
		Node:      node,
		Env:       own,
		host:      host,
		evaluator: evaluator,
	}
}

// Host returns the runner that created the instance.
func (i *Instance) Host() Host {
	return i.host
}

// Evaluator returns the expression evaluator bound to the engine state.
func (i *Instance) Evaluator() *expr.Evaluator {
	return i.evaluator
}

// Logger returns the host logger enriched with the node identity.
func (i *Instance) Logger() *slog.Logger {
	return i.host.Logger().With("node_id", i.Node.ID, "block_type", i.Node.Type)
}

// GetField resolves a content field against state ∪ Env.
// A required field that resolves to an empty value yields a *domain.ConfigurationError.
func (i *Instance) GetField(ctx context.Context, key string, required bool, def any, asObject bool) (any, error) {
	v := i.evaluator.EvaluateField(ctx, i.Node, key, def, i.Env, asObject)
	if required && domain.IsEmpty(v) {
		return nil, &domain.ConfigurationError{NodeID: i.Node.ID, Field: key}
	}
	return v, nil
}

// GetString resolves a field and renders it as a string.
func (i *Instance) GetString(ctx context.Context, key string, required bool, def string) (string, error) {
	v, err := i.GetField(ctx, key, required, def, false)
	if err != nil {
		return "", err
	}
	return expr.Stringify(v), nil
}

// DecodeField resolves a field as an object and decodes it into out.
// A missing field leaves out untouched.
func (i *Instance) DecodeField(ctx context.Context, key string, out any) error {
	v, err := i.GetField(ctx, key, false, nil, true)
	if err != nil || v == nil {
		return err
	}
	if err := mapstructure.Decode(v, out); err != nil {
		return fmt.Errorf("field '%s': %w", key, err)
	}
	return nil
}

// SetState assigns value at path; path may contain templates.
func (i *Instance) SetState(ctx context.Context, path string, value any) error {
	return i.evaluator.SetState(ctx, path, value, i.Env)
}

// Succeed records result under the success outcome.
func (i *Instance) Succeed(result any) {
	i.Result = result
	i.Outcome = domain.OutcomeSuccess
}

// Fail sets the error outcome and returns err.
func (i *Instance) Fail(err error) error {
	return i.FailWith(domain.OutcomeError, err)
}

// FailWith sets outcome, stores the fault text as result when none is set, and returns err.
func (i *Instance) FailWith(outcome string, err error) error {
	i.Outcome = outcome
	if domain.IsEmpty(i.Result) {
		i.Result = err.Error()
	}
	return err
}
