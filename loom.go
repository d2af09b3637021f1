package loom

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/loom/internal/runtime"
	"github.com/aretw0/loom/internal/validator"
	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/expr"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/aretw0/loom/pkg/state"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the loom library.
// It owns the shared state of a graph and runs its blueprints.
type Engine struct {
	runner    *runtime.Runner
	graph     *graph.Graph
	store     *state.Store
	evaluator *expr.Evaluator

	registry     *blocks.Registry
	mailer       ports.Mailer
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	runLogs      bool
	poolSize     int
	initialState map[string]any
	baseEnv      map[string]any
	envLookup    func(string) (string, bool)
	strict       bool
	Name         string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry sets the block registry (default: blocks.Default).
func WithRegistry(reg *blocks.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithMailer sets where run logs and block messages go.
func WithMailer(m ports.Mailer) Option {
	return func(e *Engine) {
		e.mailer = m
	}
}

// WithRunLogs emits one run log mail per invocation.
func WithRunLogs(enabled bool) Option {
	return func(e *Engine) {
		e.runLogs = enabled
	}
}

// WithPoolSize bounds the concurrency of fan-out blocks.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		e.poolSize = n
	}
}

// WithInitialState seeds the shared state.
func WithInitialState(initial map[string]any) Option {
	return func(e *Engine) {
		e.initialState = initial
	}
}

// WithBaseEnvironment sets variables visible to every blueprint run.
func WithBaseEnvironment(env map[string]any) Option {
	return func(e *Engine) {
		e.baseEnv = env
	}
}

// WithEnvLookup replaces os.LookupEnv for '$VAR' expressions.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(e *Engine) {
		e.envLookup = fn
	}
}

// WithStrictValidation makes New reject graphs whose nodes do not match the registry.
func WithStrictValidation() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithName labels the engine; the logger is enriched with it.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an Engine over g.
func New(g *graph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}
	eng := &Engine{graph: g}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = blocks.Default
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if eng.strict {
		if err := validator.ValidateGraph(g, eng.registry); err != nil {
			return nil, fmt.Errorf("invalid graph: %w", err)
		}
	}

	eng.store = state.NewStore(eng.initialState)
	evalOpts := []expr.Option{expr.WithLogger(eng.logger)}
	if eng.envLookup != nil {
		evalOpts = append(evalOpts, expr.WithEnvLookup(eng.envLookup))
	}
	eng.evaluator = expr.New(eng.store, evalOpts...)

	eng.runner = runtime.New(g, eng.evaluator,
		runtime.WithLogger(eng.logger),
		runtime.WithRegistry(eng.registry),
		runtime.WithMailer(eng.mailer),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithRunLogs(eng.runLogs),
		runtime.WithPoolSize(eng.poolSize),
		runtime.WithBaseEnvironment(eng.baseEnv),
	)
	return eng, nil
}

// Load reads the graph through loader and initializes an Engine over it.
func Load(ctx context.Context, loader ports.GraphLoader, opts ...Option) (*Engine, error) {
	nodes, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	g, err := graph.New(nodes...)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return New(g, opts...)
}

// RunBlueprint runs the blueprint registered under key with payload.
// The result carries the return value and the state keys written by this run.
func (e *Engine) RunBlueprint(ctx context.Context, key string, payload any) (*domain.RunResult, error) {
	id := uuid.NewString()
	ctx, changes := state.WithChangeSet(ctx)
	value, err := e.runner.RunBlueprintByKey(ctx, key, map[string]any{
		domain.EnvPayload: payload,
		domain.EnvRunID:   id,
	})
	if err != nil {
		return nil, err
	}
	return &domain.RunResult{RunID: id, Value: value, Changes: changes.Collect(e.store)}, nil
}

// Run runs a blueprint with a caller-built environment and returns its return value.
func (e *Engine) Run(ctx context.Context, key string, env map[string]any) (any, error) {
	return e.runner.RunBlueprintByKey(ctx, key, env)
}

// Blueprints lists the runnable blueprints, sorted by key.
func (e *Engine) Blueprints() []domain.BlueprintInfo {
	return e.runner.Blueprints()
}

// Validate cross-checks the graph against the block registry.
func (e *Engine) Validate() error {
	return validator.ValidateGraph(e.graph, e.registry)
}

// State returns the shared state store.
func (e *Engine) State() *state.Store {
	return e.store
}

// Graph returns the graph definition for visualization or introspection tools.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Registry returns the block registry used by the engine.
func (e *Engine) Registry() *blocks.Registry {
	return e.registry
}

// Evaluate evaluates an expression against the engine state, for introspection tools.
func (e *Engine) Evaluate(ctx context.Context, expression string) any {
	return e.evaluator.EvaluateExpression(ctx, expression, nil)
}

var _ ports.BlueprintRunner = (*Engine)(nil)
