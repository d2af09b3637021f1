package runtime

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/expr"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/aretw0/loom/pkg/ports"
)

// DefaultPoolSize bounds the concurrency of RunBranchPool.
const DefaultPoolSize = 8

// Runner executes blueprints and branches of a graph.
// It is safe for concurrent use; every call is an independent invocation with its own cache.
type Runner struct {
	graph     *graph.Graph
	evaluator *expr.Evaluator
	registry  *blocks.Registry
	mailer    ports.Mailer
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	runLogs   bool
	poolSize  int
	baseEnv   map[string]any
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistry sets the block registry (default: blocks.Default).
func WithRegistry(reg *blocks.Registry) Option {
	return func(r *Runner) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithMailer sets where run logs and block messages are delivered.
func WithMailer(m ports.Mailer) Option {
	return func(r *Runner) {
		r.mailer = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithRunLogs enables one run log mail per invocation.
func WithRunLogs(enabled bool) Option {
	return func(r *Runner) {
		r.runLogs = enabled
	}
}

// WithPoolSize sets the maximum number of concurrent branch pool items.
func WithPoolSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.poolSize = n
		}
	}
}

// WithBaseEnvironment sets variables visible to every blueprint run.
func WithBaseEnvironment(env map[string]any) Option {
	return func(r *Runner) {
		r.baseEnv = env
	}
}

// New creates a runner over g. Fields are evaluated by evaluator, whose store is the engine state.
func New(g *graph.Graph, evaluator *expr.Evaluator, opts ...Option) *Runner {
	r := &Runner{
		graph:     g,
		evaluator: evaluator,
		registry:  blocks.Default,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		poolSize:  DefaultPoolSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Graph returns the graph the runner executes.
func (r *Runner) Graph() *graph.Graph {
	return r.graph
}

// Logger implements blocks.Host.
func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

// Mail implements blocks.Host. Without a mailer, records go to the logger.
func (r *Runner) Mail(ctx context.Context, mail domain.Mail) {
	if r.mailer == nil {
		r.logger.InfoContext(ctx, mail.Message, "mail_kind", mail.Kind, "title", mail.Title)
		return
	}
	if err := r.mailer.Mail(ctx, mail); err != nil {
		r.logger.WarnContext(ctx, "mail delivery failed", "title", mail.Title, "error", err)
	}
}

// RunBlueprintByKey runs the descendants of the unique blueprint container whose key matches.
// env is merged over the base environment.
func (r *Runner) RunBlueprintByKey(ctx context.Context, key string, env map[string]any) (any, error) {
	h, err := r.graph.FindContainer(domain.NodeTypeBlueprint, key)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(r.baseEnv)+len(env))
	for k, v := range r.baseEnv {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}

	return r.runNodes(ctx, r.graph.Descendants(r.graph.Node(h).ID), merged)
}

// RunWorkflowByKey is an alias of RunBlueprintByKey.
func (r *Runner) RunWorkflowByKey(ctx context.Context, key string, env map[string]any) (any, error) {
	return r.RunBlueprintByKey(ctx, key, env)
}

// RunBranch runs the sub-graph reachable from baseID through edges labelled outcome.
func (r *Runner) RunBranch(ctx context.Context, baseID, outcome string, env map[string]any) (any, error) {
	h, err := r.graph.Handle(baseID)
	if err != nil {
		return nil, err
	}
	return r.runNodes(ctx, r.graph.Branch(h, outcome), env)
}

// Blueprints lists the blueprint containers of the graph, sorted by key.
func (r *Runner) Blueprints() []domain.BlueprintInfo {
	handles := r.graph.Containers(domain.NodeTypeBlueprint)
	out := make([]domain.BlueprintInfo, 0, len(handles))
	for _, h := range handles {
		n := r.graph.Node(h)
		out = append(out, domain.BlueprintInfo{
			Key:         n.Content[domain.KeyBlueprintKey],
			Description: n.Content[domain.KeyDescription],
			NodeID:      n.ID,
		})
	}
	sortBlueprints(out)
	return out
}
