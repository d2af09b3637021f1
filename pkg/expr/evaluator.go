package expr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/state"
)

// EnvSigil prefixes expressions that read an environment variable.
const EnvSigil = "$"

// DefaultCostLimit bounds the work a single expression may perform.
const DefaultCostLimit = 1_000_000

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithEnvLookup replaces os.LookupEnv for '$' expressions.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(e *Evaluator) {
		e.lookupEnv = fn
	}
}

// WithCostLimit overrides DefaultCostLimit.
func WithCostLimit(limit uint64) Option {
	return func(e *Evaluator) {
		e.costLimit = limit
	}
}

// Evaluator resolves fields and expressions against a state store.
// Safe for concurrent use.
type Evaluator struct {
	store     *state.Store
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
	costLimit uint64
	cache     *programCache
}

// New creates an evaluator bound to store.
func New(store *state.Store, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:     store,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		lookupEnv: os.LookupEnv,
		costLimit: DefaultCostLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newProgramCache(e.costLimit)
	return e
}

// Store returns the state store the evaluator reads and writes.
func (e *Evaluator) Store() *state.Store {
	return e.store
}

// HasTemplate reports whether text contains a @{...} segment.
func HasTemplate(text string) bool {
	return domain.HasTemplate(text)
}

// EvaluateExpression evaluates a single expression against state ∪ vars.
// Failures are logged and yield nil.
func (e *Evaluator) EvaluateExpression(ctx context.Context, expression string, vars map[string]any) any {
	return e.evaluate(ctx, expression, e.namespace(vars))
}

// EvaluateField resolves the field key of node.
// Literals are returned as-is, templates are evaluated; with asObject, string values are
// decoded as JSON. Missing fields and failures return def.
func (e *Evaluator) EvaluateField(ctx context.Context, node *domain.Node, key string, def any, vars map[string]any, asObject bool) any {
	f, ok := node.Field(key)
	if !ok {
		return def
	}

	var value any = f.Raw
	if f.IsTemplate() {
		value = e.Render(ctx, f.Raw, vars)
		if value == nil {
			return def
		}
	}

	if asObject {
		s, isString := value.(string)
		if !isString {
			return value
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			e.logger.DebugContext(ctx, "field is not valid JSON", "node_id", node.ID, "field", key, "error", err)
			return def
		}
		return decoded
	}
	return value
}

// Render evaluates every @{...} segment of text.
// A text made of exactly one segment yields the raw value; otherwise a string is built.
func (e *Evaluator) Render(ctx context.Context, text string, vars map[string]any) any {
	if !HasTemplate(text) {
		return text
	}
	ns := e.namespace(vars)

	trimmed := strings.TrimSpace(text)
	if loc := domain.TemplatePattern.FindStringSubmatchIndex(trimmed); loc != nil && loc[0] == 0 && loc[1] == len(trimmed) {
		return e.evaluate(ctx, trimmed[loc[2]:loc[3]], ns)
	}

	return domain.TemplatePattern.ReplaceAllStringFunc(text, func(match string) string {
		inner := domain.TemplatePattern.FindStringSubmatch(match)[1]
		return Stringify(e.evaluate(ctx, inner, ns))
	})
}

// SetState assigns value at path. Templates inside path are rendered first.
func (e *Evaluator) SetState(ctx context.Context, path string, value any, vars map[string]any) error {
	return e.store.SetContext(ctx, e.ResolvePath(ctx, path, vars), value)
}

// ResolvePath renders templates inside a state path, e.g. "items[@{idx}]".
func (e *Evaluator) ResolvePath(ctx context.Context, path string, vars map[string]any) string {
	if !HasTemplate(path) {
		return path
	}
	return Stringify(e.Render(ctx, path, vars))
}

func (e *Evaluator) namespace(vars map[string]any) map[string]any {
	ns := e.store.Snapshot()
	for k, v := range vars {
		ns[k] = v
	}
	return ns
}

func (e *Evaluator) evaluate(ctx context.Context, expression string, ns map[string]any) any {
	v, err := e.eval(ctx, strings.TrimSpace(expression), ns)
	if err != nil {
		e.logger.ErrorContext(ctx, "expression evaluation failed", "expression", expression, "error", err)
		return nil
	}
	return v
}

func (e *Evaluator) eval(ctx context.Context, expression string, ns map[string]any) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if strings.HasPrefix(expression, EnvSigil) {
		name := strings.TrimSpace(strings.TrimPrefix(expression, EnvSigil))
		v, ok := e.lookupEnv(name)
		if !ok {
			return nil, fmt.Errorf("environment variable '%s' is not set", name)
		}
		return v, nil
	}

	names := declarable(ns)
	prg, err := e.cache.program(expression, names)
	if err != nil {
		return nil, err
	}

	activation := make(map[string]any, len(names))
	for _, name := range names {
		activation[name] = toCEL(ns[name])
	}
	out, _, err := prg.ContextEval(ctx, activation)
	if err != nil {
		return nil, err
	}
	if f, ok := out.Value().(float64); ok && !isFinite(f) {
		return nil, fmt.Errorf("result %v is not a finite number", f)
	}
	return fromCEL(out), nil
}

// Stringify renders a value for string interpolation.
// Strings are kept verbatim, nil becomes "", everything else is JSON-encoded.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
