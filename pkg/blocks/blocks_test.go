package blocks_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/expr"
	"github.com/aretw0/loom/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mails    []domain.Mail
	envs     []map[string]any
	poolErr  error
	called   string
	response any
}

func (h *fakeHost) RunBranch(ctx context.Context, baseID, outcome string, env map[string]any) (any, error) {
	h.envs = append(h.envs, env)
	return env["item"], nil
}

func (h *fakeHost) RunBranchPool(ctx context.Context, baseID, outcome string, envs []map[string]any) ([]any, error) {
	if h.poolErr != nil {
		return nil, h.poolErr
	}
	out := make([]any, len(envs))
	for i, env := range envs {
		v, _ := h.RunBranch(ctx, baseID, outcome, env)
		out[i] = v
	}
	return out, nil
}

func (h *fakeHost) RunBlueprintByKey(ctx context.Context, key string, env map[string]any) (any, error) {
	h.called = key
	h.envs = append(h.envs, env)
	if key == "missing" {
		return nil, domain.ErrBlueprintNotFound
	}
	return h.response, nil
}

func (h *fakeHost) Mail(ctx context.Context, mail domain.Mail) {
	h.mails = append(h.mails, mail)
}

func (h *fakeHost) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	store *state.Store
	host  *fakeHost
	reg   *blocks.Registry
}

func newHarness(initial map[string]any) *harness {
	reg := blocks.NewRegistry()
	blocks.RegisterBuiltins(reg)
	return &harness{store: state.NewStore(initial), host: &fakeHost{}, reg: reg}
}

func (h *harness) run(t *testing.T, blockType string, content map[string]string, env map[string]any) (*blocks.Instance, error) {
	t.Helper()
	node := &domain.Node{ID: "n1", Type: blockType, Content: content}
	node.Compile()
	reg, err := h.reg.Lookup(blockType)
	require.NoError(t, err)
	inst := blocks.NewInstance(node, h.host, env, expr.New(h.store))
	return inst, reg.New(inst).Run(context.Background())
}

func TestRegistry(t *testing.T) {
	reg := blocks.NewRegistry()
	_, err := reg.Lookup("nope")
	assert.ErrorIs(t, err, domain.ErrBlockTypeNotFound)
	assert.True(t, domain.IsStructural(err))

	reg.Register("noop", blocks.Func(func(ctx context.Context, inst *blocks.Instance) error {
		inst.Succeed(nil)
		return nil
	}), blocks.Metadata{Description: "does nothing"})
	assert.True(t, reg.Has("noop"))
	assert.Equal(t, []string{"noop"}, reg.Types())
	assert.Equal(t, "noop", reg.Catalog()["noop"].Name)

	clone := reg.Clone()
	clone.Register("other", nil, blocks.Metadata{})
	assert.False(t, reg.Has("other"))

	assert.True(t, blocks.Default.Has(blocks.TypeSetState))
	assert.True(t, blocks.Default.Has(blocks.TypeHTTPRequest))
}

func TestInstance_GetField(t *testing.T) {
	h := newHarness(map[string]any{"name": "Ada"})
	node := &domain.Node{ID: "n1", Type: "x", Content: map[string]string{
		"greeting": "hi @{name}",
		"empty":    "@{nothing_here}",
		"config":   `{"retries": 3, "tags": ["a"]}`,
	}}
	node.Compile()
	inst := blocks.NewInstance(node, h.host, nil, expr.New(h.store))
	ctx := context.Background()

	s, err := inst.GetString(ctx, "greeting", true, "")
	require.NoError(t, err)
	assert.Equal(t, "hi Ada", s)

	_, err = inst.GetField(ctx, "empty", true, nil, false)
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "empty", cfgErr.Field)

	var cfg struct {
		Retries int
		Tags    []string
	}
	require.NoError(t, inst.DecodeField(ctx, "config", &cfg))
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, []string{"a"}, cfg.Tags)
}

func TestNewInstance_CopiesEnv(t *testing.T) {
	env := map[string]any{"a": 1}
	node := &domain.Node{ID: "n1"}
	inst := blocks.NewInstance(node, &fakeHost{}, env, nil)
	inst.Env["a"] = 2
	assert.Equal(t, 1, env["a"])
}

func TestSetState(t *testing.T) {
	h := newHarness(map[string]any{"order": map[string]any{}})

	inst, err := h.run(t, blocks.TypeSetState, map[string]string{
		"element":    "order.lines",
		"value":      `[{"sku": "A"}]`,
		"value_type": "JSON",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, inst.Outcome)
	got, err := h.store.Get("order.lines[0].sku")
	require.NoError(t, err)
	assert.Equal(t, "A", got)

	inst, err = h.run(t, blocks.TypeSetState, map[string]string{
		"element": "ghost.field",
		"value":   "x",
	}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsStructural(err))
	assert.Equal(t, domain.OutcomeError, inst.Outcome)
}

func TestAddToStateList(t *testing.T) {
	h := newHarness(map[string]any{"cart": map[string]any{}})

	for _, v := range []string{"a", "b"} {
		inst, err := h.run(t, blocks.TypeAddToStateList, map[string]string{
			"element": "cart.items",
			"value":   "@{item}",
		}, map[string]any{"item": v})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSuccess, inst.Outcome)
	}
	got, err := h.store.Get("cart.items")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)

	require.NoError(t, h.store.Set("cart.total", 3))
	_, err = h.run(t, blocks.TypeAddToStateList, map[string]string{"element": "cart.total", "value": "x"}, nil)
	assert.Error(t, err)
}

func TestReturnValue(t *testing.T) {
	h := newHarness(nil)
	inst, err := h.run(t, blocks.TypeReturnValue, map[string]string{"value": "@{payload.id}"},
		map[string]any{"payload": map[string]any{"id": "x-1"}})
	require.NoError(t, err)
	assert.Equal(t, "x-1", inst.ReturnValue)
	assert.Equal(t, "x-1", inst.Result)

	inst, err = h.run(t, blocks.TypeReturnValue, map[string]string{}, nil)
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, domain.OutcomeError, inst.Outcome)
	assert.Nil(t, inst.ReturnValue)
}

func TestParseJSON(t *testing.T) {
	h := newHarness(nil)
	inst, err := h.run(t, blocks.TypeParseJSON, map[string]string{"plain_text": `{"ok": true}`}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, inst.Result)

	inst, err = h.run(t, blocks.TypeParseJSON, map[string]string{"plain_text": `{bad`}, nil)
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeError, inst.Outcome)
	assert.Contains(t, inst.Result, "parse json")
}

func TestAPITrigger(t *testing.T) {
	h := newHarness(nil)
	inst, err := h.run(t, blocks.TypeAPITrigger, nil, map[string]any{"payload": map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, blocks.OutcomeTrigger, inst.Outcome)
	assert.Equal(t, map[string]any{"a": 1}, inst.Result)

	inst, err = h.run(t, blocks.TypeAPITrigger, map[string]string{"default_result": `{"b": 2}`}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": float64(2)}, inst.Result)
}

func TestAPITrigger_Schema(t *testing.T) {
	h := newHarness(nil)
	content := map[string]string{"schema": `{"name": "string", "qty": "int", "tags": "[string]?"}`}

	inst, err := h.run(t, blocks.TypeAPITrigger, content, map[string]any{"payload": map[string]any{"name": "tea", "qty": 2.0}})
	require.NoError(t, err)
	assert.Equal(t, blocks.OutcomeTrigger, inst.Outcome)

	inst, err = h.run(t, blocks.TypeAPITrigger, content, map[string]any{"payload": map[string]any{"qty": 2.5}})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeError, inst.Outcome)
	assert.Contains(t, err.Error(), "invalid payload")
	assert.Contains(t, err.Error(), `field "name": required`)

	_, err = h.run(t, blocks.TypeAPITrigger, content, map[string]any{"payload": "text"})
	assert.ErrorContains(t, err, "expected object")

	_, err = h.run(t, blocks.TypeAPITrigger, map[string]string{"schema": `{"qty": "decimal"}`}, map[string]any{"payload": map[string]any{}})
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "schema", cfgErr.Field)
}

func TestCondition(t *testing.T) {
	h := newHarness(map[string]any{"total": float64(120)})
	tests := []struct {
		expression string
		want       string
	}{
		{"total > 100", blocks.OutcomeTrue},
		{"@{total < 100}", blocks.OutcomeFalse},
		{"1 / 0", blocks.OutcomeFalse},
		{"'yes'", blocks.OutcomeTrue},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			inst, err := h.run(t, blocks.TypeCondition, map[string]string{"expression": tt.expression}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inst.Outcome)
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, blocks.Truthy(nil))
	assert.False(t, blocks.Truthy("false"))
	assert.False(t, blocks.Truthy(int64(0)))
	assert.False(t, blocks.Truthy([]any{}))
	assert.True(t, blocks.Truthy("text"))
	assert.True(t, blocks.Truthy(float64(0.5)))
	assert.True(t, blocks.Truthy(map[string]any{"a": 1}))
}

func TestForEach(t *testing.T) {
	h := newHarness(map[string]any{"orders": []any{"o1", "o2", "o3"}})
	inst, err := h.run(t, blocks.TypeForEach, map[string]string{"items": "@{orders}", "prefix": "order"},
		map[string]any{"payload": "p"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, inst.Outcome)
	assert.Equal(t, []any{"o1", "o2", "o3"}, inst.Result)

	require.Len(t, h.host.envs, 3)
	assert.Equal(t, 1, h.host.envs[1]["itemId"])
	assert.Equal(t, "o2", h.host.envs[1]["order_item"])
	assert.Equal(t, "p", h.host.envs[1]["payload"])

	h = newHarness(map[string]any{"byName": map[string]any{"b": float64(2), "a": float64(1)}})
	inst, err = h.run(t, blocks.TypeForEach, map[string]string{"items": "@{byName}"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, inst.Result)
	assert.Equal(t, "a", h.host.envs[0]["itemId"])

	h = newHarness(map[string]any{"orders": []any{"o1"}})
	h.host.poolErr = errors.New("item failed")
	inst, err = h.run(t, blocks.TypeForEach, map[string]string{"items": "@{orders}"}, nil)
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeError, inst.Outcome)
}

func TestRunBlueprint(t *testing.T) {
	h := newHarness(nil)
	h.host.response = "done"
	inst, err := h.run(t, blocks.TypeRunBlueprint, map[string]string{
		"blueprint_key": "billing",
		"payload":       `{"amount": 5}`,
	}, map[string]any{domain.EnvRunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "billing", h.host.called)
	assert.Equal(t, map[string]any{"amount": float64(5)}, h.host.envs[0]["payload"])
	assert.Equal(t, "run-1", h.host.envs[0][domain.EnvRunID])
	assert.Equal(t, "done", inst.Result)

	_, err = h.run(t, blocks.TypeRunBlueprint, map[string]string{"blueprint_key": "missing"}, nil)
	assert.ErrorIs(t, err, domain.ErrBlueprintNotFound)
}

func TestLogMessage(t *testing.T) {
	h := newHarness(map[string]any{"user": "Ada"})
	inst, err := h.run(t, blocks.TypeLogMessage, map[string]string{
		"type":    "error",
		"message": "failed for @{user}",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, inst.Outcome)
	require.Len(t, h.host.mails, 1)
	assert.Equal(t, domain.MailError, h.host.mails[0].Kind)
	assert.Equal(t, "failed for Ada", h.host.mails[0].Message)
}

func TestHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "t-1", r.Header.Get("X-Token"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": 7}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	h := newHarness(map[string]any{"order": map[string]any{"sku": "A"}})
	h.reg.Register(blocks.TypeHTTPRequest, blocks.NewHTTPRequest(srv.Client()), blocks.Metadata{})

	inst, err := h.run(t, blocks.TypeHTTPRequest, map[string]string{
		"method":  "post",
		"url":     srv.URL + "/ok",
		"headers": `{"X-Token": "t-1"}`,
		"body":    "@{order}",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, inst.Outcome)
	result := inst.Result.(map[string]any)
	assert.Equal(t, http.StatusOK, result["status"])
	assert.Equal(t, map[string]any{"id": float64(7)}, result["body"])

	inst, err = h.run(t, blocks.TypeHTTPRequest, map[string]string{"url": srv.URL + "/missing"}, nil)
	require.Error(t, err)
	assert.Equal(t, blocks.OutcomeResponseError, inst.Outcome)
	assert.Equal(t, http.StatusNotFound, inst.Result.(map[string]any)["status"])

	inst, err = h.run(t, blocks.TypeHTTPRequest, map[string]string{"url": "http://127.0.0.1:1/unreachable"}, nil)
	require.Error(t, err)
	assert.Equal(t, blocks.OutcomeConnectionError, inst.Outcome)
}
