package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, err := NewMetrics(logger)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()
	hooks.OnRunStart(ctx, &domain.RunEvent{Status: domain.RunRunning})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInFlight))
	hooks.OnBlockStart(ctx, &domain.BlockEvent{NodeID: "a", BlockType: "setstate"})
	hooks.OnBlockFinish(ctx, &domain.BlockEvent{NodeID: "a", BlockType: "setstate", Outcome: "success", Duration: 10 * time.Millisecond})
	hooks.OnBlockFinish(ctx, &domain.BlockEvent{NodeID: "b", BlockType: "setstate", Err: errors.New("bad")})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Status: domain.RunSucceeded, Executed: 2, Duration: time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlockRuns.WithLabelValues("setstate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlockRuns.WithLabelValues("setstate", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("succeeded")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsInFlight))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BlockDuration))

	out := buf.String()
	assert.Contains(t, out, `"msg":"block_start"`)
	assert.Contains(t, out, `"msg":"run_finish"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestMetrics_Handler(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.Hooks().OnRunStart(context.Background(), &domain.RunEvent{Status: domain.RunRunning})
	m.Hooks().OnRunFinish(context.Background(), &domain.RunEvent{Status: domain.RunFailed})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), `loom_runs_total{status="failed"} 1`)
}

func TestNewMetricsWith_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsWith(reg, nil)
	require.NoError(t, err)
	_, err = NewMetricsWith(reg, nil)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{OnRunFinish: func(context.Context, *domain.RunEvent) { order = append(order, "first") }}
	second := domain.LifecycleHooks{
		OnRunFinish:  func(context.Context, *domain.RunEvent) { order = append(order, "second") },
		OnBlockStart: func(context.Context, *domain.BlockEvent) { order = append(order, "start") },
		OnRunStart:   func(context.Context, *domain.RunEvent) { order = append(order, "run") },
	}

	hooks := Combine(first, domain.LifecycleHooks{}, second)
	hooks.OnRunFinish(context.Background(), &domain.RunEvent{})
	hooks.OnBlockStart(context.Background(), &domain.BlockEvent{})
	hooks.OnRunStart(context.Background(), &domain.RunEvent{})

	assert.Equal(t, []string{"first", "second", "start", "run"}, order)
	assert.Nil(t, hooks.OnBlockFinish)
}
