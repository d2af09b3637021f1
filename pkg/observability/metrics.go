package observability

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "loom"

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	BlockRuns     *prometheus.CounterVec
	BlockDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	RunsInFlight  prometheus.Gauge
	RunDuration   prometheus.Histogram

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewMetrics creates the collectors and registers them with a fresh registry.
// A nil logger disables the log lines emitted alongside the metrics.
func NewMetrics(logger *slog.Logger) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsWith(reg, logger)
	if err != nil {
		return nil, err
	}
	m.gatherer = reg
	return m, nil
}

// NewMetricsWith registers the collectors with reg (e.g., prometheus.DefaultRegisterer).
func NewMetricsWith(reg prometheus.Registerer, logger *slog.Logger) (*Metrics, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Metrics{
		BlockRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "block_runs_total",
				Help:      "Total number of block executions",
			},
			[]string{"block_type", "outcome"},
		),
		BlockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "block_duration_seconds",
				Help:      "Duration of block executions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"block_type"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Total number of runner invocations",
			},
			[]string{"status"},
		),
		RunsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "runs_in_flight",
				Help:      "Runner invocations currently running",
			},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of runner invocations",
				Buckets:   prometheus.DefBuckets,
			},
		),
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}

	for _, c := range []prometheus.Collector{m.BlockRuns, m.BlockDuration, m.Runs, m.RunsInFlight, m.RunDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record metrics and log each event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockStart: func(ctx context.Context, e *domain.BlockEvent) {
			m.logger.DebugContext(ctx, "block_start", "run_id", e.RunID, "node_id", e.NodeID, "type", e.BlockType)
		},
		OnBlockFinish: func(ctx context.Context, e *domain.BlockEvent) {
			outcome := e.Outcome
			if outcome == "" {
				outcome = "none"
			}
			m.BlockRuns.WithLabelValues(e.BlockType, outcome).Inc()
			m.BlockDuration.WithLabelValues(e.BlockType).Observe(e.Duration.Seconds())

			if e.Err != nil {
				m.logger.WarnContext(ctx, "block_finish",
					"run_id", e.RunID, "node_id", e.NodeID, "type", e.BlockType,
					"outcome", e.Outcome, "error", e.Err)
				return
			}
			m.logger.InfoContext(ctx, "block_finish",
				"run_id", e.RunID, "node_id", e.NodeID, "type", e.BlockType,
				"outcome", e.Outcome, "duration", e.Duration)
		},
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsInFlight.Inc()
			m.logger.DebugContext(ctx, "run_start", "run_id", e.RunID, "status", e.Status)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsInFlight.Dec()
			m.Runs.WithLabelValues(string(e.Status)).Inc()
			m.RunDuration.Observe(e.Duration.Seconds())
			m.logger.InfoContext(ctx, "run_finish",
				"run_id", e.RunID, "status", e.Status, "executed", e.Executed, "duration", e.Duration)
		},
	}
}

// Combine chains several hook sets; each callback runs in argument order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnBlockStart != nil {
			prev := out.OnBlockStart
			out.OnBlockStart = func(ctx context.Context, e *domain.BlockEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnBlockStart(ctx, e)
			}
		}
		if h.OnBlockFinish != nil {
			prev := out.OnBlockFinish
			out.OnBlockFinish = func(ctx context.Context, e *domain.BlockEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnBlockFinish(ctx, e)
			}
		}
		if h.OnRunStart != nil {
			prev := out.OnRunStart
			out.OnRunStart = func(ctx context.Context, e *domain.RunEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnRunStart(ctx, e)
			}
		}
		if h.OnRunFinish != nil {
			prev := out.OnRunFinish
			out.OnRunFinish = func(ctx context.Context, e *domain.RunEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnRunFinish(ctx, e)
			}
		}
	}
	return out
}
