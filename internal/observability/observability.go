// Package observability implements the gateway's request tracing and
// metrics surface: one OpenTelemetry span per HTTP request, Prometheus
// counters and histograms keyed by route, and the aggregate snapshot
// GET /health reports. StartRuntimeSpan and RecordRuntimeInvocation are
// available for a Claude runtime invocation; the Completion Service does not
// call them.
package observability

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans in any exporter configured
// downstream of the process-wide TracerProvider.
const tracerName = "claudegateway/openai-bridge"

// Hooks is the Observability Hooks component: it owns the process's
// Prometheus registry and TracerProvider, and exposes the few operations
// the rest of the gateway calls on the hot path.
type Hooks struct {
	registry *prometheus.Registry
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runtimeDuration *prometheus.HistogramVec
	sessionCount    prometheus.Gauge

	startedAt      time.Time
	claudeBinary   atomic.Bool
	activeSessions atomic.Int64
}

// HealthSnapshot backs GET /health: status is always present, the rest
// expands spec.md's bare {status} shape with fields useful to an operator.
type HealthSnapshot struct {
	Status          string  `json:"status"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	ActiveSessions  int64   `json:"active_sessions"`
	ClaudeAvailable bool    `json:"claude_available"`
}

// New builds a Hooks with its own Prometheus registry (never the global
// default, so tests can construct multiple Hooks without a "duplicate
// metrics collector registration" panic) and an in-process TracerProvider.
// No OTLP exporter is wired — spans are still sampled and correlated by
// trace/span id for log correlation even with nothing consuming them
// downstream, exactly as they would be once an exporter is added.
func New() *Hooks {
	registry := prometheus.NewRegistry()

	h := &Hooks{
		registry:  registry,
		startedAt: time.Now(),
		requestsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total HTTP requests handled by the gateway, by route and status.",
		}, []string{"route", "status"}),
		requestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		runtimeDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_claude_runtime_duration_seconds",
			Help:    "Duration of a single Claude runtime invocation in seconds, by outcome.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		sessionCount: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "gateway_active_sessions",
			Help: "Number of sessions currently tracked by the session store.",
		}),
	}

	h.provider = sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(h.provider)
	h.tracer = h.provider.Tracer(tracerName)

	return h
}

// RecordRequest records one completed HTTP request's route, status, and
// duration into the Prometheus counters/histograms.
func (h *Hooks) RecordRequest(route, status string, duration time.Duration) {
	h.requestsTotal.WithLabelValues(route, status).Inc()
	h.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRuntimeInvocation records one Claude runtime call's outcome
// ("success", "timeout", "upstream_error", ...) and wall-clock duration.
func (h *Hooks) RecordRuntimeInvocation(outcome string, duration time.Duration) {
	h.runtimeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordSessionCount updates the gauge backing HealthSnapshot.ActiveSessions.
func (h *Hooks) RecordSessionCount(n int) {
	h.activeSessions.Store(int64(n))
	h.sessionCount.Set(float64(n))
}

// RecordClaudeAvailability updates the flag backing
// HealthSnapshot.ClaudeAvailable. cmd/gateway sets it once at startup from
// the Claude client's Verify result; an Auth Resolver refresh does not
// update it.
func (h *Hooks) RecordClaudeAvailability(available bool) {
	h.claudeBinary.Store(available)
}

// Snapshot builds the current HealthSnapshot.
func (h *Hooks) Snapshot() HealthSnapshot {
	return HealthSnapshot{
		Status:          "ok",
		UptimeSeconds:   time.Since(h.startedAt).Seconds(),
		ActiveSessions:  h.activeSessions.Load(),
		ClaudeAvailable: h.claudeBinary.Load(),
	}
}

// MetricsHandler exposes the registry in the Prometheus exposition format
// for a GET /metrics route.
func (h *Hooks) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// StartRequestSpan opens the root span for one HTTP request.
func (h *Hooks) StartRequestSpan(ctx context.Context, route string) (context.Context, trace.Span) {
	return h.tracer.Start(ctx, "http."+route)
}

// StartRuntimeSpan opens a child span around one Claude runtime invocation.
func (h *Hooks) StartRuntimeSpan(ctx context.Context) (context.Context, trace.Span) {
	return h.tracer.Start(ctx, "claude.run_completion")
}

// EndSpan records err (if any) on span and closes it. A nil err ends the
// span with an OK status; a non-nil err marks it as failed, per the
// OpenTelemetry convention for span status on error.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes the TracerProvider. Safe to call on a nil Hooks.
func (h *Hooks) Shutdown(ctx context.Context) error {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.Shutdown(ctx)
}
