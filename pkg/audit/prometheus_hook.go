package audit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustlens/trustlens/pkg/duration"
)

// Compile-time interface check.
var _ Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes audit metrics for Prometheus scraping:
// counters for modules run/failed and findings, gauges for the latest
// composite score and audit duration.
type PrometheusHook struct {
	registry *prometheus.Registry
	server   *http.Server

	modulesTotal   *prometheus.CounterVec
	findingsTotal  *prometheus.CounterVec
	auditsTotal    *prometheus.CounterVec
	compositeScore *prometheus.GaugeVec
	auditSeconds   *prometheus.GaugeVec
}

// PrometheusOptions configures the metrics hook.
type PrometheusOptions struct {
	// Port for the metrics server. 0 disables the embedded server;
	// metrics are still collected and reachable via Handler().
	Port int

	// Path for the metrics endpoint (default: "/metrics").
	Path string
}

// NewPrometheusHook registers the audit metrics on a private registry
// and, when a port is given, starts the scrape endpoint.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Path == "" {
		opts.Path = "/metrics"
	}

	h := &PrometheusHook{registry: prometheus.NewRegistry()}

	h.modulesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustlens_modules_total",
		Help: "Analysis modules executed, by tier and outcome",
	}, []string{"tier", "outcome"})

	h.findingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustlens_findings_total",
		Help: "Findings produced per pipeline stage",
	}, []string{"stage"})

	h.auditsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustlens_audits_total",
		Help: "Completed audits by execution mode",
	}, []string{"mode"})

	h.compositeScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trustlens_composite_score",
		Help: "Composite trust score of the most recent audit per target",
	}, []string{"target"})

	h.auditSeconds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trustlens_audit_duration_seconds",
		Help: "Wall-clock duration of the most recent audit per target",
	}, []string{"target"})

	for _, c := range []prometheus.Collector{
		h.modulesTotal, h.findingsTotal, h.auditsTotal, h.compositeScore, h.auditSeconds,
	} {
		if err := h.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	if opts.Port > 0 {
		mux := http.NewServeMux()
		mux.Handle(opts.Path, h.Handler())
		h.server = &http.Server{
			Addr:         fmt.Sprintf(":%d", opts.Port),
			Handler:      mux,
			ReadTimeout:  duration.MetricsRead,
			WriteTimeout: duration.MetricsWrite,
		}
		go func() {
			if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				// Metrics endpoint failure must not affect audits.
				_ = err
			}
		}()
	}
	return h, nil
}

// Handler serves the hook's private registry, for embedding in an
// existing mux or for tests.
func (h *PrometheusHook) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// Registry exposes the private registry for assertions in tests.
func (h *PrometheusHook) Registry() *prometheus.Registry { return h.registry }

func (h *PrometheusHook) EventTypes() []EventType {
	return []EventType{EventModuleDone, EventStageComplete, EventFinished}
}

func (h *PrometheusHook) OnEvent(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventModuleDone:
		outcome := "ok"
		if ev.Failed {
			outcome = "failed"
		}
		h.modulesTotal.WithLabelValues(ev.Tier, outcome).Inc()
	case EventStageComplete:
		h.findingsTotal.WithLabelValues(ev.Stage).Add(float64(ev.Findings))
	case EventFinished:
		h.auditsTotal.WithLabelValues(ev.Mode).Inc()
		h.compositeScore.WithLabelValues(ev.Target).Set(ev.Score)
		h.auditSeconds.WithLabelValues(ev.Target).Set(float64(ev.DurationMs) / 1000)
	}
	return nil
}

// Close shuts the scrape endpoint down if one was started.
func (h *PrometheusHook) Close() error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}
