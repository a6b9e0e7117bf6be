package sardedge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Responder outcomes.
const (
	OutcomePassthrough  = "passthrough"
	OutcomeCacheHit     = "cache_hit"
	OutcomeRendered     = "rendered"
	OutcomeRenderFailed = "render_failed"
)

// Passthrough reasons.
const (
	reasonMethod    = "method"
	reasonPath      = "path"
	reasonUserAgent = "user_agent"
	reasonNone      = ""
)

// Metrics holds the Prometheus collectors of a responder.
type Metrics struct {
	// Requests counts requests by outcome and passthrough reason.
	Requests *prometheus.CounterVec

	// APILatency measures metadata fetches against the origin API.
	APILatency *prometheus.HistogramVec
}

// NewMetrics creates the responder collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sard_edge_requests_total",
				Help: "Total number of requests handled by the edge responder",
			},
			[]string{"outcome", "reason"},
		),
		APILatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sard_edge_api_latency_seconds",
				Help:    "Latency of novel metadata fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.APILatency)
	}

	return m
}

func (m *Metrics) observe(outcome, reason string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) observeFetch(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.APILatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
