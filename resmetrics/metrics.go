// Package resmetrics provides Prometheus instrumentation for a res.Service.
//
// Collectors satisfies the res.Metrics interface without the core res
// package importing Prometheus at all: wire a *Collectors into a Service
// with Service.SetMetrics only when metrics are wanted.
package resmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds the Prometheus vectors a Service reports through.
// The zero value (or a Collectors built with a nil Registerer) is safe to
// call and simply does not record anything.
type Collectors struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queueDepth      prometheus.Gauge
	queryEvents     prometheus.Gauge
}

// New registers the collectors on reg and returns them. A nil reg yields
// Collectors whose methods are no-ops, for callers that don't want metrics.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		return &Collectors{}
	}

	c := &Collectors{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "res_requests_total",
			Help: "Total number of RES requests handled, by type and method.",
		}, []string{"type", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "res_request_duration_seconds",
			Help:    "Time spent handling a RES request, from receipt to reply.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "res_queue_depth",
			Help: "Number of serialization groups currently holding queued work.",
		}),
		queryEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "res_query_events_active",
			Help: "Number of query event buffers opened; not decremented when a buffer expires.",
		}),
	}

	reg.MustRegister(c.requestsTotal, c.requestDuration, c.queueDepth, c.queryEvents)
	return c
}

// ObserveRequest implements res.Metrics.
func (c *Collectors) ObserveRequest(rtype, method string, dur time.Duration) {
	if c.requestsTotal == nil {
		return
	}
	c.requestsTotal.WithLabelValues(rtype, method, "handled").Inc()
	c.requestDuration.WithLabelValues(rtype).Observe(dur.Seconds())
}

// IncQueryEvent implements res.Metrics.
func (c *Collectors) IncQueryEvent() {
	if c.queryEvents == nil {
		return
	}
	c.queryEvents.Inc()
}

// SetQueueDepth implements res.Metrics.
func (c *Collectors) SetQueueDepth(n int) {
	if c.queueDepth == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}
