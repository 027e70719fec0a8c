package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry, so tests can create as many as they like.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Canvas metrics
	CanvasesActive prometheus.Gauge
	Gestures       *prometheus.CounterVec
	NodesCreated   prometheus.Counter
	NodesDeleted   prometheus.Counter
	EdgesCreated   prometheus.Counter
	EdgesRejected  *prometheus.CounterVec

	// Save metrics
	Saves        *prometheus.CounterVec
	SaveDuration prometheus.Histogram

	// Stream metrics
	StreamClients prometheus.Gauge
}

// NewCollector creates a metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CanvasesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "canvases_active",
			Help:      "Number of open canvases",
		}),
		Gestures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gestures_total",
				Help:      "Interaction events handled, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		NodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total number of nodes created",
		}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_deleted_total",
			Help:      "Total number of nodes deleted",
		}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Total number of edges created",
		}),
		EdgesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edges_rejected_total",
				Help:      "Edge creations refused by the graph, by reason",
			},
			[]string{"reason"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_saves_total",
				Help:      "Workflow saves by outcome",
			},
			[]string{"outcome"},
		),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_save_duration_seconds",
			Help:      "Time spent in the save collaborator",
			Buckets:   prometheus.DefBuckets,
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected gesture stream clients",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.CanvasesActive,
		c.Gestures,
		c.NodesCreated,
		c.NodesDeleted,
		c.EdgesCreated,
		c.EdgesRejected,
		c.Saves,
		c.SaveDuration,
		c.StreamClients,
	)
	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Gesture records one handled interaction event
func (c *Collector) Gesture(kind, outcome string) {
	if c == nil {
		return
	}
	c.Gestures.WithLabelValues(kind, outcome).Inc()
}

// NodeCreated records a new node
func (c *Collector) NodeCreated() {
	if c == nil {
		return
	}
	c.NodesCreated.Inc()
}

// NodeDeleted records a removed node
func (c *Collector) NodeDeleted() {
	if c == nil {
		return
	}
	c.NodesDeleted.Inc()
}

// EdgeCreated records a new edge
func (c *Collector) EdgeCreated() {
	if c == nil {
		return
	}
	c.EdgesCreated.Inc()
}

// EdgeRejected records an edge refused by the graph
func (c *Collector) EdgeRejected(reason string) {
	if c == nil {
		return
	}
	c.EdgesRejected.WithLabelValues(reason).Inc()
}

// CanvasOpened and CanvasClosed track the number of open canvases
func (c *Collector) CanvasOpened() {
	if c == nil {
		return
	}
	c.CanvasesActive.Inc()
}

func (c *Collector) CanvasClosed() {
	if c == nil {
		return
	}
	c.CanvasesActive.Dec()
}

// SaveFinished records a save attempt
func (c *Collector) SaveFinished(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Saves.WithLabelValues(outcome).Inc()
	c.SaveDuration.Observe(d.Seconds())
}

// StreamConnected and StreamDisconnected track gesture stream clients
func (c *Collector) StreamConnected() {
	if c == nil {
		return
	}
	c.StreamClients.Inc()
}

func (c *Collector) StreamDisconnected() {
	if c == nil {
		return
	}
	c.StreamClients.Dec()
}
