// Package metrics exposes Prometheus collectors for slice queries and HTTP
// traffic. Recorder implements slice.Observer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Recorder owns a registry so tests and multiple servers never collide on
// the global one.
type Recorder struct {
	registry *prometheus.Registry

	sliceQueries  *prometheus.CounterVec
	sliceDuration *prometheus.HistogramVec
	sliceRows     *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors, plus Go and process collectors when
// withRuntime is set.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		sliceQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slice_queries_total",
			Help:      "Slice queries executed, by entity and outcome.",
		}, []string{"entity", "outcome"}),
		sliceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slice_query_duration_seconds",
			Help:      "Store round-trip time of slice queries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity"}),
		sliceRows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slice_rows_returned",
			Help:      "Rows returned per slice after trimming the probe row.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"entity"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveSlice records one slice query. Outcome is "last", "partial" (more
// slices follow) or "error".
func (r *Recorder) ObserveSlice(entity string, returned int, hasNext bool, took time.Duration, err error) {
	outcome := "last"
	switch {
	case err != nil:
		outcome = "error"
	case hasNext:
		outcome = "partial"
	}
	r.sliceQueries.WithLabelValues(entity, outcome).Inc()
	r.sliceDuration.WithLabelValues(entity).Observe(took.Seconds())
	if err == nil {
		r.sliceRows.WithLabelValues(entity).Observe(float64(returned))
	}
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (r *Recorder) ObserveHTTP(method, route string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
