// Package metrics registers the service's timers and counters on a dedicated
// Prometheus registry.
//
// A tracked Method combines a latency histogram, a call counter split by
// outcome and an in-flight gauge, all labelled by method name. A Timer is a
// single named histogram for explicit spans around a block of code.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric registered by this package.
const Namespace = "greeting"

// Outcome label values for greeting_method_calls_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// DefaultBuckets cover sub-millisecond handlers up to the multi-second simulated delays.
var DefaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Registry owns the Prometheus registry and the instruments created on it.
type Registry struct {
	reg *prometheus.Registry

	methodDuration *prometheus.HistogramVec
	methodCalls    *prometheus.CounterVec
	methodInFlight *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	mu      sync.Mutex
	methods map[string]*Method
	timers  map[string]*Timer
}

// NewRegistry creates a registry with the Go runtime and process collectors
// plus the method and HTTP instruments.
func NewRegistry() *Registry {
	r := &Registry{
		reg:     prometheus.NewRegistry(),
		methods: make(map[string]*Method),
		timers:  make(map[string]*Timer),
		methodDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "method_duration_seconds",
			Help:      "Latency of tracked greeting methods.",
			Buckets:   DefaultBuckets,
		}, []string{"method"}),
		methodCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "method_calls_total",
			Help:      "Completed calls of tracked greeting methods by outcome.",
		}, []string{"method", "outcome"}),
		methodInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "method_in_flight",
			Help:      "Tracked greeting method calls currently running.",
		}, []string{"method"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: DefaultBuckets,
		}, []string{"method", "route"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.methodDuration,
		r.methodCalls,
		r.methodInFlight,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Gatherer exposes the underlying registry for exposition and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Method returns the tracked method called name, creating it on first use.
func (r *Registry) Method(name string) *Method {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.methods[name]; ok {
		return m
	}
	m := &Method{
		name:     name,
		duration: r.methodDuration.WithLabelValues(name),
		success:  r.methodCalls.WithLabelValues(name, OutcomeSuccess),
		failure:  r.methodCalls.WithLabelValues(name, OutcomeError),
		inFlight: r.methodInFlight.WithLabelValues(name),
	}
	r.methods[name] = m
	return m
}

// Timer returns the histogram timer called name (registered as
// greeting_<name>_seconds), creating it on first use. help is only used
// when the timer is created.
func (r *Registry) Timer(name, help string) (*Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[name]; ok {
		return t, nil
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      name + "_seconds",
		Help:      help,
		Buckets:   DefaultBuckets,
	})
	if err := r.reg.Register(h); err != nil {
		return nil, fmt.Errorf("register timer %s: %w", name, err)
	}
	t := &Timer{name: name, histogram: h}
	r.timers[name] = t
	return t, nil
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (r *Registry) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			route := routePattern(req)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
