package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// UnlockEvaluations counts unlock evaluations by outcome (unlocked, locked).
	UnlockEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unlock_evaluations_total",
			Help: "Unlock condition evaluations by result",
		},
		[]string{"result"},
	)
	// RolloutDecisions counts variant decisions per feature.
	RolloutDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollout_decisions_total",
			Help: "Rollout decisions by feature and variant",
		},
		[]string{"feature", "variant"},
	)
	// AnalyticsClients tracks connected analytics stream subscribers.
	AnalyticsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "analytics_stream_clients",
		Help: "Number of currently connected analytics stream clients",
	})
	// AnalyticsDropped counts events dropped by slow stream subscribers.
	AnalyticsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_dropped_total",
		Help: "Analytics events dropped because a subscriber was not keeping up",
	})

	initOnce sync.Once
)

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, UnlockEvaluations, RolloutDecisions, AnalyticsClients, AnalyticsDropped)
	})
}

// ObserveUnlock records one evaluation outcome.
func ObserveUnlock(unlocked bool) {
	result := "locked"
	if unlocked {
		result = "unlocked"
	}
	UnlockEvaluations.WithLabelValues(result).Inc()
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		// route pattern is only known after routing
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
