package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "myblog_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_http_requests_total",
		Help: "Total number of HTTP requests by route.",
	}, []string{"route", "method", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "myblog_http_requests_in_flight",
		Help: "Requests currently being served.",
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_http_rate_limited_total",
		Help: "Requests rejected by a rate limiter, by backend.",
	}, []string{"limiter", "backend"})
)

// MetricsMiddleware records RED metrics labelled by route pattern, so
// /posts/{id} is one series regardless of the id.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := strconv.Itoa(ww.Status())
		route := routePattern(r)
		httpDuration.WithLabelValues(route, r.Method, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(route, r.Method, status).Inc()
	})
}

// routePattern is the matched chi pattern, or "unmatched" for 404s so
// scanners cannot blow up label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
