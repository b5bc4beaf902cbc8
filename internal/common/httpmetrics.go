package common

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerMetrics count the requests a binary serves. A nil *ServerMetrics
// is valid and records nothing.
type ServerMetrics struct {
	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
}

func NewServerMetrics(registry prometheus.Registerer, server string) *ServerMetrics {
	labels := prometheus.Labels{"server": server}
	metrics := &ServerMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "gtfs_server_requests_total",
				Help:        "Requests served, by route pattern and status",
				ConstLabels: labels,
			},
			[]string{"method", "route", "status"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "gtfs_server_request_duration_seconds",
				Help:        "Time to serve a request, by route pattern",
				ConstLabels: labels,
				Buckets:     prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"method", "route"},
		),
	}
	registry.MustRegister(metrics.RequestsTotal, metrics.RequestDurationSeconds)
	return metrics
}

// Middleware labels requests with chi's route pattern, so /route/A and
// /route/B share one series.
func (metrics *ServerMetrics) Middleware(next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		next.ServeHTTP(wrapped, request)

		route := "unmatched"
		if rctx := chi.RouteContext(request.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestsTotal.WithLabelValues(request.Method, route, strconv.Itoa(status)).Inc()
		metrics.RequestDurationSeconds.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}
