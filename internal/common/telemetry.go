package common

import (
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics are the fetch-side families shared by every binary that talks to
// the transit API. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HttpTTFBSeconds     *prometheus.HistogramVec
	HttpReadBodySeconds *prometheus.HistogramVec
	HttpBytesTotal      *prometheus.CounterVec
	HttpErrorsTotal     *prometheus.CounterVec
	FetchRecords        *prometheus.GaugeVec
	PanelStaleTotal     *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		HttpTTFBSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gtfs_http_ttfb_seconds",
				Help:    "Time from API GET to first byte for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		HttpReadBodySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gtfs_http_read_body_seconds",
				Help:    "Time to read and decode the body of an API GET response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		HttpBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_http_bytes_total",
				Help: "Bytes downloaded per endpoint",
			},
			[]string{"endpoint"},
		),
		HttpErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_http_errors_total",
				Help: "Failed fetches per endpoint, by failure kind",
			},
			[]string{"endpoint", "kind"},
		),
		FetchRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gtfs_fetch_records",
				Help: "Records returned by the last successful fetch per endpoint",
			},
			[]string{"endpoint"},
		),
		PanelStaleTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtfs_panel_stale_total",
				Help: "Fetch results discarded because a newer fetch or a close superseded them",
			},
			[]string{"panel"},
		),
	}

	registry.MustRegister(
		metrics.HttpTTFBSeconds,
		metrics.HttpReadBodySeconds,
		metrics.HttpBytesTotal,
		metrics.HttpErrorsTotal,
		metrics.FetchRecords,
		metrics.PanelStaleTotal,
	)

	return metrics
}

func (metrics *Metrics) ObserveResponse(endpoint string, ttfb, readBody time.Duration, bytes int) {
	if metrics == nil {
		return
	}
	metrics.HttpTTFBSeconds.WithLabelValues(endpoint).Observe(ttfb.Seconds())
	metrics.HttpReadBodySeconds.WithLabelValues(endpoint).Observe(readBody.Seconds())
	metrics.HttpBytesTotal.WithLabelValues(endpoint).Add(float64(bytes))
}

func (metrics *Metrics) ObserveRecords(endpoint string, n int) {
	if metrics == nil {
		return
	}
	metrics.FetchRecords.WithLabelValues(endpoint).Set(float64(n))
}

func (metrics *Metrics) ObserveError(endpoint, kind string) {
	if metrics == nil {
		return
	}
	metrics.HttpErrorsTotal.WithLabelValues(endpoint, kind).Inc()
}

func (metrics *Metrics) ObserveStale(panel string) {
	if metrics == nil {
		return
	}
	metrics.PanelStaleTotal.WithLabelValues(panel).Inc()
}

type TelemetryServer struct {
	addr     string
	mux      *http.ServeMux
	registry *prometheus.Registry
	log      zerolog.Logger

	server   *http.Server
	listener net.Listener
}

func NewTelemetryServer(addr string, log zerolog.Logger) *TelemetryServer {
	telemetry := &TelemetryServer{
		addr:     addr,
		registry: prometheus.NewRegistry(),
		mux:      http.NewServeMux(),
		log:      log,
	}

	telemetry.mux.Handle(
		"/metrics",
		promhttp.HandlerFor(telemetry.registry, promhttp.HandlerOpts{}),
	)

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gtfs_build_info",
			Help: "Build metadata",
		},
		[]string{"version", "git_commit"},
	)

	telemetry.registry.MustRegister(
		collectors.NewGoCollector(), // Go runtime metrics
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
	)

	buildInfo.WithLabelValues(Version, GitCommit).Set(1)

	telemetry.mux.HandleFunc("/debug/pprof/", pprof.Index)
	telemetry.mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	telemetry.mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	telemetry.mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	telemetry.mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return telemetry
}

func (telemetry *TelemetryServer) GetRegistry() *prometheus.Registry {
	return telemetry.registry
}

func (telemetry *TelemetryServer) Handler() http.Handler {
	return telemetry.mux
}

// Start is a no-op when addr is empty, which disables the listener.
func (telemetry *TelemetryServer) Start() error {
	if telemetry.addr == "" {
		return nil
	}

	telemetry.server = &http.Server{
		Addr:              telemetry.addr,
		Handler:           telemetry.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", telemetry.addr)
	if err != nil {
		return err
	}

	telemetry.listener = listener

	go func() {
		if err := telemetry.server.Serve(telemetry.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.log.Error().Err(err).Msg("telemetry server stopped")
		}
	}()

	telemetry.log.Info().Str("addr", listener.Addr().String()).Msg("telemetry server started")
	return nil
}

func (telemetry *TelemetryServer) Stop() error {
	if telemetry.server == nil {
		return nil
	}

	return telemetry.server.Close()
}
