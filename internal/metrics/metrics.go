package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EtlRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wctweets_etl_runs_total",
		Help: "Total pipeline runs",
	})
	FilesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wctweets_etl_files_total",
		Help: "Input files handled, by outcome",
	}, []string{"outcome"})
	RecordsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wctweets_etl_records_written_total",
		Help: "Cleaned posts stored in the sink",
	})
	MalformedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wctweets_etl_malformed_records_total",
		Help: "Input lines that were not JSON objects",
	})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wctweets_etl_run_duration_seconds",
		Help:    "Pipeline run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wctweets_dashboard_cache_lookups_total",
		Help: "Dashboard cache lookups, by result",
	}, []string{"result"})
	SinkUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wctweets_sink_up",
		Help: "1 when the last sink health check succeeded",
	})
)

const (
	OUTCOME_OK     = "ok"
	OUTCOME_FAILED = "failed"
	OUTCOME_EMPTY  = "empty"

	CACHE_HIT  = "hit"
	CACHE_MISS = "miss"
)

func init() {
	prometheus.MustRegister(EtlRuns, FilesProcessed, RecordsWritten, MalformedRecords, RunDuration, CacheLookups, SinkUp)
}

// StartServer serves /metrics on addr in the background. An empty addr
// disables it. A bind failure is returned; later serve failures are logged.
func StartServer(addr string) error {
	if addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("[Metrics] Failed to listen", slog.String("addr", addr), slog.String("error", err.Error()))
		return fmt.Errorf("[Metrics] listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.Serve(ln, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Metrics] Server stopped", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()
	slog.Info("[Metrics] Serving metrics", slog.String("addr", ln.Addr().String()))
	return nil
}

// Handler exposes the registered metrics for embedding in another server.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveRunDuration records a run duration.
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}

func IncFile(outcome string) { FilesProcessed.WithLabelValues(outcome).Inc() }

func IncCache(result string) { CacheLookups.WithLabelValues(result).Inc() }
