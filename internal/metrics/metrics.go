package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hubclient_api_requests_total",
		Help: "Total API requests by resource and outcome",
	}, []string{"resource", "outcome"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hubclient_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"resource"})
	RequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubclient_request_duration_seconds",
		Help:    "API request duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubclient_reqcache_hits_total",
		Help: "Request cache hits",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubclient_reqcache_misses_total",
		Help: "Request cache misses",
	})
	Supersedes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubclient_reqcache_supersedes_total",
		Help: "In-flight requests canceled by a newer request for the same key",
	})
	Rollbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubclient_optimistic_rollbacks_total",
		Help: "Optimistic mutations rolled back after failure",
	})
	UploadChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubclient_upload_chunks_total",
		Help: "Upload chunks sent",
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hubclient_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hubclient_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		APIRequests, APIRetries, RequestDuration,
		CacheHits, CacheMisses, Supersedes, Rollbacks,
		UploadChunks, CommandRuns, CommandErrors,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveRequestDuration records one API round trip.
func ObserveRequestDuration(start time.Time) {
	RequestDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRequest counts one request outcome ("ok", "error", "canceled").
func IncAPIRequest(resource, outcome string) { APIRequests.WithLabelValues(resource, outcome).Inc() }

// IncAPIRetry increments the retry counter for a resource.
func IncAPIRetry(resource string) { APIRetries.WithLabelValues(resource).Inc() }

// IncCommandRun counts a CLI command invocation.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError counts a CLI command failure.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
