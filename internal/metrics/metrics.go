package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"command"})
	RecommendRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repomatch_recommend_runs_total",
		Help: "Total recommendation runs",
	})
	RecommendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repomatch_recommend_errors_total",
		Help: "Recommendation runs that failed on the profile fetch",
	})
	RecommendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "repomatch_recommend_duration_seconds",
		Help:    "Recommendation run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	SearchCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_search_calls_total",
		Help: "Candidate searches by kind and outcome",
	}, []string{"kind", "outcome"})
	AcceptedCandidates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_accepted_candidates_total",
		Help: "Candidates accepted into a pool, by output and tier",
	}, []string{"output", "tier"})
	EnrichmentFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_enrichment_failures_total",
		Help: "Best-effort lookups that failed and fell back to defaults",
	}, []string{"source"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_api_retries_total",
		Help: "Total GitHub API retry attempts",
	}, []string{"endpoint"})
	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "repomatch_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repomatch_cache_lookups_total",
		Help: "Response cache lookups by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		CommandRuns, CommandErrors,
		RecommendRuns, RecommendErrors, RecommendDuration,
		SearchCalls, AcceptedCandidates, EnrichmentFailures,
		APIRetries, CircuitBreakerState, CacheLookups,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveRecommendDuration records a run duration.
func ObserveRecommendDuration(start time.Time) {
	RecommendDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncSearch records the outcome of one candidate search.
func IncSearch(kind, outcome string) { SearchCalls.WithLabelValues(kind, outcome).Inc() }

func IncEnrichmentFailure(source string) { EnrichmentFailures.WithLabelValues(source).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
