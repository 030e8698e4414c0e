package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startTime = time.Now()

	// UptimeSeconds tracks the service uptime in seconds
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "uptime_seconds",
		Help:      "The uptime of the relayer watcher service in seconds",
	})

	// JobsEnrolled tracks the total number of jobs enrolled for monitoring
	JobsEnrolled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "jobs_enrolled_total",
		Help:      "Total number of jobs enrolled for monitoring",
	})

	// JobsWatching tracks the number of jobs currently being monitored
	JobsWatching = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "jobs_watching",
		Help:      "Number of jobs currently being monitored",
	})

	// EvaluationsTotal tracks the total number of gate evaluations performed
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "evaluations_total",
		Help:      "Total number of execution gate evaluations performed",
	})

	// GateOpenTotal tracks evaluations that predicted a successful execution
	GateOpenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "gate_open_total",
		Help:      "Total number of evaluations where both gates were open",
	})

	// SubmissionsTotal tracks execute submissions sent to the ledger
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "submissions_total",
		Help:      "Total number of execute submissions",
	})

	// SubmissionFailures tracks execute submissions that failed
	SubmissionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "submission_failures_total",
		Help:      "Total number of failed execute submissions",
	})

	// OracleErrors tracks failed fee oracle reads
	OracleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasgate",
		Subsystem: "relayer_watcher",
		Name:      "oracle_errors_total",
		Help:      "Total number of failed fee oracle reads",
	})
)

// StartMetricsCollection starts collecting uptime metrics
func StartMetricsCollection() {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			UptimeSeconds.Set(time.Since(startTime).Seconds())
		}
	}()
}
