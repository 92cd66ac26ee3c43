package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(jobsProcessedTotal, ragTaskLatency) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rag_jobs_processed_total",
		Help: "Total number of jobs that reached a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var ragTaskLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "rag_task_latency_ms",
		Help:    "End-to-end retrieval+generation latency in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	},
)

func IncJob(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveRAGTask(latencyMs int) {
	ragTaskLatency.Observe(float64(latencyMs))
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
