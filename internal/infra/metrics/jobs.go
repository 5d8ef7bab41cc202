package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(scanJobsTotal) }

var scanJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scan_jobs_total",
		Help: "Total number of scan jobs finished, labeled by status.",
	},
	[]string{"status"}, // 'done', 'error'
)

func IncScanJob(status string) {
	scanJobsTotal.WithLabelValues(norm(status)).Inc()
}
