package repository

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// lastCloneTimestamp is a Gauge that captures the timestamp of the last
	// successful git clone
	lastCloneTimestamp *prometheus.GaugeVec
	// cloneCount is a Counter vector of git clones
	cloneCount *prometheus.CounterVec
	// cloneLatency is a Histogram vector that keeps track of git clone durations
	cloneLatency *prometheus.HistogramVec
)

// EnableMetrics will enable metrics collection for git clones.
// Available metrics are...
//   - git_last_clone_timestamp - (tags: repo)
//     A Gauge that captures the Timestamp of the last successful git clone per repo.
//   - git_clone_count - (tags: repo,success)
//     A Counter for each repo clone, incremented with each clone attempt and tagged with the result (success=true|false)
//   - git_clone_latency_seconds - (tags: repo)
//     A Histogram that keeps track of the git clone latency per repo.
func EnableMetrics(metricsNamespace string, registerer prometheus.Registerer) {
	lastCloneTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "git_last_clone_timestamp",
		Help:      "Timestamp of the last successful git clone",
	},
		[]string{
			// name of the repository
			"repo",
		},
	)

	cloneCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "git_clone_count",
		Help:      "Count of git clone operations",
	},
		[]string{
			// name of the repository
			"repo",
			// Whether the clone was successful or not
			"success",
		},
	)

	cloneLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "git_clone_latency_seconds",
		Help:      "Latency for git repo clone",
		Buckets:   []float64{0.5, 1, 5, 10, 20, 30, 60, 90, 120, 150, 300},
	},
		[]string{
			// name of the repository
			"repo",
		},
	)

	registerer.MustRegister(
		lastCloneTimestamp,
		cloneCount,
		cloneLatency,
	)
}

// recordGitClone records a repository clone attempt by updating all the
// relevant metrics
func recordGitClone(repo string, success bool, start time.Time) {
	// if metrics not enabled return
	if lastCloneTimestamp == nil || cloneCount == nil || cloneLatency == nil {
		return
	}
	if success {
		lastCloneTimestamp.With(prometheus.Labels{
			"repo": repo,
		}).Set(float64(time.Now().Unix()))
	}
	cloneCount.With(prometheus.Labels{
		"repo":    repo,
		"success": strconv.FormatBool(success),
	}).Inc()
	cloneLatency.WithLabelValues(repo).Observe(time.Since(start).Seconds())
}
