package looper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for looper task scheduling, labelled by looper name.

var (
	// tasksPosted counts every task queued with Post or PostDelayed.
	tasksPosted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "looper_tasks_posted_total",
		Help: "The total number of tasks posted to a looper",
	}, []string{"looper"})

	// tasksExecuted counts tasks that ran to completion.
	tasksExecuted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "looper_tasks_executed_total",
		Help: "The total number of looper tasks that ran to completion",
	}, []string{"looper"})

	// tasksCanceled counts tasks removed before they ran.
	tasksCanceled = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "looper_tasks_canceled_total",
		Help: "The total number of looper tasks canceled before running",
	}, []string{"looper"})

	// taskPanics counts tasks that panicked.
	taskPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "looper_task_panics_total",
		Help: "The total number of looper tasks that panicked",
	}, []string{"looper"})

	// tasksPending tracks the current queue depth.
	tasksPending = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "looper_tasks_pending",
		Help: "The number of tasks waiting in a looper queue",
	}, []string{"looper"})

	// taskLatency measures how late a task started relative to its due time.
	taskLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "looper_task_latency_seconds",
		Help: "How long a looper task waited past its due time before running",
		Buckets: []float64{
			0.001, // 1ms
			0.005, // 5ms
			0.016, // one frame
			0.05,  // 50ms
			0.1,   // 100ms
			0.5,   // 500ms
			1,     // 1s
		},
	}, []string{"looper"})
)

// initMetrics makes every series for a looper visible before its first task.
func initMetrics(name string) {
	tasksPosted.WithLabelValues(name).Add(0)
	tasksExecuted.WithLabelValues(name).Add(0)
	tasksCanceled.WithLabelValues(name).Add(0)
	taskPanics.WithLabelValues(name).Add(0)
	tasksPending.WithLabelValues(name).Set(0)
}
