package switcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions, labelled by controller name.
var (
	// sequencesStarted counts Initialize calls.
	sequencesStarted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "switcher_sequences_started_total",
		Help: "Total number of switcher sequences initialized",
	}, []string{"switcher"})

	// advancesTotal counts advances that showed a new item.
	advancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "switcher_advances_total",
		Help: "Total number of advances that showed a new item",
	}, []string{"switcher"})

	// scheduledTotal counts delayed advances scheduled.
	scheduledTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "switcher_advances_scheduled_total",
		Help: "Total number of delayed advances scheduled",
	}, []string{"switcher"})

	// selfTerminatedTotal counts sequences that ended because the surface had no more items.
	selfTerminatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "switcher_self_terminations_total",
		Help: "Total number of sequences that ended on their own",
	}, []string{"switcher"})

	// stopsTotal counts completed stops (first calls only).
	stopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "switcher_stops_total",
		Help: "Total number of switcher sequences stopped",
	}, []string{"switcher"})

	// handlesCanceled counts registered cancelables canceled on stop.
	handlesCanceled = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "switcher_handles_canceled_total",
		Help: "Total number of registered handles canceled when a sequence stopped",
	}, []string{"switcher"})

	// intervalSeconds tracks the delays passed to ScheduleAdvance.
	intervalSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "switcher_interval_seconds",
		Help:    "Delay of scheduled advances",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
	}, []string{"switcher"})
)

// MetricsObserver records lifecycle events as prometheus metrics.
type MetricsObserver struct{}

// NewMetricsObserver creates a prometheus-backed observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func sanitizeName(name string) string {
	if name == "" {
		return "unnamed"
	}

	return name
}

func (MetricsObserver) Initialized(ctl *Controller) {
	sequencesStarted.WithLabelValues(sanitizeName(ctl.Name())).Inc()
}

func (MetricsObserver) Advanced(ctl *Controller) {
	advancesTotal.WithLabelValues(sanitizeName(ctl.Name())).Inc()
}

func (MetricsObserver) Scheduled(ctl *Controller, delay time.Duration) {
	name := sanitizeName(ctl.Name())

	scheduledTotal.WithLabelValues(name).Inc()
	intervalSeconds.WithLabelValues(name).Observe(delay.Seconds())
}

func (MetricsObserver) SelfTerminated(ctl *Controller) {
	selfTerminatedTotal.WithLabelValues(sanitizeName(ctl.Name())).Inc()
}

func (MetricsObserver) Stopped(ctl *Controller, canceled int) {
	name := sanitizeName(ctl.Name())

	stopsTotal.WithLabelValues(name).Inc()
	handlesCanceled.WithLabelValues(name).Add(float64(canceled))
}
