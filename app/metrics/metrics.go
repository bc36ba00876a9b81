package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Cycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "competitionnotify_discovery_cycles_total",
			Help: "Discovery cycles by result.",
		},
		[]string{"result"},
	)
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "competitionnotify_discovery_cycle_duration_seconds",
			Help:    "Duration of a discovery cycle up to the point its tasks are started.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	Discovered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "competitionnotify_discovered_competitions",
			Help: "Competitions returned by the last successful discovery.",
		},
	)
	Scheduled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "competitionnotify_scheduled_tasks",
			Help: "Tasks handed to the supervisor by the last discovery cycle.",
		},
	)
	TaskOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "competitionnotify_task_outcomes_total",
			Help: "Terminal states of competition tasks.",
		},
		[]string{"outcome"},
	)
	RunningTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "competitionnotify_running_tasks",
			Help: "Competition tasks currently alive.",
		},
	)
	NotificationsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "competitionnotify_notifications_enqueued_total",
			Help: "Notifications committed to the queue.",
		},
	)
)
