package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wablast_messages_total",
			Help: "Broadcast messages by outcome and attempt",
		},
		[]string{"status", "attempt"}, // success|failure , first|retry
	)

	ScheduleFiresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wablast_schedule_fires_total",
			Help: "Schedule occurrences that triggered a dispatch",
		},
	)

	DispatchProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wablast_dispatch_progress",
			Help: "Progress of the running dispatch pass in percent (0 when idle)",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		MessagesTotal,
		ScheduleFiresTotal,
		DispatchProgress,
	)
}
