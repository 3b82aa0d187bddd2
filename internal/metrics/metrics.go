package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teetime",
		Name:      "reservations_total",
		Help:      "Count of reserve attempts by outcome.",
	}, []string{"outcome"})

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teetime",
		Name:      "cancellations_total",
		Help:      "Count of cancellations by initiator.",
	}, []string{"initiator"})

	HoldsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teetime",
		Name:      "holds_reclaimed_total",
		Help:      "Count of expired holds reclaimed by the sweeper.",
	})

	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teetime",
		Name:      "sweep_failures_total",
		Help:      "Count of individual hold reclamations that failed.",
	})

	ReserveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "teetime",
		Name:      "reserve_duration_seconds",
		Help:      "Duration of the reserve transaction.",
		Buckets:   prometheus.DefBuckets,
	})
)
