package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "seismicnet_"

	ResultSuccess          = "success"
	ResultValidationError  = "validation_error"
	ResultPersistenceError = "persistence_error"
	ResultError            = "error"
)

var (
	registerOnce sync.Once

	closureTotal   *prometheus.CounterVec
	closureLatency *prometheus.HistogramVec

	transitionTotal *prometheus.CounterVec

	notificationTotal *prometheus.CounterVec

	sessionsActive prometheus.Gauge
)

// Init registers the service metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		closureTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "order_closures_total",
				Help: "Order closure confirmations by result",
			},
			[]string{"result"},
		)
		closureLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "order_closure_duration_seconds",
				Help:    "Latency of the confirm operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		transitionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "seismograph_transitions_total",
				Help: "Seismograph status transitions by operation and effect",
			},
			[]string{"operation", "changed"},
		)
		notificationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Outbound notifications by channel and result",
			},
			[]string{"channel", "result"},
		)
		sessionsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "workflow_sessions_active",
				Help: "Currently open close-order workflow sessions",
			},
		)

		prometheus.MustRegister(
			closureTotal,
			closureLatency,
			transitionTotal,
			notificationTotal,
			sessionsActive,
		)
	})
}

// ObserveClosure records one confirm call.
func ObserveClosure(result string, elapsed time.Duration) {
	if closureTotal == nil || closureLatency == nil {
		return
	}
	closureTotal.WithLabelValues(result).Inc()
	closureLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveTransition records one status transition request.
func ObserveTransition(operation string, changed bool) {
	if transitionTotal == nil {
		return
	}
	label := "false"
	if changed {
		label = "true"
	}
	transitionTotal.WithLabelValues(operation, label).Inc()
}

// ObserveNotification records one outbound notification attempt.
func ObserveNotification(channel, result string) {
	if notificationTotal == nil {
		return
	}
	notificationTotal.WithLabelValues(channel, result).Inc()
}

// SessionOpened increments the active session gauge.
func SessionOpened() {
	if sessionsActive != nil {
		sessionsActive.Inc()
	}
}

// SessionClosed decrements the active session gauge.
func SessionClosed() {
	if sessionsActive != nil {
		sessionsActive.Dec()
	}
}
