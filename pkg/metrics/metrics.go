package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Evaluation metrics
	PromisesEvaluatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_promises_evaluated_total",
			Help: "Total number of concrete promise expansions evaluated, by type and result",
		},
		[]string{"promise_type", "result"},
	)

	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfpromise_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one concrete promise expansion",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"promise_type"},
	)

	BundleEvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfpromise_bundle_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one bundle from entry to completion",
			Buckets: prometheus.DefBuckets,
		},
	)

	PromiseExpansionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cfpromise_promise_expansions_total",
			Help: "Total number of concrete promise expansions produced by the iteration engine",
		},
	)

	// Variable/class metrics
	VariablesSetTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cfpromise_variables_set_total",
			Help: "Total number of variable bindings installed into the variable table",
		},
	)

	ClassesSetTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_classes_set_total",
			Help: "Total number of classes defined, by scope",
		},
		[]string{"scope"},
	)

	IterationWheelsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfpromise_iteration_wheels_active",
			Help: "Number of odometer wheels registered for the promise currently expanding",
		},
	)

	// KV-store metrics
	KVStoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_kvstore_operations_total",
			Help: "Total KV-store operations, by database id, operation, and outcome",
		},
		[]string{"dbid", "op", "outcome"},
	)

	KVStoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfpromise_kvstore_operation_duration_seconds",
			Help:    "KV-store operation duration in seconds, by database id and operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dbid", "op"},
	)

	KVStoreBrokenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_kvstore_broken_total",
			Help: "Total number of times a database was found in the Broken state on open",
		},
		[]string{"dbid"},
	)

	// LastSeen metrics
	LastSeenUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_lastseen_updates_total",
			Help: "Total last-seen quality updates recorded, by direction",
		},
		[]string{"direction"},
	)

	// Actuator metrics
	ActuatorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfpromise_actuator_duration_seconds",
			Help:    "Time taken for an actuator to converge one concrete promise",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"promise_type"},
	)

	ActuatorRepairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_actuator_repairs_total",
			Help: "Total number of promises repaired (changed to match promised state), by type",
		},
		[]string{"promise_type"},
	)

	// CMDB metrics
	CMDBIngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfpromise_cmdb_ingest_duration_seconds",
			Help:    "Time taken to ingest one CMDB document",
			Buckets: prometheus.DefBuckets,
		},
	)

	CMDBRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfpromise_cmdb_rejected_total",
			Help: "Total CMDB entries rejected, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(PromisesEvaluatedTotal)
	prometheus.MustRegister(EvaluationDuration)
	prometheus.MustRegister(BundleEvaluationDuration)
	prometheus.MustRegister(PromiseExpansionsTotal)
	prometheus.MustRegister(VariablesSetTotal)
	prometheus.MustRegister(ClassesSetTotal)
	prometheus.MustRegister(IterationWheelsActive)
	prometheus.MustRegister(KVStoreOperationsTotal)
	prometheus.MustRegister(KVStoreOperationDuration)
	prometheus.MustRegister(KVStoreBrokenTotal)
	prometheus.MustRegister(LastSeenUpdatesTotal)
	prometheus.MustRegister(ActuatorDuration)
	prometheus.MustRegister(ActuatorRepairsTotal)
	prometheus.MustRegister(CMDBIngestDuration)
	prometheus.MustRegister(CMDBRejectedTotal)
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
