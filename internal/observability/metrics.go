// Package observability holds the service's Prometheus collectors and tracing bootstrap.
package observability

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation outcomes used as the outcome label.
const (
	OutcomeOK                  = "ok"
	OutcomeEmptyCatalog        = "empty_catalog"
	OutcomeInsufficientCatalog = "insufficient_catalog"
	OutcomeNoWorkoutData       = "no_workout_data"
	OutcomeError               = "error"
)

var (
	plansGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplan_service",
		Subsystem: "generator",
		Name:      "plans_total",
		Help:      "Plan generation attempts grouped by outcome.",
	}, []string{"outcome"})

	generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mealplan_service",
		Subsystem: "generator",
		Name:      "duration_seconds",
		Help:      "Time spent generating a plan, including catalog and workout lookups.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	calorieDeviation = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mealplan_service",
		Subsystem: "generator",
		Name:      "calorie_deviation_ratio",
		Help:      "Absolute deviation of planned calories from the effective target, as a fraction of the target.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3, 0.5},
	})

	lastPlanGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mealplan_service",
		Subsystem: "persistence",
		Name:      "last_plan_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent meal plan persisted.",
	})

	lastWorkoutGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mealplan_service",
		Subsystem: "persistence",
		Name:      "last_workout_projected_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout projected from the activity feed.",
	})
)

func init() {
	prometheus.MustRegister(plansGenerated, generationDuration, calorieDeviation, lastPlanGauge, lastWorkoutGauge)
}

// RecordGeneration counts one generation attempt.
func RecordGeneration(outcome string, elapsed time.Duration) {
	plansGenerated.WithLabelValues(outcome).Inc()
	generationDuration.Observe(elapsed.Seconds())
}

// RecordCalorieDeviation observes how far a plan landed from its target.
func RecordCalorieDeviation(planned, target int) {
	if target <= 0 {
		return
	}
	calorieDeviation.Observe(math.Abs(float64(planned-target)) / float64(target))
}

// RecordPlanPersisted updates the plan persistence watermark gauge.
func RecordPlanPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastPlanGauge.Set(float64(ts.Unix()))
}

// RecordWorkoutProjected updates the workout projection watermark gauge.
func RecordWorkoutProjected(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastWorkoutGauge.Set(float64(ts.Unix()))
}
