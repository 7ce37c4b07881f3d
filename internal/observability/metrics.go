package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersRegisteredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_log",
		Subsystem: "registry",
		Name:      "users_registered_total",
		Help:      "Number of new users persisted.",
	})
	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_log",
		Subsystem: "persistence",
		Name:      "exercises_logged_total",
		Help:      "Number of exercise records persisted.",
	})
	exercisePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_log",
		Subsystem: "persistence",
		Name:      "last_exercise_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(usersRegisteredCounter, exercisesLoggedCounter, exercisePersistGauge)
}

// RecordUserRegistered increments the registration counter.
func RecordUserRegistered() {
	usersRegisteredCounter.Inc()
}

// RecordExercisePersisted updates the persistence counter and watermark gauge.
func RecordExercisePersisted(ts time.Time) {
	exercisesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	exercisePersistGauge.Set(float64(ts.Unix()))
}
