package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(exercisesRecordedTotal) }

var exercisesRecordedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "exercises_recorded_total",
		Help: "Total number of completed exercises recorded.",
	},
)

func IncExerciseRecorded() {
	exercisesRecordedTotal.Inc()
}
