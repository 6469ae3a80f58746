// Package metrics exposes Prometheus instrumentation for the search run:
//   - lab_evaluations_total                 – trader evaluations performed
//   - lab_generations_total                 – generations completed
//   - lab_recalibration_failures_total{reason} – rejected weight refits
//   - lab_best_score                        – best score in the latest generation
//   - lab_population_size                   – current population size
//
// Collectors are registered in init() and served at /metrics by the HTTP
// server in internal/httpapi.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Evaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lab_evaluations_total",
		Help: "Trader evaluations performed",
	})

	Generations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lab_generations_total",
		Help: "Generations completed",
	})

	// Reasons: insufficient_data, singular_design, other.
	RecalibrationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lab_recalibration_failures_total",
		Help: "Weight recalibrations rejected, by reason",
	}, []string{"reason"})

	BestScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lab_best_score",
		Help: "Best score in the latest generation",
	})

	PopulationSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lab_population_size",
		Help: "Current population size",
	})
)

func init() {
	prometheus.MustRegister(
		Evaluations,
		Generations,
		RecalibrationFailures,
		BestScore,
		PopulationSize,
	)
}

// Handler returns the /metrics HTTP handler in Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
