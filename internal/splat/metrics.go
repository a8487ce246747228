package splat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: no per-object labels, the impact outcome
// label is limited to "land" and "merge".
var (
	emissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splat_emissions_total",
		Help: "Droplets emitted",
	})

	emissionDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splat_emission_drops_total",
		Help: "Emissions dropped because the pool was exhausted or the origin was unresolvable",
	})

	impactsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splat_impacts_total",
		Help: "Flight impacts by outcome",
	}, []string{"outcome"}) // Bounded: "land", "merge"

	recyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splat_recycles_total",
		Help: "Objects reset and returned to the pool",
	})

	poolInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splat_pool_in_use",
		Help: "Objects currently in use",
	})

	poolFree = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splat_pool_free",
		Help: "Objects currently free",
	})

	flightsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splat_flights_active",
		Help: "Droplets currently in flight",
	})

	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splat_step_duration_seconds",
		Help:    "Time spent in one engine step",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})
)

func recordEmission()             { emissionsTotal.Inc() }
func recordEmissionDrop()         { emissionDropsTotal.Inc() }
func recordImpact(outcome string) { impactsTotal.WithLabelValues(outcome).Inc() }
func recordRecycle()              { recyclesTotal.Inc() }

func recordStep(d time.Duration, inUse, free, flights int) {
	stepDuration.Observe(d.Seconds())
	poolInUse.Set(float64(inUse))
	poolFree.Set(float64(free))
	flightsActive.Set(float64(flights))
}
