package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	storeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "award",
			Subsystem: "store",
			Name:      "calls_total",
			Help:      "Total number of row store calls.",
		},
		[]string{"op", "status"},
	)

	storeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "award",
			Subsystem: "store",
			Name:      "call_duration_seconds",
			Help:      "Duration of row store calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"op"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "award",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by table and result.",
		},
		[]string{"table", "result"},
	)

	awards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "award",
			Subsystem: "engine",
			Name:      "awards_total",
			Help:      "Award requests by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	credited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "award",
			Subsystem: "engine",
			Name:      "credited_total",
			Help:      "Sum of amounts credited to accounts.",
		},
		[]string{"action"},
	)

	poolMultiplier = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "award",
			Subsystem: "pool",
			Name:      "multiplier",
			Help:      "Multiplier applied to the most recent award.",
		},
	)

	poolAwarded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "award",
			Subsystem: "pool",
			Name:      "hour_awarding_so_far",
			Help:      "Amount awarded in the current hour window.",
		},
	)
)

func init() {
	Registry.MustRegister(
		storeCalls,
		storeDuration,
		cacheLookups,
		awards,
		credited,
		poolMultiplier,
		poolAwarded,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveStoreCall records one store round trip.
func ObserveStoreCall(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeCalls.WithLabelValues(op, status).Inc()
	storeDuration.WithLabelValues(op).Observe(d.Seconds())
}

// CacheLookup records a cache hit or miss for table.
func CacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(table, result).Inc()
}

// Award records the outcome of one award request.
func Award(action, outcome string, amount float64) {
	awards.WithLabelValues(action, outcome).Inc()
	if amount > 0 {
		credited.WithLabelValues(action).Add(amount)
	}
}

// Pool publishes the pool state after an award.
func Pool(multiplier, awarded float64) {
	poolMultiplier.Set(multiplier)
	poolAwarded.Set(awarded)
}
