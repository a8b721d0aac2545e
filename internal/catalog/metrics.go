package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mealplan_service",
	Subsystem: "catalog_cache",
	Name:      "lookups_total",
	Help:      "Catalog cache lookups grouped by result.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(cacheLookups)
}

func recordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
