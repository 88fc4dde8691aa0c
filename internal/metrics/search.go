package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
)

// Search Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dfl_search",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine round trips",
		},
		[]string{"outcome"}, // "ok" / "invalid" / "unavailable"
	)

	HighlightFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dfl_search",
			Name:      "highlight_fallbacks_total",
			Help:      "Fields that fell back to unhighlighted stored values",
		},
	)

	ClickEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dfl_search",
			Name:      "click_events_total",
			Help:      "Click-through log events by delivery result",
		},
		[]string{"result"}, // "logged" / "dropped"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once
// from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(HighlightFallbacksTotal)
	prometheus.MustRegister(ClickEventsTotal)
	searchMetricsRegistered = true
}

// ObserveEngineRequest records one engine round trip outcome.
func ObserveEngineRequest(err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrQueryValidation):
		outcome = "invalid"
	default:
		outcome = "unavailable"
	}
	EngineRequestsTotal.WithLabelValues(outcome).Inc()
}
