package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GeocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dashboard_geocode_lookups_total",
			Help: "Geocode lookups by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	ForecastFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dashboard_forecast_fetches_total",
			Help: "Forecast fetches by outcome.",
		},
		[]string{"outcome"},
	)

	RenderPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dashboard_render_passes_total",
			Help: "Render passes by terminal phase.",
		},
		[]string{"phase"},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeCached   = "cached"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
)

func init() {
	prometheus.MustRegister(GeocodeLookups, ForecastFetches, RenderPasses)
}
