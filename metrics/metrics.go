package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fxconv"

// Fetch outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the service collectors, registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	FallbackUsesTotal  prometheus.Counter
	ProviderFetchTotal *prometheus.CounterVec
	ConversionsTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	var (
		registry = prometheus.NewRegistry()
		factory  = promauto.With(registry)
	)

	return &Metrics{
		registry: registry,

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of rate requests served from a fresh cache entry",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of rate requests that required a refresh",
			},
		),

		FallbackUsesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_uses_total",
				Help:      "Total number of refreshes that resorted to the fallback table",
			},
		),

		ProviderFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_fetch_total",
				Help:      "Total number of provider fetches, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of currency conversion requests",
			},
			[]string{"currency", "direction"},
		),
	}
}

// Handler returns the HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
