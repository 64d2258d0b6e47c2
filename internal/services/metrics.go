package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the engine
type Metrics struct {
	SuggestionsGenerated *prometheus.CounterVec
	GenerationRetries    prometheus.Counter
	GenerationLatency    prometheus.Histogram
	TranslationChunks    prometheus.Counter
	ContextCacheHits     prometheus.Counter
	ContextCacheMisses   prometheus.Counter
	ProfileRefreshes     *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics. Call once from main;
// services that record metrics are no-ops until it runs, which keeps tests
// free of registry setup.
func InitMetrics() *Metrics {
	metrics := &Metrics{
		SuggestionsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "castor_suggestions_generated_total",
			Help: "Total number of suggestions returned to callers, by mode",
		}, []string{"mode"}),

		GenerationRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castor_generation_retries_total",
			Help: "Total number of improve-mode length retries issued",
		}),

		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "castor_generation_duration_seconds",
			Help:    "Suggestion generation latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		TranslationChunks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castor_translation_chunks_total",
			Help: "Total number of translation chunk calls issued",
		}),

		ContextCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castor_context_cache_hits_total",
			Help: "Account-context cache hits",
		}),

		ContextCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castor_context_cache_misses_total",
			Help: "Account-context cache misses",
		}),

		ProfileRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "castor_profile_refreshes_total",
			Help: "Background style-profile refreshes, by outcome",
		}, []string{"outcome"}), // "analyzed", "default", "failed"
	}

	globalMetrics = metrics
	return metrics
}

func recordSuggestions(mode string, count int) {
	if globalMetrics != nil {
		globalMetrics.SuggestionsGenerated.WithLabelValues(mode).Add(float64(count))
	}
}

func recordGenerationRetry() {
	if globalMetrics != nil {
		globalMetrics.GenerationRetries.Inc()
	}
}

func observeGenerationLatency(seconds float64) {
	if globalMetrics != nil {
		globalMetrics.GenerationLatency.Observe(seconds)
	}
}

func recordTranslationChunk() {
	if globalMetrics != nil {
		globalMetrics.TranslationChunks.Inc()
	}
}

func recordContextCacheHit() {
	if globalMetrics != nil {
		globalMetrics.ContextCacheHits.Inc()
	}
}

func recordContextCacheMiss() {
	if globalMetrics != nil {
		globalMetrics.ContextCacheMisses.Inc()
	}
}

func recordProfileRefresh(outcome string) {
	if globalMetrics != nil {
		globalMetrics.ProfileRefreshes.WithLabelValues(outcome).Inc()
	}
}
