package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)
	AIFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Total number of degraded AI calls recovered by fallback",
		},
		[]string{"stage"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_searches_total",
			Help: "Total number of candidate searches by outcome",
		},
		[]string{"outcome"},
	)
	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "candidate_search_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)
	CandidatesProcessedHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_search_processed_by_ai",
			Help:    "Number of candidates that reached the rerank stage per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Ranking outcome distributions
	MatchScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_match_score",
			Help:    "Distribution of per-candidate match_score ([0,1])",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
	SimilarityHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_similarity_score",
			Help:    "Distribution of per-candidate cosine similarity ([-1,1])",
			Buckets: []float64{-1, -0.5, 0, 0.2, 0.4, 0.6, 0.8, 1.0},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIFallbacksTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(CandidatesProcessedHistogram)
	prometheus.MustRegister(MatchScoreHistogram)
	prometheus.MustRegister(SimilarityHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveStage records how long one pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	SearchStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordFallback counts one degraded provider call recovered locally.
func RecordFallback(stage string) {
	AIFallbacksTotal.WithLabelValues(stage).Inc()
}

// ObserveRanking records resulting scores from a completed search.
func ObserveRanking(matchScore, similarity float64) {
	if matchScore >= 0 && matchScore <= 1 {
		MatchScoreHistogram.Observe(matchScore)
	}
	if similarity >= -1 && similarity <= 1 {
		SimilarityHistogram.Observe(similarity)
	}
}
