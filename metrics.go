package eleve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirror the way shards/sched.go in the teacher tracks scheduler
// state with promauto-registered collectors: package-level counters an
// embedding process can scrape without the engine owning an HTTP server
// itself (serving /metrics is the embedder's concern, out of scope here).
var (
	metricNgramsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eleve_ngrams_added_total",
		Help: "Total number of ngrams passed to AddSentence, across both tries.",
	})
	metricUpdateStatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eleve_update_stats_total",
		Help: "Total number of UpdateStats passes that found the index dirty and recomputed entropy.",
	})
	metricSegmentCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eleve_segment_calls_total",
		Help: "Total number of Segment calls.",
	})
	metricSegmentTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eleve_segment_input_tokens",
		Help:    "Distribution of input token-sequence lengths passed to Segment.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
