package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus metrics for provider calls and scoring runs.
type Recorder struct {
	providerCalls *prometheus.CounterVec
	quotaSkips    *prometheus.CounterVec
	tickersScored *prometheus.CounterVec
	runDuration   prometheus.Histogram
	quotaUsed     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funddash_provider_calls_total",
				Help: "Total provider fetch attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),
		quotaSkips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funddash_quota_skips_total",
				Help: "Fetches skipped because a provider had no quota",
			},
			[]string{"provider"},
		),
		tickersScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funddash_tickers_scored_total",
				Help: "Tickers processed by scoring runs, by result",
			},
			[]string{"result"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "funddash_run_duration_seconds",
				Help:    "Duration of scoring runs in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		quotaUsed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "funddash_quota_calls_used",
				Help: "Calls used today per provider",
			},
			[]string{"provider"},
		),
	}
}

// RecordProviderCall records a fetch attempt outcome for a provider.
func (r *Recorder) RecordProviderCall(provider, outcome string) {
	r.providerCalls.WithLabelValues(provider, outcome).Inc()
}

// RecordQuotaSkip records a candidate skipped for lack of quota.
func (r *Recorder) RecordQuotaSkip(provider string) {
	r.quotaSkips.WithLabelValues(provider).Inc()
}

// RecordTickerScored records one processed ticker by result
// (success, partial, failed, skipped).
func (r *Recorder) RecordTickerScored(result string) {
	r.tickersScored.WithLabelValues(result).Inc()
}

// RecordRunDuration records the wall-clock duration of a scoring run.
func (r *Recorder) RecordRunDuration(seconds float64) {
	r.runDuration.Observe(seconds)
}

// SetQuotaUsed sets the current daily call count for a provider.
func (r *Recorder) SetQuotaUsed(provider string, used int) {
	r.quotaUsed.WithLabelValues(provider).Set(float64(used))
}
