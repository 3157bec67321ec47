package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promobank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promobank_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promobank_balance_credits_total",
			Help: "Total number of successful balance credits",
		},
	)

	DebitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promobank_balance_debits_total",
			Help: "Total number of successful balance debits",
		},
	)

	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promobank_promocode_redemptions_total",
			Help: "Total number of promocode redemption attempts",
		},
		[]string{"outcome"},
	)

	NotifierQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "promobank_notifier_queue_length",
			Help: "Current length of the notifier event queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

func RecordRedemption(outcome string) {
	RedemptionsTotal.WithLabelValues(outcome).Inc()
}
