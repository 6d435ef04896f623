package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_http_requests_total",
			Help: "Total number of API requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempo_http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	IdempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_idempotent_replays_total",
			Help: "Requests answered from a stored idempotent response",
		},
	)

	// Billing clock metrics
	ClockTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_clock_transitions_total",
			Help: "Clock start, stop and reset operations",
		},
		[]string{"action", "mode"},
	)

	ClockExpirations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_clock_expirations_total",
			Help: "Countdown timers stopped automatically at zero",
		},
	)

	RunningClocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempo_running_countdowns",
			Help: "Running countdown timers seen by the last expiry sweep",
		},
	)

	// Cart and settlement metrics
	CartLinesAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_cart_lines_added_total",
			Help: "Cart lines added, by source",
		},
		[]string{"source"},
	)

	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_settlements_total",
			Help: "Checkout settlements by payment method and outcome",
		},
		[]string{"method", "outcome"},
	)

	SettlementAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_settlement_amount_total",
			Help: "Sum of settled totals in currency units",
		},
		[]string{"method"},
	)

	StockShortages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_stock_shortages_total",
			Help: "Stock-linked lines charged without a stock decrement",
		},
	)

	// Event metrics
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_events_published_total",
			Help: "Notifications published on the event bus",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		IdempotentReplays,
		ClockTransitions,
		ClockExpirations,
		RunningClocks,
		CartLinesAdded,
		SettlementsTotal,
		SettlementAmount,
		StockShortages,
		EventsPublished,
	)
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
