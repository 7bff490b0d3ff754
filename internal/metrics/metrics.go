// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_exchange_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lead_exchange_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_exchange_purchases_total",
		Help: "Purchase attempts by outcome (sold, already_sold, contended, ...).",
	}, []string{"outcome"})

	SlotsAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lead_exchange_slots_allocated_total",
		Help: "Inventory slots transitioned to sold.",
	})
)

// PurchaseOutcome increments the purchase counter for one attempt result.
func PurchaseOutcome(outcome string) {
	PurchasesTotal.WithLabelValues(outcome).Inc()
}
