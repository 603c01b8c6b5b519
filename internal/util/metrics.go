package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConstraintViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_constraint_violations_total",
		Help: "Writes rejected by a database constraint",
	}, []string{"kind", "operation"})

	SeedRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_seed_runs_total",
		Help: "Seed procedure runs by result",
	}, []string{"result"})

	SeedRowsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_seed_rows_created_total",
		Help: "Rows inserted by the seed procedure",
	}, []string{"table"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_transitions_total",
		Help: "Order status transitions by target status",
	}, []string{"from", "to"})

	ReviewsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reviews_submitted_total",
		Help: "Review submissions by result",
	}, []string{"result"})

	NewsletterSignupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_newsletter_signups_total",
		Help: "Newsletter signups by result",
	}, []string{"result"})

	CheckoutEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_events_total",
		Help: "Payment processor events by type and result",
	}, []string{"type", "result"})

	CheckoutEventLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_event_latency_seconds",
		Help:    "Latency of payment processor event handling",
		Buckets: prometheus.DefBuckets,
	})

	ConsumerRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_consumer_retries_total",
		Help: "Kafka messages whose handler failed and will be retried",
	}, []string{"topic"})

	ConsumerMessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_consumer_messages_dropped_total",
		Help: "Kafka messages committed after a permanent handler failure",
	}, []string{"topic"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
