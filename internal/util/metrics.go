package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders confirmed paid via webhook",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order creations",
	}, []string{"reason"})

	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Total number of checkout session creation attempts",
	}, []string{"result"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_received_total",
		Help: "Total number of payment webhooks received",
	}, []string{"type", "result"})

	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Total number of stock adjustments applied",
	}, []string{"result"})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Total number of low-stock alert batches published",
	})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of notification emails attempted",
	}, []string{"kind", "result"})

	StatsCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_stats_cache_total",
		Help: "Admin stats cache lookups",
	}, []string{"result"})

	CheckoutSessionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_session_latency_seconds",
		Help:    "Latency of hosted checkout session creation",
		Buckets: prometheus.DefBuckets,
	})

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
