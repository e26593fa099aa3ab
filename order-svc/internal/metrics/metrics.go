// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersCreated counts order submissions by outcome ("ok" or an error kind).
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quiosco",
			Name:      "orders_created_total",
			Help:      "Order creation attempts by result.",
		},
		[]string{"result"},
	)

	// Notifications counts WhatsApp dispatches; errors never reach the customer.
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quiosco",
			Name:      "notifications_total",
			Help:      "Order notification dispatches by result.",
		},
		[]string{"result"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quiosco",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreated, Notifications, RequestDuration)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
