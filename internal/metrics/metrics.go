package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	TransitionsRejected  *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	OrdersCreated        prometheus.Counter
}

// MustNewMetrics creates and registers the service counters.
func MustNewMetrics() *Metrics {
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_svc",
		Name:      "status_transitions_total",
		Help:      "Successful order status transitions.",
	}, []string{"from", "to"})

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_svc",
		Name:      "status_transitions_rejected_total",
		Help:      "Rejected order status transition requests.",
	}, []string{"reason"})

	notificationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "order_svc",
		Name:      "notification_dispatch_failures_total",
		Help:      "Status-change notifications that could not be published and were parked in the outbox.",
	})

	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "order_svc",
		Name:      "orders_created_total",
		Help:      "Orders created through checkout.",
	})

	prometheus.MustRegister(transitions, rejected, notificationFailures, ordersCreated)

	return &Metrics{
		TransitionsTotal:     transitions,
		TransitionsRejected:  rejected,
		NotificationFailures: notificationFailures,
		OrdersCreated:        ordersCreated,
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
