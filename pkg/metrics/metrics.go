package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CheckoutMetrics struct {
	OrdersCreated    *prometheus.CounterVec
	CheckoutFailures *prometheus.CounterVec
	CheckoutSeconds  prometheus.Histogram
	IdempotentHits   prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &CheckoutMetrics{
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merchantry",
			Subsystem: "checkout",
			Name:      "orders_created_total",
			Help:      "Orders committed by the checkout orchestrator.",
		}, []string{"store"}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merchantry",
			Subsystem: "checkout",
			Name:      "failures_total",
			Help:      "Checkout attempts rejected, by failure reason.",
		}, []string{"reason"}),
		CheckoutSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "merchantry",
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "End-to-end CreateOrder latency.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		IdempotentHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merchantry",
			Subsystem: "checkout",
			Name:      "idempotent_replays_total",
			Help:      "Checkout calls answered from the idempotency cache.",
		}),
	}

	reg.MustRegister(m.OrdersCreated, m.CheckoutFailures, m.CheckoutSeconds, m.IdempotentHits)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
