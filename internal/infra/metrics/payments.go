package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		activationFailuresTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by terminal outcome (success/failed/expired/cancelled) and method.",
		},
		[]string{"method", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of successful payments by method.",
		},
		[]string{"method"},
	)

	activationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_activation_failures_total",
			Help: "Payments persisted as success whose subscription activation failed; requires reconciliation.",
		},
	)
)

func IncPayment(method, status string) {
	paymentsTotal.WithLabelValues(norm(method), norm(status)).Inc()
}

func AddPaymentRevenue(method string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(method)).Add(amount)
}

func IncActivationFailure() {
	activationFailuresTotal.Inc()
}
