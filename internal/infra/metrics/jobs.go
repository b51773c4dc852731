package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsExpired,
		paymentsReconciled,
	)
}

var (
	paymentsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_expired_total",
			Help: "Pending payments moved to expired by the sweeper.",
		},
	)

	paymentsReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_reconciled_total",
			Help: "Stale pending payments finalized by the reconciler.",
		},
	)
)

func AddPaymentsExpired(n int64) {
	paymentsExpired.Add(float64(n))
}

func IncPaymentsReconciled() {
	paymentsReconciled.Inc()
}
