package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhooksTotal,
		webhookSignatureFailures,
	)
}

var (
	webhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Inbound payment webhooks by provider and outcome (processed/duplicate/rejected/error).",
		},
		[]string{"provider", "outcome"},
	)

	webhookSignatureFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_signature_failures_total",
			Help: "Webhooks rejected for a bad or missing signature, by provider.",
		},
		[]string{"provider"},
	)
)

func IncWebhook(provider, outcome string) {
	webhooksTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}

func IncWebhookSignatureFailure(provider string) {
	webhookSignatureFailures.WithLabelValues(norm(provider)).Inc()
}
