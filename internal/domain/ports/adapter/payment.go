package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"studyplan-subscription/internal/domain/model"
)

// CreateRequest carries everything a provider needs to open a payment.
// OrderID is our payment id and becomes the provider's invoice reference.
type CreateRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Description string
	ReturnURL   string
	NotifyURL   string
}

// CreateResult is the normalized outcome of a payment-creation call. Raw keeps
// the provider's response fields verbatim for audit storage.
type CreateResult struct {
	PayURL      string
	CheckoutURL string
	RequestID   string
	Raw         map[string]any
}

// WebhookResult is the normalized reading of an inbound webhook after
// provider-specific classification.
type WebhookResult struct {
	OrderID         string
	Succeeded       bool
	TransactionData map[string]any
}

// PaymentGateway is the port for payment providers. Implementations are
// stateless and re-entrant; selection happens by the payment's method so no
// provider branching leaks into call sites.
type PaymentGateway interface {
	Name() model.PaymentMethod

	// CreatePayment builds the signed provider payload, posts it with bounded
	// retry, and returns the normalized result or a failure carrying the
	// provider's error message.
	CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error)

	// VerifyWebhookSignature recomputes the canonical signature over the
	// webhook fields with the provider secret.
	VerifyWebhookSignature(fields map[string]string, signature string) bool

	// ParseWebhook extracts the order reference, classifies the provider's
	// success indicator, and collects transaction fields for persistence.
	ParseWebhook(fields map[string]string) (*WebhookResult, error)
}
