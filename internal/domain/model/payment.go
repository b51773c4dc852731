package model

import (
	"time"

	"github.com/shopspring/decimal"

	"studyplan-subscription/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created; awaiting provider webhook
	PaymentStatusSuccess   PaymentStatus = "success"   // provider confirmed the payment
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported a failure
	PaymentStatusExpired   PaymentStatus = "expired"   // no outcome before the deadline
	PaymentStatusCancelled PaymentStatus = "cancelled" // user/admin cancel
)

// Terminal reports whether the status admits no further transition.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodMomo   PaymentMethod = "momo"
	PaymentMethodSenpay PaymentMethod = "senpay"
)

// Payment records one attempt to pay for one subscription plan. Its ID doubles
// as the provider-side order/invoice reference. Rows are never deleted; they
// stay around as the audit trail.
type Payment struct {
	ID              string
	UserID          string
	PlanID          string
	Method          PaymentMethod
	Amount          decimal.Decimal
	Status          PaymentStatus
	TransactionData map[string]any // provider request id, pay/checkout URL, raw response fields (JSONB)
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPayment validates and constructs a pending payment with the given
// expiration window.
func NewPayment(id, userID, planID string, method PaymentMethod, amount decimal.Decimal, expiry time.Duration) (*Payment, error) {
	if id == "" || userID == "" || planID == "" || method == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:        id,
		UserID:    userID,
		PlanID:    planID,
		Method:    method,
		Amount:    amount,
		Status:    PaymentStatusPending,
		ExpiresAt: now.Add(expiry),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanTransition reports whether moving to `to` is allowed. Transitions are
// one-directional: only a pending payment may move, and never back to pending.
func (p *Payment) CanTransition(to PaymentStatus) bool {
	if p.Status.Terminal() {
		return false
	}
	return to != PaymentStatusPending && to.Terminal()
}

func (p *Payment) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && p.ExpiresAt.Before(now)
}

func (p *Payment) Success() bool { return p.Status == PaymentStatusSuccess }
func (p *Payment) Pending() bool { return p.Status == PaymentStatusPending }

// MergeTransactionData overlays provider fields onto the stored blob without
// dropping what was captured at creation time.
func (p *Payment) MergeTransactionData(fields map[string]any) {
	if p.TransactionData == nil {
		p.TransactionData = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		p.TransactionData[k] = v
	}
}
