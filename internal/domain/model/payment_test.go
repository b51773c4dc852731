//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"studyplan-subscription/internal/domain"
)

func TestNewPayment(t *testing.T) {
	t.Run("constructs a pending payment with a deadline", func(t *testing.T) {
		p, err := NewPayment("p1", "u1", "plan1", PaymentMethodMomo, decimal.NewFromInt(1000), 15*time.Minute)
		if err != nil {
			t.Fatalf("NewPayment: %v", err)
		}
		if p.Status != PaymentStatusPending {
			t.Errorf("status = %s", p.Status)
		}
		if !p.ExpiresAt.After(time.Now()) {
			t.Error("deadline not in the future")
		}
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
			if _, err := NewPayment("p1", "u1", "plan1", PaymentMethodMomo, amount, time.Minute); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("amount %s: err = %v, want ErrInvalidArgument", amount, err)
			}
		}
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		if _, err := NewPayment("", "u1", "plan1", PaymentMethodMomo, decimal.NewFromInt(1), time.Minute); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v", err)
		}
		if _, err := NewPayment("p1", "u1", "plan1", "", decimal.NewFromInt(1), time.Minute); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestPayment_CanTransition(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled}

	t.Run("pending may move to any terminal state", func(t *testing.T) {
		for _, to := range terminal {
			p := &Payment{Status: PaymentStatusPending}
			if !p.CanTransition(to) {
				t.Errorf("pending -> %s should be allowed", to)
			}
		}
	})

	t.Run("nothing may move back to pending", func(t *testing.T) {
		for _, from := range append(terminal, PaymentStatusPending) {
			p := &Payment{Status: from}
			if p.CanTransition(PaymentStatusPending) {
				t.Errorf("%s -> pending should be refused", from)
			}
		}
	})

	t.Run("terminal states admit no transition at all", func(t *testing.T) {
		for _, from := range terminal {
			for _, to := range terminal {
				p := &Payment{Status: from}
				if p.CanTransition(to) {
					t.Errorf("%s -> %s should be refused", from, to)
				}
			}
		}
	})
}

func TestPayment_Expired(t *testing.T) {
	now := time.Now()
	p := &Payment{ExpiresAt: now.Add(-time.Second)}
	if !p.Expired(now) {
		t.Error("past deadline not expired")
	}
	p.ExpiresAt = now.Add(time.Second)
	if p.Expired(now) {
		t.Error("future deadline expired")
	}
	p.ExpiresAt = time.Time{}
	if p.Expired(now) {
		t.Error("zero deadline treated as expired")
	}
}

func TestPayment_MergeTransactionData(t *testing.T) {
	p := &Payment{}
	p.MergeTransactionData(map[string]any{"a": 1, "b": "x"})
	p.MergeTransactionData(map[string]any{"b": "y", "c": true})
	if p.TransactionData["a"] != 1 || p.TransactionData["b"] != "y" || p.TransactionData["c"] != true {
		t.Errorf("merged = %v", p.TransactionData)
	}
}
