//go:build !integration

// File: internal/usecase/payment_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"studyplan-subscription/internal/config"
	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/adapter"
	"studyplan-subscription/internal/domain/ports/repository"
)

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		Expiry: 15 * time.Minute,
		Momo:   config.MomoConfig{RedirectURL: "https://app.example/return", IPNURL: "https://app.example/webhooks/momo"},
		Senpay: config.SenpayConfig{ReturnURL: "https://app.example/return", IPNURL: "https://app.example/webhooks/senpay"},
	}
}

func seedPlan(t *testing.T, plans *memPlanRepo, id string, price int64, active bool) *model.SubscriptionPlan {
	t.Helper()
	plan, err := model.NewSubscriptionPlan(id, "Plan "+id, decimal.NewFromInt(price), 30)
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	plan.IsActive = active
	if err := plans.Save(context.Background(), repository.NoTX, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

func TestPaymentUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a pending payment and attach the checkout URL", func(t *testing.T) {
		payments := newMemPaymentRepo()
		plans := newMemPlanRepo()
		seedPlan(t, plans, "plan-1", 50000, true)

		var gotReq adapter.CreateRequest
		gw := &mockGateway{name: model.PaymentMethodMomo}
		gw.CreatePaymentFunc = func(ctx context.Context, req adapter.CreateRequest) (*adapter.CreateResult, error) {
			gotReq = req
			return &adapter.CreateResult{
				PayURL:    "https://pay.momo.vn/abc",
				RequestID: "req-1",
				Raw:       map[string]any{"message": "Success"},
			}, nil
		}

		uc := NewPaymentUseCase(payments, plans, []adapter.PaymentGateway{gw}, testPaymentConfig(), newTestLogger())

		p, err := uc.Create(ctx, "user-1", "plan-1", model.PaymentMethodMomo)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if p.Status != model.PaymentStatusPending {
			t.Errorf("status = %s, want pending", p.Status)
		}
		if !p.Amount.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("amount = %s, want 50000", p.Amount)
		}
		if got := p.TransactionData["pay_url"]; got != "https://pay.momo.vn/abc" {
			t.Errorf("pay_url = %v", got)
		}
		if gotReq.OrderID != p.ID {
			t.Errorf("gateway order id = %s, want payment id %s", gotReq.OrderID, p.ID)
		}
		if gotReq.NotifyURL != "https://app.example/webhooks/momo" {
			t.Errorf("notify url = %s", gotReq.NotifyURL)
		}

		stored, err := payments.FindByID(ctx, repository.NoTX, p.ID)
		if err != nil {
			t.Fatalf("stored payment missing: %v", err)
		}
		if got := stored.TransactionData["request_id"]; got != "req-1" {
			t.Errorf("stored request_id = %v", got)
		}
		wantExpiry := time.Now().Add(15 * time.Minute)
		if stored.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || stored.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
			t.Errorf("expiry %s not near %s", stored.ExpiresAt, wantExpiry)
		}
	})

	t.Run("should leave the pending row when the gateway call fails", func(t *testing.T) {
		payments := newMemPaymentRepo()
		plans := newMemPlanRepo()
		seedPlan(t, plans, "plan-1", 50000, true)

		gatewayErr := errors.New("provider unreachable")
		gw := &mockGateway{name: model.PaymentMethodMomo}
		gw.CreatePaymentFunc = func(ctx context.Context, req adapter.CreateRequest) (*adapter.CreateResult, error) {
			return nil, gatewayErr
		}

		uc := NewPaymentUseCase(payments, plans, []adapter.PaymentGateway{gw}, testPaymentConfig(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", "plan-1", model.PaymentMethodMomo)
		if !errors.Is(err, gatewayErr) {
			t.Fatalf("err = %v, want gateway error", err)
		}

		// The audit row must survive the failure, still pending.
		list, err := payments.ListByUser(ctx, repository.NoTX, "user-1")
		if err != nil || len(list) != 1 {
			t.Fatalf("payments = %v, err = %v, want one row", list, err)
		}
		if list[0].Status != model.PaymentStatusPending {
			t.Errorf("status = %s, want pending", list[0].Status)
		}
	})

	t.Run("should reject an inactive plan", func(t *testing.T) {
		payments := newMemPaymentRepo()
		plans := newMemPlanRepo()
		seedPlan(t, plans, "plan-1", 50000, false)
		gw := &mockGateway{name: model.PaymentMethodMomo}
		uc := NewPaymentUseCase(payments, plans, []adapter.PaymentGateway{gw}, testPaymentConfig(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", "plan-1", model.PaymentMethodMomo)
		if !errors.Is(err, domain.ErrPlanInactive) {
			t.Fatalf("err = %v, want ErrPlanInactive", err)
		}
	})

	t.Run("should reject an unknown plan", func(t *testing.T) {
		uc := NewPaymentUseCase(newMemPaymentRepo(), newMemPlanRepo(),
			[]adapter.PaymentGateway{&mockGateway{name: model.PaymentMethodMomo}}, testPaymentConfig(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", "missing", model.PaymentMethodMomo)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("should reject a method with no registered gateway", func(t *testing.T) {
		plans := newMemPlanRepo()
		seedPlan(t, plans, "plan-1", 50000, true)
		uc := NewPaymentUseCase(newMemPaymentRepo(), plans,
			[]adapter.PaymentGateway{&mockGateway{name: model.PaymentMethodMomo}}, testPaymentConfig(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", "plan-1", model.PaymentMethodSenpay)
		if !errors.Is(err, domain.ErrMethodNotSupported) {
			t.Fatalf("err = %v, want ErrMethodNotSupported", err)
		}
	})

	t.Run("should honor a per-plan payment method restriction", func(t *testing.T) {
		plans := newMemPlanRepo()
		plan := seedPlan(t, plans, "plan-1", 50000, true)
		plan.Features = map[string]any{"payment_methods": []any{"senpay"}}
		_ = plans.Save(ctx, repository.NoTX, plan)

		uc := NewPaymentUseCase(newMemPaymentRepo(), plans,
			[]adapter.PaymentGateway{&mockGateway{name: model.PaymentMethodMomo}}, testPaymentConfig(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", "plan-1", model.PaymentMethodMomo)
		if !errors.Is(err, domain.ErrMethodNotSupported) {
			t.Fatalf("err = %v, want ErrMethodNotSupported", err)
		}
	})
}

func TestPaymentUseCase_GetForUser(t *testing.T) {
	ctx := context.Background()
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	seedPlan(t, plans, "plan-1", 1000, true)

	p, _ := model.NewPayment("pay-1", "user-1", "plan-1", model.PaymentMethodMomo, decimal.NewFromInt(1000), time.Minute)
	_ = payments.Save(ctx, repository.NoTX, p)

	uc := NewPaymentUseCase(payments, plans,
		[]adapter.PaymentGateway{&mockGateway{name: model.PaymentMethodMomo}}, testPaymentConfig(), newTestLogger())

	t.Run("owner can read the payment", func(t *testing.T) {
		got, err := uc.GetForUser(ctx, "user-1", "pay-1")
		if err != nil || got.ID != "pay-1" {
			t.Fatalf("got %v, err %v", got, err)
		}
	})

	t.Run("other users see not found", func(t *testing.T) {
		_, err := uc.GetForUser(ctx, "user-2", "pay-1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
