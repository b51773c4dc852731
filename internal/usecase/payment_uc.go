// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studyplan-subscription/internal/config"
	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/adapter"
	"studyplan-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Create validates the plan/method pair, persists a pending payment with
	// an expiration deadline, and opens the payment at the provider. The
	// returned payment carries the provider's checkout target in its
	// transaction data.
	Create(ctx context.Context, userID, planID string, method model.PaymentMethod) (*model.Payment, error)
	// ListByUser returns the user's payments, newest first.
	ListByUser(ctx context.Context, userID string) ([]*model.Payment, error)
	// GetForUser returns one payment, rejecting ids owned by someone else.
	GetForUser(ctx context.Context, userID, paymentID string) (*model.Payment, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	plans    repository.SubscriptionPlanRepository
	gateways map[model.PaymentMethod]adapter.PaymentGateway
	cfg      config.PaymentConfig
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	gateways []adapter.PaymentGateway,
	cfg config.PaymentConfig,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	byMethod := make(map[model.PaymentMethod]adapter.PaymentGateway, len(gateways))
	for _, g := range gateways {
		byMethod[g.Name()] = g
	}
	return &paymentUC{payments: payments, plans: plans, gateways: byMethod, cfg: cfg, log: &l}
}

func (u *paymentUC) Create(ctx context.Context, userID, planID string, method model.PaymentMethod) (*model.Payment, error) {
	if userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	gw, ok := u.gateways[method]
	if !ok {
		return nil, domain.ErrMethodNotSupported
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanInactive
	}
	if !planSupportsMethod(plan, method) {
		return nil, domain.ErrMethodNotSupported
	}

	p, err := model.NewPayment(uuid.NewString(), userID, planID, method, plan.Price, u.cfg.Expiry)
	if err != nil {
		return nil, err
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}

	returnURL, notifyURL := u.callbackURLs(method)
	result, err := gw.CreatePayment(ctx, adapter.CreateRequest{
		OrderID:     p.ID,
		Amount:      p.Amount,
		Description: fmt.Sprintf("Subscription: %s", plan.Name),
		ReturnURL:   returnURL,
		NotifyURL:   notifyURL,
	})
	if err != nil {
		// The pending row stays as-is and will expire via the sweeper; a
		// retried attempt can then reuse gateway-visible state if desired.
		u.log.Error().Err(err).Str("payment_id", p.ID).Str("method", string(method)).Msg("gateway payment request failed")
		return nil, err
	}

	txData := map[string]any{}
	for k, v := range result.Raw {
		txData[k] = v
	}
	if result.RequestID != "" {
		txData["request_id"] = result.RequestID
	}
	if result.PayURL != "" {
		txData["pay_url"] = result.PayURL
	}
	if result.CheckoutURL != "" {
		txData["checkout_url"] = result.CheckoutURL
	}
	if err := u.payments.MergeTransactionData(ctx, repository.NoTX, p.ID, txData); err != nil {
		return nil, err
	}
	p.MergeTransactionData(txData)

	u.log.Info().
		Str("payment_id", p.ID).
		Str("user_id", userID).
		Str("plan_id", planID).
		Str("method", string(method)).
		Msg("payment created")
	return p, nil
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.payments.ListByUser(ctx, repository.NoTX, userID)
}

func (u *paymentUC) GetForUser(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		// Don't leak existence of other users' payments.
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (u *paymentUC) callbackURLs(method model.PaymentMethod) (returnURL, notifyURL string) {
	switch method {
	case model.PaymentMethodMomo:
		return u.cfg.Momo.RedirectURL, u.cfg.Momo.IPNURL
	case model.PaymentMethodSenpay:
		return u.cfg.Senpay.ReturnURL, u.cfg.Senpay.IPNURL
	}
	return "", ""
}

// planSupportsMethod honors an optional per-plan channel restriction kept in
// the features blob; plans without one accept every registered method.
func planSupportsMethod(plan *model.SubscriptionPlan, method model.PaymentMethod) bool {
	raw, ok := plan.Features["payment_methods"]
	if !ok {
		return true
	}
	list, ok := raw.([]any)
	if !ok {
		return true
	}
	for _, v := range list {
		if s, ok := v.(string); ok && s == string(method) {
			return true
		}
	}
	return false
}
