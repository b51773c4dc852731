// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/adapter"
	"studyplan-subscription/internal/domain/ports/repository"
	"studyplan-subscription/internal/infra/metrics"
)

const (
	signatureField = "signature"
	lockTTL        = 30 * time.Second
)

// Locker serializes concurrent deliveries for the same payment. Satisfied by
// the redis locker; nil disables locking (the conditional write still holds).
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ WebhookUseCase = (*webhookUC)(nil)

type WebhookUseCase interface {
	// Process runs the full webhook pipeline: verify the signature, locate the
	// payment, guard idempotency, classify the outcome, persist it with one
	// conditional write, and activate the subscription on success.
	Process(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error)
}

type webhookUC struct {
	payments   repository.PaymentRepository
	plans      repository.SubscriptionPlanRepository
	activation ActivationUseCase
	gateways   map[model.PaymentMethod]adapter.PaymentGateway
	locker     Locker
	log        *zerolog.Logger
}

func NewWebhookUseCase(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	activation ActivationUseCase,
	gateways []adapter.PaymentGateway,
	locker Locker,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	byMethod := make(map[model.PaymentMethod]adapter.PaymentGateway, len(gateways))
	for _, g := range gateways {
		byMethod[g.Name()] = g
	}
	return &webhookUC{
		payments:   payments,
		plans:      plans,
		activation: activation,
		gateways:   byMethod,
		locker:     locker,
		log:        &l,
	}
}

func (u *webhookUC) Process(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
	gw, ok := u.gateways[method]
	if !ok {
		return nil, domain.ErrMethodNotSupported
	}
	provider := string(method)

	if !gw.VerifyWebhookSignature(fields, fields[signatureField]) {
		metrics.IncWebhookSignatureFailure(provider)
		metrics.IncWebhook(provider, "rejected")
		u.log.Warn().Str("provider", provider).Msg("webhook signature verification failed")
		return nil, domain.ErrInvalidSignature
	}

	res, err := gw.ParseWebhook(fields)
	if err != nil {
		metrics.IncWebhook(provider, "rejected")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "payment:lock:"+res.OrderID, lockTTL)
		if err != nil {
			metrics.IncWebhook(provider, "error")
			return nil, err
		}
		defer func() { _ = u.locker.Unlock(ctx, "payment:lock:"+res.OrderID, token) }()
	}

	p, err := u.payments.FindByID(ctx, repository.NoTX, res.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncWebhook(provider, "rejected")
			u.log.Warn().Str("provider", provider).Str("order_id", res.OrderID).Msg("webhook references unknown payment")
		} else {
			metrics.IncWebhook(provider, "error")
		}
		return nil, err
	}

	// Duplicate delivery of a confirmation we already recorded.
	if p.Status == model.PaymentStatusSuccess {
		metrics.IncWebhook(provider, "duplicate")
		u.log.Info().Str("provider", provider).Str("payment_id", p.ID).Msg("duplicate webhook for settled payment")
		return p, nil
	}

	target := model.PaymentStatusFailed
	if res.Succeeded {
		target = model.PaymentStatusSuccess
	}

	updated, err := u.payments.UpdateStatusIfPending(ctx, repository.NoTX, p.ID, target, res.TransactionData)
	if err != nil {
		metrics.IncWebhook(provider, "error")
		return nil, err
	}
	if !updated {
		// Lost the race or the payment already left pending. Re-read to tell
		// a benign duplicate from a genuinely conflicting notification.
		p, err = u.payments.FindByID(ctx, repository.NoTX, p.ID)
		if err != nil {
			metrics.IncWebhook(provider, "error")
			return nil, err
		}
		if p.Status == model.PaymentStatusSuccess && res.Succeeded {
			metrics.IncWebhook(provider, "duplicate")
			return p, nil
		}
		metrics.IncWebhook(provider, "rejected")
		return nil, fmt.Errorf("%w: payment %s is %s", domain.ErrPaymentNotPending, p.ID, p.Status)
	}

	p.Status = target
	p.MergeTransactionData(res.TransactionData)
	p.UpdatedAt = time.Now()

	metrics.IncPayment(provider, string(target))
	if target == model.PaymentStatusSuccess {
		amt, _ := p.Amount.Float64()
		metrics.AddPaymentRevenue(provider, amt)
	}

	if target != model.PaymentStatusSuccess {
		metrics.IncWebhook(provider, "processed")
		u.log.Info().
			Str("provider", provider).
			Str("payment_id", p.ID).
			Str("status", string(target)).
			Msg("payment marked failed from webhook")
		return p, nil
	}

	if err := u.activate(ctx, p); err != nil {
		// The payment stays success; the books and the user's plan disagree
		// until an operator replays the activation.
		metrics.IncActivationFailure()
		metrics.IncWebhook(provider, "error")
		u.log.Error().Err(err).
			Str("payment_id", p.ID).
			Str("user_id", p.UserID).
			Str("plan_id", p.PlanID).
			Msg("payment settled but subscription activation failed")
		return p, err
	}

	metrics.IncWebhook(provider, "processed")
	u.log.Info().
		Str("provider", provider).
		Str("payment_id", p.ID).
		Str("user_id", p.UserID).
		Msg("payment settled and subscription activated")
	return p, nil
}

func (u *webhookUC) activate(ctx context.Context, p *model.Payment) error {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, p.PlanID)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", p.PlanID, err)
	}
	return u.activation.Activate(ctx, p.UserID, plan, p)
}
