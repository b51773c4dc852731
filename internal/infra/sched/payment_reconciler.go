package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/repository"
	"studyplan-subscription/internal/infra/metrics"
	"studyplan-subscription/internal/infra/payment"
	"studyplan-subscription/internal/usecase"
)

// OrderQuerier is the slice of the SenPay gateway the reconciler needs.
type OrderQuerier interface {
	QueryOrderStatus(ctx context.Context, orderID string) (*payment.OrderStatus, error)
}

// PaymentReconciler periodically scans for stale pending payments and asks the
// provider for their real outcome. This covers webhooks that were lost or a
// process that crashed mid-confirmation. Only SenPay exposes an order query
// API; MoMo payments are left to expire and redeliver.
type PaymentReconciler struct {
	payments   repository.PaymentRepository
	plans      repository.SubscriptionPlanRepository
	activation usecase.ActivationUseCase
	senpay     OrderQuerier
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to query
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	activation usecase.ActivationUseCase,
	senpay OrderQuerier,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{
		payments:   payments,
		plans:      plans,
		activation: activation,
		senpay:     senpay,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &l,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale pending payments failed")
		return
	}
	for _, p := range pending {
		if p.Method != model.PaymentMethodSenpay {
			continue
		}
		if err := w.reconcile(ctx, p); err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconcile failed")
		}
	}
}

func (w *PaymentReconciler) reconcile(ctx context.Context, p *model.Payment) error {
	status, err := w.senpay.QueryOrderStatus(ctx, p.ID)
	if err != nil {
		return err
	}
	if !status.Paid() {
		// Still unpaid at the provider; leave it for the expiry sweep.
		return nil
	}

	fields := map[string]any{
		"order_status":   status.Status,
		"order_amount":   status.Amount,
		"transaction_id": status.TransactionID,
		"reconciled":     true,
	}
	updated, err := w.payments.UpdateStatusIfPending(ctx, repository.NoTX, p.ID, model.PaymentStatusSuccess, fields)
	if err != nil {
		return err
	}
	if !updated {
		// A webhook beat us to it.
		return nil
	}

	metrics.IncPaymentsReconciled()
	metrics.IncPayment(string(p.Method), string(model.PaymentStatusSuccess))
	amt, _ := p.Amount.Float64()
	metrics.AddPaymentRevenue(string(p.Method), amt)
	w.log.Info().Str("payment_id", p.ID).Msg("stale payment reconciled as paid")

	plan, err := w.plans.FindByID(ctx, repository.NoTX, p.PlanID)
	if err != nil {
		metrics.IncActivationFailure()
		return err
	}
	if err := w.activation.Activate(ctx, p.UserID, plan, p); err != nil {
		metrics.IncActivationFailure()
		return err
	}
	return nil
}
