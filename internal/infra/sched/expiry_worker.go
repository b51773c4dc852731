package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"studyplan-subscription/internal/domain/ports/repository"
	"studyplan-subscription/internal/infra/metrics"
)

// ExpiryWorker periodically sweeps pending payments past their deadline.
type ExpiryWorker struct {
	interval time.Duration
	payments repository.PaymentRepository
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, payments repository.PaymentRepository, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		interval: interval,
		payments: payments,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.payments.ExpireOlderThan(ctx, repository.NoTX, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				metrics.AddPaymentsExpired(n)
				w.log.Info().Int64("count", n).Msg("pending payments expired")
			}
		}
	}
}
