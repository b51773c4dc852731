// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/repository"
)

var _ ActivationUseCase = (*activationUC)(nil)

type ActivationUseCase interface {
	// Activate points the user at the paid plan. Activating a plan the user
	// already holds is a no-op rewrite of the same pointer.
	Activate(ctx context.Context, userID string, plan *model.SubscriptionPlan, payment *model.Payment) error
}

type activationUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewActivationUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *activationUC {
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{users: users, tm: tm, log: &l}
}

func (u *activationUC) Activate(ctx context.Context, userID string, plan *model.SubscriptionPlan, payment *model.Payment) error {
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.users.SetPlan(ctx, tx, userID, plan.ID)
	})
	if err != nil {
		return err
	}

	u.log.Info().
		Str("user_id", userID).
		Str("plan_id", plan.ID).
		Str("payment_id", payment.ID).
		Msg("subscription activated")
	return nil
}
