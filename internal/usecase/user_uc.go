// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/repository"
)

// Profile is the account view the API serves: identity, the active plan, and
// the derived subscription validity window (latest successful payment plus
// plan duration). The window is computed, never stored.
type Profile struct {
	User                  *model.User
	Plan                  *model.SubscriptionPlan
	SubscriptionExpiresAt *time.Time
}

var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
}

type userUC struct {
	users    repository.UserRepository
	payments repository.PaymentRepository
	plans    repository.SubscriptionPlanRepository
}

func NewUserUseCase(users repository.UserRepository, payments repository.PaymentRepository, plans repository.SubscriptionPlanRepository) *userUC {
	return &userUC{users: users, payments: payments, plans: plans}
}

func (u *userUC) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: user}
	if user.SubscriptionPlanID == nil {
		return profile, nil
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, *user.SubscriptionPlanID)
	if err != nil {
		return nil, err
	}
	profile.Plan = plan

	latest, err := u.payments.FindLatestSuccessByUser(ctx, repository.NoTX, userID)
	if err != nil {
		// A plan pointer without a successful payment (manual grant, data
		// migration) yields a plan with no window.
		if errors.Is(err, domain.ErrNotFound) {
			return profile, nil
		}
		return nil, err
	}
	profile.SubscriptionExpiresAt = user.SubscriptionExpiresAt(latest, plan)
	return profile, nil
}
