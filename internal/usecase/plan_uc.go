// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/repository"
)

var _ SubscriptionPlanUseCase = (*planUC)(nil)

// SubscriptionPlanUseCase exposes the read-only plan catalog.
type SubscriptionPlanUseCase interface {
	ListActive(ctx context.Context) ([]*model.SubscriptionPlan, error)
	Get(ctx context.Context, id string) (*model.SubscriptionPlan, error)
}

type planUC struct {
	plans repository.SubscriptionPlanRepository
}

func NewSubscriptionPlanUseCase(plans repository.SubscriptionPlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) ListActive(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return u.plans.ListActive(ctx, repository.NoTX)
}

func (u *planUC) Get(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	return u.plans.FindByID(ctx, repository.NoTX, id)
}
