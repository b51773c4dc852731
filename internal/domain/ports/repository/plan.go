package repository

import (
	"context"

	"studyplan-subscription/internal/domain/model"
)

type SubscriptionPlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
	Save(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
}
