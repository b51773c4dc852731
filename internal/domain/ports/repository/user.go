package repository

import (
	"context"

	"studyplan-subscription/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	Save(ctx context.Context, tx Tx, u *model.User) error

	// SetPlan flips the denormalized subscription plan pointer. Repeating the
	// call with the same plan is a harmless no-op.
	SetPlan(ctx context.Context, tx Tx, userID, planID string) error
}
