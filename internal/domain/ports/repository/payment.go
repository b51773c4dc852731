package repository

import (
	"context"
	"time"

	"studyplan-subscription/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Payment, error)

	// MergeTransactionData overlays provider fields onto the stored JSONB blob.
	MergeTransactionData(ctx context.Context, tx Tx, id string, fields map[string]any) error

	// UpdateStatusIfPending atomically sets the status and merges transaction
	// fields only when the current status is still 'pending'. Returns false
	// when the row was already terminal (lost race or duplicate delivery).
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, fields map[string]any) (bool, error)

	// ExpireOlderThan transitions every pending payment whose expiration
	// deadline passed before `now` to 'expired' in one conditional statement,
	// returning the number of rows moved.
	ExpireOlderThan(ctx context.Context, tx Tx, now time.Time) (int64, error)

	// ListPendingOlderThan feeds the reconciler: pending payments created
	// before the cutoff, oldest first.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// FindLatestSuccessByUser returns the most recent successful payment, used
	// to derive the subscription validity window.
	FindLatestSuccessByUser(ctx context.Context, tx Tx, userID string) (*model.Payment, error)
}
