package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, plan_id, method, amount, status, transaction_data, expires_at, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, user_id, plan_id, method, amount, status, transaction_data, expires_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  status=$6, transaction_data=$7, updated_at=$10;`

	txData, err := marshalTxData(p.TransactionData)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.PlanID, p.Method, p.Amount, p.Status, txData, p.ExpiresAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, wrapQueryErr(err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) MergeTransactionData(ctx context.Context, tx repository.Tx, id string, fields map[string]any) error {
	const q = `
UPDATE payments
   SET transaction_data = COALESCE(transaction_data, '{}'::jsonb) || $2::jsonb,
       updated_at = NOW()
 WHERE id = $1;`

	txData, err := marshalTxData(fields)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	cmd, err := execSQL(ctx, r.pool, tx, q, id, txData)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatusIfPending atomically sets the status and merges transaction
// fields only when the current status is still 'pending'. The guard makes
// webhook processing safe against a racing sweeper or duplicate delivery.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, fields map[string]any,
) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       transaction_data = COALESCE(transaction_data, '{}'::jsonb) || $3::jsonb,
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	txData, err := marshalTxData(fields)
	if err != nil {
		return false, domain.ErrInvalidArgument
	}
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), txData)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// ExpireOlderThan is the sweeper's single conditional write: every pending
// payment past its deadline flips to expired, rows already terminal are
// untouched.
func (r *paymentRepo) ExpireOlderThan(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE payments
   SET status = 'expired', updated_at = NOW()
 WHERE status = 'pending'
   AND expires_at < $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, wrapQueryErr(err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) FindLatestSuccessByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 AND status='success' ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func marshalTxData(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	return json.Marshal(fields)
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var txData []byte
	err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.Method, &p.Amount, &p.Status, &txData, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(txData) > 0 {
		if err := json.Unmarshal(txData, &p.TransactionData); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return p, nil
}

func collectPayments(rows pgx.Rows) ([]*model.Payment, error) {
	var out []*model.Payment
	for rows.Next() {
		p := &model.Payment{}
		var txData []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlanID, &p.Method, &p.Amount, &p.Status, &txData, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if len(txData) > 0 {
			if err := json.Unmarshal(txData, &p.TransactionData); err != nil {
				return nil, domain.ErrReadDatabaseRow
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func wrapQueryErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case err == domain.ErrInvalidArgument, err == domain.ErrInvalidExecContext:
		return err
	default:
		return domain.ErrOperationFailed
	}
}
