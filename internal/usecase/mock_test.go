//go:build !integration

// File: internal/usecase/mock_test.go
package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/adapter"
	"studyplan-subscription/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memPaymentRepo is a small in-memory implementation used by unit tests.
type memPaymentRepo struct {
	mu       sync.RWMutex
	store    map[string]*model.Payment
	saveErr  error // simulate save failures
	mergeErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPaymentRepo) MergeTransactionData(ctx context.Context, tx repository.Tx, id string, fields map[string]any) error {
	if m.mergeErr != nil {
		return m.mergeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.MergeTransactionData(fields)
	return nil
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, nil
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.MergeTransactionData(fields)
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) ExpireOlderThan(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.ExpiresAt.Before(now) {
			p.Status = model.PaymentStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPaymentRepo) FindLatestSuccessByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Payment
	for _, p := range m.store {
		if p.UserID == userID && p.Status == model.PaymentStatusSuccess {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.SubscriptionPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{store: make(map[string]*model.SubscriptionPlan)}
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.SubscriptionPlan
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.store[plan.ID] = &cp
	return nil
}

type memUserRepo struct {
	mu         sync.RWMutex
	store      map[string]*model.User
	setPlanErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) SetPlan(ctx context.Context, tx repository.Tx, userID, planID string) error {
	if m.setPlanErr != nil {
		return m.setPlanErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.SubscriptionPlanID = &planID
	return nil
}

// mockTxManager runs the function directly without a real transaction.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// mockGateway lets tests script each port method.
type mockGateway struct {
	name              model.PaymentMethod
	CreatePaymentFunc func(ctx context.Context, req adapter.CreateRequest) (*adapter.CreateResult, error)
	VerifyFunc        func(fields map[string]string, signature string) bool
	ParseWebhookFunc  func(fields map[string]string) (*adapter.WebhookResult, error)
}

func (m *mockGateway) Name() model.PaymentMethod { return m.name }

func (m *mockGateway) CreatePayment(ctx context.Context, req adapter.CreateRequest) (*adapter.CreateResult, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return &adapter.CreateResult{PayURL: "https://pay.example/" + req.OrderID}, nil
}

func (m *mockGateway) VerifyWebhookSignature(fields map[string]string, signature string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(fields, signature)
	}
	return true
}

func (m *mockGateway) ParseWebhook(fields map[string]string) (*adapter.WebhookResult, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(fields)
	}
	return &adapter.WebhookResult{
		OrderID:         fields["orderId"],
		Succeeded:       fields["resultCode"] == "0",
		TransactionData: map[string]any{"result_code": fields["resultCode"]},
	}, nil
}

// mockActivation records calls and can be scripted to fail.
type mockActivation struct {
	mu    sync.Mutex
	calls []string // payment ids
	err   error
}

func (m *mockActivation) Activate(ctx context.Context, userID string, plan *model.SubscriptionPlan, payment *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, payment.ID)
	return m.err
}

func (m *mockActivation) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockLocker counts lock traffic; err simulates a held lock.
type mockLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lockErr  error
	lastKey  string
	lastTTL  time.Duration
	tokenSeq int
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockErr != nil {
		return "", m.lockErr
	}
	m.locks++
	m.lastKey = key
	m.lastTTL = ttl
	m.tokenSeq++
	return "tok", nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocks++
	return nil
}
