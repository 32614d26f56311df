//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/repository"
	"github.com/marselbeijing/ispeech-helper/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// ---- Mock TransactionManager ----

// MockTxManager runs callbacks inline with a nil tx; WithUserTx additionally
// serializes per user the way the Postgres advisory lock does.
type MockTxManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{locks: make(map[string]*sync.Mutex)}
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

func (m *MockTxManager) WithUserTx(ctx context.Context, userID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(ctx, nil)
}

// ---- Mock ProgressRepository ----

type MockProgressRepo struct {
	mu      sync.Mutex
	records map[string]*model.ProgressRecord

	FindFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.ProgressRecord, error)
	SaveFunc func(ctx context.Context, tx repository.Tx, rec *model.ProgressRecord) error
}

var _ repository.ProgressRepository = (*MockProgressRepo)(nil)

func NewMockProgressRepo() *MockProgressRepo {
	return &MockProgressRepo{records: make(map[string]*model.ProgressRecord)}
}

func (m *MockProgressRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.ProgressRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	cp.ActivityDates = append([]time.Time(nil), rec.ActivityDates...)
	return &cp, nil
}

func (m *MockProgressRepo) Save(ctx context.Context, tx repository.Tx, rec *model.ProgressRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.ActivityDates = append([]time.Time(nil), rec.ActivityDates...)
	m.records[rec.UserID] = &cp
	return nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu      sync.Mutex
	records map[string]*model.SubscriptionRecord

	FindFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error)
	SaveFunc func(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{records: make(map[string]*model.SubscriptionRecord)}
}

func (m *MockSubscriptionRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	if rec.ExpiresAt != nil {
		e := *rec.ExpiresAt
		cp.ExpiresAt = &e
	}
	return &cp, nil
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	if rec.ExpiresAt != nil {
		e := *rec.ExpiresAt
		cp.ExpiresAt = &e
	}
	m.records[rec.UserID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) CountActiveByTier(ctx context.Context) (map[model.Tier]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.Tier]int)
	now := time.Now()
	for _, rec := range m.records {
		if rec.IsActiveAt(now) {
			out[rec.Tier]++
		}
	}
	return out, nil
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu      sync.Mutex
	Charges []MockCharge

	ChargeFunc func(ctx context.Context, userID string, tier model.Tier, priceStars int64) (adapter.ChargeResult, error)
}

type MockCharge struct {
	UserID string
	Tier   model.Tier
	Price  int64
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Charge(ctx context.Context, userID string, tier model.Tier, priceStars int64) (adapter.ChargeResult, error) {
	m.mu.Lock()
	m.Charges = append(m.Charges, MockCharge{UserID: userID, Tier: tier, Price: priceStars})
	m.mu.Unlock()
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, userID, tier, priceStars)
	}
	return adapter.ChargeResult{Confirmed: true, RefID: "ref-1"}, nil
}

// ---- Mock ProgressCache ----

type MockProgressCache struct {
	mu          sync.Mutex
	snapshots   map[string]*model.ProgressRecord
	Invalidated []string
}

var _ usecase.ProgressCache = (*MockProgressCache)(nil)

func NewMockProgressCache() *MockProgressCache {
	return &MockProgressCache{snapshots: make(map[string]*model.ProgressRecord)}
}

func (m *MockProgressCache) Get(ctx context.Context, userID string) (*model.ProgressRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.snapshots[userID]
	return rec, ok
}

func (m *MockProgressCache) Store(ctx context.Context, rec *model.ProgressRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[rec.UserID] = rec
}

func (m *MockProgressCache) Invalidate(ctx context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, userID)
	m.Invalidated = append(m.Invalidated, userID)
}
