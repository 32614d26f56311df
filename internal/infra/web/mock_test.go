//go:build !integration

package web_test

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type MockProgressUC struct {
	GetStatsFunc       func(ctx context.Context, userID string) (*model.ProgressRecord, []model.AchievementStatus, error)
	RecordExerciseFunc func(ctx context.Context, userID string, completedAt time.Time) (*model.ProgressRecord, error)
}

var _ usecase.ProgressUseCase = (*MockProgressUC)(nil)

func (m *MockProgressUC) GetStats(ctx context.Context, userID string) (*model.ProgressRecord, []model.AchievementStatus, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx, userID)
	}
	rec := model.NewProgressRecord(userID)
	return rec, model.EvaluateAchievements(rec), nil
}

func (m *MockProgressUC) RecordExercise(ctx context.Context, userID string, completedAt time.Time) (*model.ProgressRecord, error) {
	if m.RecordExerciseFunc != nil {
		return m.RecordExerciseFunc(ctx, userID, completedAt)
	}
	rec := model.NewProgressRecord(userID)
	rec.RecordExercise(completedAt)
	return rec, nil
}

type MockSubscriptionUC struct {
	GetStatusFunc func(ctx context.Context, userID string) (model.StatusView, error)
}

var _ usecase.SubscriptionUseCase = (*MockSubscriptionUC)(nil)

func (m *MockSubscriptionUC) GetStatus(ctx context.Context, userID string) (model.StatusView, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, userID)
	}
	return model.StatusView{Tier: model.TierNone}, nil
}

func (m *MockSubscriptionUC) CommitPurchase(ctx context.Context, userID string, tier model.Tier, paidAt time.Time) (*model.SubscriptionRecord, error) {
	rec := model.NewSubscriptionRecord(userID)
	if err := rec.ApplyPurchase(tier, paidAt); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *MockSubscriptionUC) CountActiveByTier(ctx context.Context) (map[model.Tier]int, error) {
	return map[model.Tier]int{}, nil
}

type MockPurchaseUC struct {
	PurchaseFunc func(ctx context.Context, userID string, tier model.Tier) (*usecase.PurchaseResult, error)
}

var _ usecase.PurchaseUseCase = (*MockPurchaseUC)(nil)

func (m *MockPurchaseUC) Purchase(ctx context.Context, userID string, tier model.Tier) (*usecase.PurchaseResult, error) {
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, userID, tier)
	}
	expires := time.Now().Add(model.TierDuration(tier))
	view := model.StatusView{Tier: tier, IsActive: true, ExpiresAt: &expires}
	return &usecase.PurchaseResult{Success: true, Outcome: usecase.OutcomeCommitted, Subscription: &view}, nil
}

type MockIdentity struct {
	ResolveFunc func(ctx context.Context, credential string) (*model.User, error)
}

func (m *MockIdentity) Resolve(ctx context.Context, credential string) (*model.User, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, credential)
	}
	if credential != "valid-init-data" {
		return nil, domain.ErrUnauthorized
	}
	return model.NewUser(42, "Maria", "K", "maria_k", "")
}
