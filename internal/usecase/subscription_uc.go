package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase owns the authoritative subscription record and its
// transition rules. Expiry is evaluated lazily on every read; there is no
// background sweep and the stored record is never rewritten by a read.
type SubscriptionUseCase interface {
	// GetStatus returns the entitlement view evaluated against now. A user
	// who never purchased gets the implicit NONE/inactive record.
	GetStatus(ctx context.Context, userID string) (model.StatusView, error)
	// CommitPurchase applies one confirmed payment. It must be invoked
	// exactly once per successful charge; the purchase coordinator owns
	// that guarantee.
	CommitPurchase(ctx context.Context, userID string, tier model.Tier, paidAt time.Time) (*model.SubscriptionRecord, error)
	// CountActiveByTier is a read-only rollup for metrics.
	CountActiveByTier(ctx context.Context) (map[model.Tier]int, error)
}

type subscriptionUC struct {
	subs repository.SubscriptionRepository
	tm   repository.TransactionManager
	log  *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, tm repository.TransactionManager, logger *zerolog.Logger) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, tm: tm, log: &l}
}

func (uc *subscriptionUC) GetStatus(ctx context.Context, userID string) (model.StatusView, error) {
	rec, err := uc.subs.Find(ctx, repository.NoTX, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec = model.NewSubscriptionRecord(userID)
	case err != nil:
		return model.StatusView{}, err
	}
	return rec.View(time.Now()), nil
}

func (uc *subscriptionUC) CommitPurchase(ctx context.Context, userID string, tier model.Tier, paidAt time.Time) (*model.SubscriptionRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var rec *model.SubscriptionRecord
	err := uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		found, err := uc.subs.Find(ctx, tx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			found = model.NewSubscriptionRecord(userID)
		case err != nil:
			return err
		}
		if err := found.ApplyPurchase(tier, paidAt); err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, found); err != nil {
			return err
		}
		rec = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("user_id", userID).
		Str("tier", string(tier)).
		Time("expires_at", *rec.ExpiresAt).
		Msg("purchase committed")
	return rec, nil
}

func (uc *subscriptionUC) CountActiveByTier(ctx context.Context) (map[model.Tier]int, error) {
	return uc.subs.CountActiveByTier(ctx)
}
