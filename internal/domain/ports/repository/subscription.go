package repository

import (
	"context"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
)

// SubscriptionRepository is the port for durable subscription records.
type SubscriptionRepository interface {
	Find(ctx context.Context, tx Tx, userID string) (*model.SubscriptionRecord, error)
	Save(ctx context.Context, tx Tx, rec *model.SubscriptionRecord) error

	// CountActiveByTier returns the number of currently unexpired
	// subscriptions keyed by tier. Read-only, used for gauges.
	CountActiveByTier(ctx context.Context) (map[model.Tier]int, error)
}
