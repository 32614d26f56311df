package adapter

import (
	"context"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
)

// ChargeResult is the provider-agnostic outcome of one charge attempt.
type ChargeResult struct {
	Confirmed bool
	Reason    string // provider-reported reason when not confirmed
	RefID     string // provider reference id when confirmed
}

// PaymentGateway is the hex port for payment providers. The caller supplies
// the price; a gateway response echoing a different amount must not change
// what the user is charged relative to policy.
type PaymentGateway interface {
	Name() string

	// Charge bills the user the given amount of Stars for the tier. It may
	// be slow; callers bound it with a context deadline and treat expiry as
	// failure, never as success.
	Charge(ctx context.Context, userID string, tier model.Tier, priceStars int64) (ChargeResult, error)
}
