package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway confirms every charge in memory. Used in dev mode and
// tests.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	Charges []NoopCharge
}

type NoopCharge struct {
	UserID string
	Tier   model.Tier
	Amount int64
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) Charge(ctx context.Context, userID string, tier model.Tier, priceStars int64) (adapter.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.Charges = append(g.Charges, NoopCharge{UserID: userID, Tier: tier, Amount: priceStars})
	return adapter.ChargeResult{Confirmed: true, RefID: fmt.Sprintf("noop-%d", g.seq)}, nil
}
