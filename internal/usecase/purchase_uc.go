package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// PurchaseOutcome classifies how an attempt ended. It stays off the wire;
// the client renders Success/Reason while metrics key off the outcome.
type PurchaseOutcome string

const (
	OutcomeCommitted PurchaseOutcome = "committed"
	OutcomeDeclined  PurchaseOutcome = "declined"
	OutcomeTimeout   PurchaseOutcome = "timeout"
	OutcomeFailed    PurchaseOutcome = "failed"
)

// PurchaseResult is the structured outcome handed to the client. Gateway
// declines and timeouts land here with Success=false; they are expected
// outcomes the UI renders, not faults.
type PurchaseResult struct {
	Success      bool              `json:"success"`
	Outcome      PurchaseOutcome   `json:"-"`
	Subscription *model.StatusView `json:"subscription,omitempty"`
	Reason       string            `json:"error,omitempty"`
}

// PurchaseUseCase orchestrates one purchase attempt end to end: at most one
// in-flight attempt per user, policy pricing, a bounded gateway call, and an
// exactly-once commit into the subscription record on confirmation.
type PurchaseUseCase interface {
	// Purchase returns ErrInvalidTier or ErrPurchaseInProgress for caller
	// errors, a storage error if the confirmed charge could not be
	// committed, and otherwise a PurchaseResult.
	Purchase(ctx context.Context, userID string, tier model.Tier) (*PurchaseResult, error)
}

// purchaseAttempt is the in-memory guard marker. It exists only while one
// purchase call is in flight and dies with the process: a crash must never
// leave a user locked out of buying.
type purchaseAttempt struct {
	ID        string
	Tier      model.Tier
	StartedAt time.Time
}

type purchaseUC struct {
	subUC         SubscriptionUseCase
	gateway       adapter.PaymentGateway
	chargeTimeout time.Duration
	log           *zerolog.Logger

	mu      sync.Mutex
	pending map[string]purchaseAttempt // userID -> attempt
}

func NewPurchaseUseCase(subUC SubscriptionUseCase, gateway adapter.PaymentGateway, chargeTimeout time.Duration, logger *zerolog.Logger) *purchaseUC {
	if chargeTimeout <= 0 {
		chargeTimeout = 30 * time.Second
	}
	l := logger.With().Str("component", "PurchaseUC").Logger()
	return &purchaseUC{
		subUC:         subUC,
		gateway:       gateway,
		chargeTimeout: chargeTimeout,
		log:           &l,
		pending:       make(map[string]purchaseAttempt),
	}
}

// begin installs the attempt guard, rejecting rather than queueing a second
// attempt: a concurrent purchase for the same user is a double-tap, not a
// legitimate queued request.
func (uc *purchaseUC) begin(userID string, tier model.Tier) (purchaseAttempt, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, inFlight := uc.pending[userID]; inFlight {
		return purchaseAttempt{}, domain.ErrPurchaseInProgress
	}
	att := purchaseAttempt{
		ID:        ulid.Make().String(),
		Tier:      tier,
		StartedAt: time.Now(),
	}
	uc.pending[userID] = att
	return att, nil
}

func (uc *purchaseUC) end(userID string) {
	uc.mu.Lock()
	delete(uc.pending, userID)
	uc.mu.Unlock()
}

func (uc *purchaseUC) Purchase(ctx context.Context, userID string, tier model.Tier) (*PurchaseResult, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Reject unknown tiers before anything reaches the gateway.
	if !tier.Purchasable() {
		return nil, domain.ErrInvalidTier
	}

	att, err := uc.begin(userID, tier)
	if err != nil {
		return nil, err
	}
	defer uc.end(userID)

	price := model.TierPriceStars(tier)
	log := uc.log.With().
		Str("user_id", userID).
		Str("tier", string(tier)).
		Str("attempt_id", att.ID).
		Int64("price_stars", price).
		Logger()
	log.Info().Msg("purchase started")

	chargeCtx, cancel := context.WithTimeout(ctx, uc.chargeTimeout)
	defer cancel()
	res, chargeErr := uc.gateway.Charge(chargeCtx, userID, tier, price)

	switch {
	case chargeErr != nil && (errors.Is(chargeErr, context.DeadlineExceeded) || chargeCtx.Err() != nil):
		// An unconfirmed charge is never committed as an entitlement.
		log.Warn().Err(chargeErr).Msg("charge timed out")
		return &PurchaseResult{Success: false, Outcome: OutcomeTimeout, Reason: domain.ErrPaymentTimeout.Error()}, nil
	case chargeErr != nil:
		log.Warn().Err(chargeErr).Msg("charge failed")
		return &PurchaseResult{Success: false, Outcome: OutcomeFailed, Reason: chargeErr.Error()}, nil
	case !res.Confirmed:
		reason := res.Reason
		if reason == "" {
			reason = domain.ErrPaymentDeclined.Error()
		}
		log.Info().Str("reason", reason).Msg("charge declined")
		return &PurchaseResult{Success: false, Outcome: OutcomeDeclined, Reason: reason}, nil
	}

	rec, err := uc.subUC.CommitPurchase(ctx, userID, tier, time.Now())
	if err != nil {
		// The charge is confirmed but the entitlement write failed. Surface
		// the failure; the charge reference is logged for reconciliation.
		log.Error().Err(err).Str("ref_id", res.RefID).Msg("commit after confirmed charge failed")
		return nil, err
	}

	view := rec.View(time.Now())
	log.Info().Str("ref_id", res.RefID).Time("expires_at", *rec.ExpiresAt).Msg("purchase committed")
	return &PurchaseResult{Success: true, Outcome: OutcomeCommitted, Subscription: &view}, nil
}
