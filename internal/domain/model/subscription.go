package model

import (
	"time"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
)

type Tier string

const (
	TierNone      Tier = "NONE"
	TierMonthly   Tier = "MONTHLY"
	TierQuarterly Tier = "QUARTERLY"
	TierYearly    Tier = "YEARLY"
)

// Policy constants. Durations are fixed-length UTC days rather than true
// calendar months; the client renders expiry as a plain date so the
// simpler arithmetic is what users actually see. Prices are Telegram Stars
// and the quarterly/yearly tiers carry a 20%/40% discount vs stacked
// monthly purchases.
var tierPolicy = map[Tier]struct {
	Days  int
	Stars int64
}{
	TierMonthly:   {Days: 30, Stars: 300},
	TierQuarterly: {Days: 90, Stars: 720},
	TierYearly:    {Days: 365, Stars: 2160},
}

// ParseTier maps a wire string onto a purchasable tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Purchasable() {
		return TierNone, domain.ErrInvalidTier
	}
	return t, nil
}

// Purchasable reports whether the tier can be bought (TierNone cannot).
func (t Tier) Purchasable() bool {
	_, ok := tierPolicy[t]
	return ok
}

// TierDuration returns the entitlement period the tier grants.
func TierDuration(t Tier) time.Duration {
	return time.Duration(tierPolicy[t].Days) * 24 * time.Hour
}

// TierPriceStars returns the charge amount in Telegram Stars. The
// coordinator is the single source of truth for price; the gateway is told
// this value, never asked for it.
func TierPriceStars(t Tier) int64 {
	return tierPolicy[t].Stars
}

// SubscriptionRecord is the durable subscription state for one user.
// The active flag is intentionally absent: entitlement is derived from
// ExpiresAt at read time, so a lapsed record keeps its tier and expiry for
// display and renewal offers.
type SubscriptionRecord struct {
	UserID    string     `json:"userId"`
	Tier      Tier       `json:"tier"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewSubscriptionRecord is the implicit record for a user who never bought
// anything: tier NONE, no expiry.
func NewSubscriptionRecord(userID string) *SubscriptionRecord {
	return &SubscriptionRecord{UserID: userID, Tier: TierNone}
}

// IsActiveAt derives the entitlement without mutating stored state.
func (s *SubscriptionRecord) IsActiveAt(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// ApplyPurchase commits one confirmed payment. The new period extends from
// the later of paidAt and any remaining unexpired entitlement, so renewing
// early never forfeits paid time. The tier label is overridden by the newly
// purchased tier even when periods overlap.
func (s *SubscriptionRecord) ApplyPurchase(tier Tier, paidAt time.Time) error {
	if !tier.Purchasable() {
		return domain.ErrInvalidTier
	}
	start := paidAt
	if s.ExpiresAt != nil && s.ExpiresAt.After(start) {
		start = *s.ExpiresAt
	}
	expires := start.Add(TierDuration(tier))
	s.Tier = tier
	s.ExpiresAt = &expires
	s.UpdatedAt = paidAt.UTC()
	return nil
}

// StatusView is the snapshot the client renders on the account page.
type StatusView struct {
	Tier      Tier       `json:"tier"`
	IsActive  bool       `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// View evaluates the record against now.
func (s *SubscriptionRecord) View(now time.Time) StatusView {
	return StatusView{
		Tier:      s.Tier,
		IsActive:  s.IsActiveAt(now),
		ExpiresAt: s.ExpiresAt,
	}
}
