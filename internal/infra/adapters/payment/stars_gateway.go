package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StarsGateway)(nil)

// StarsGateway charges Telegram Stars through the payment provider's HTTP
// API. The amount always comes from the caller; whatever amount the provider
// echoes back is ignored for pricing.
type StarsGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewStarsGateway(baseURL, apiKey string) (*StarsGateway, error) {
	if baseURL == "" {
		return nil, errors.New("stars gateway base url empty")
	}
	if apiKey == "" {
		return nil, errors.New("stars gateway api key empty")
	}
	return &StarsGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *StarsGateway) Name() string { return "stars" }

type chargeRequest struct {
	UserID    string `json:"user_id"`
	Tier      string `json:"tier"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type chargeResponse struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason"`
	RefID     string `json:"ref_id"`
}

func (g *StarsGateway) Charge(ctx context.Context, userID string, tier model.Tier, priceStars int64) (adapter.ChargeResult, error) {
	payload := chargeRequest{
		UserID:    userID,
		Tier:      string(tier),
		Amount:    priceStars,
		Currency:  "XTR",
		Reference: ulid.Make().String(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return adapter.ChargeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charge", bytes.NewReader(b))
	if err != nil {
		return adapter.ChargeResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		// Propagate the context error so callers can tell a deadline from a
		// transport failure.
		if ctx.Err() != nil {
			return adapter.ChargeResult{}, ctx.Err()
		}
		return adapter.ChargeResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return adapter.ChargeResult{}, fmt.Errorf("stars gateway status %d", resp.StatusCode)
	}
	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.ChargeResult{}, err
	}
	return adapter.ChargeResult{Confirmed: out.Confirmed, Reason: out.Reason, RefID: out.RefID}, nil
}
