package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
)

func init() { register(activeSubscriptions) }

var activeSubscriptions = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "active_subscriptions",
		Help: "Current number of unexpired subscriptions by tier.",
	},
	[]string{"tier"},
)

// SetActiveSubscriptions refreshes the gauge for every purchasable tier so
// tiers that dropped to zero are reset, not left stale.
func SetActiveSubscriptions(counts map[model.Tier]int) {
	for _, tier := range []model.Tier{model.TierMonthly, model.TierQuarterly, model.TierYearly} {
		activeSubscriptions.WithLabelValues(norm(string(tier))).Set(float64(counts[tier]))
	}
}
