package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(purchasesTotal) }

var purchasesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Purchase attempts by outcome (committed/declined/timeout/failed/rejected).",
	},
	[]string{"status"},
)

func IncPurchase(status string) {
	purchasesTotal.WithLabelValues(norm(status)).Inc()
}
