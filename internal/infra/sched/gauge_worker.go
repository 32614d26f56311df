package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/infra/metrics"
	"github.com/marselbeijing/ispeech-helper/internal/usecase"
)

// GaugeWorker periodically refreshes the subscription gauges. Expiry itself
// is evaluated lazily on every read, so this worker only observes state; it
// never finishes or mutates subscriptions.
type GaugeWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	log      *zerolog.Logger
}

func NewGaugeWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *GaugeWorker {
	l := logger.With().Str("component", "GaugeWorker").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &GaugeWorker{interval: interval, subUC: subUC, log: &l}
}

func (w *GaugeWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting gauge worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping gauge worker")
			return ctx.Err()
		case <-ticker.C:
			counts, err := w.subUC.CountActiveByTier(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("gauge refresh failed")
				continue
			}
			metrics.SetActiveSubscriptions(counts)
		}
	}
}
