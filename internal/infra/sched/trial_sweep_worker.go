package sched

import (
	"context"
	"time"

	"noor-community/internal/infra/metrics"
	"noor-community/internal/usecase"

	"github.com/rs/zerolog"
)

// TrialSweepWorker periodically deactivates free trials past their expiry.
type TrialSweepWorker struct {
	interval time.Duration
	trialUC  usecase.TrialUseCase
	log      *zerolog.Logger
}

func NewTrialSweepWorker(interval time.Duration, trialUC usecase.TrialUseCase, logger *zerolog.Logger) *TrialSweepWorker {
	sweepLog := logger.With().Str("component", "TrialSweepWorker").Logger()
	return &TrialSweepWorker{
		interval: interval,
		trialUC:  trialUC,
		log:      &sweepLog,
	}
}

func (w *TrialSweepWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting trial sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping trial sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.trialUC.SweepExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("trial sweep error")
			}
			if n > 0 {
				metrics.IncTrialsExpired(n)
				w.log.Info().Int("count", n).Msg("expired trials deactivated")
			}
		}
	}
}
