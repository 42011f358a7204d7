package sched

import (
	"context"
	"time"

	"noor-community/internal/domain/ports/repository"
	"noor-community/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// CodeSweepWorker periodically deactivates redemption codes past their
// expiry so lookups stop reporting them as redeemable.
type CodeSweepWorker struct {
	interval time.Duration
	codes    repository.RedemptionCodeRepository
	log      *zerolog.Logger
}

func NewCodeSweepWorker(interval time.Duration, codes repository.RedemptionCodeRepository, logger *zerolog.Logger) *CodeSweepWorker {
	sweepLog := logger.With().Str("component", "CodeSweepWorker").Logger()
	return &CodeSweepWorker{
		interval: interval,
		codes:    codes,
		log:      &sweepLog,
	}
}

func (w *CodeSweepWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting code sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping code sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.codes.DeactivateExpired(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("code sweep error")
			}
			if n > 0 {
				metrics.IncCodesExpired(n)
				w.log.Info().Int("count", n).Msg("expired codes deactivated")
			}
		}
	}
}
