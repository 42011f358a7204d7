package sched

import (
	"context"
	"time"

	"noor-community/internal/domain/ports/repository"
	"noor-community/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// MemberCountReconciler rewrites each group's cached member count from
// the membership rows. The counter is adjusted transactionally on every
// join and leave, so a repair here means a bug elsewhere; the worker
// logs and counts each drift it fixes.
type MemberCountReconciler struct {
	interval time.Duration
	groups   repository.GroupRepository
	log      *zerolog.Logger
}

func NewMemberCountReconciler(interval time.Duration, groups repository.GroupRepository, logger *zerolog.Logger) *MemberCountReconciler {
	recLog := logger.With().Str("component", "MemberCountReconciler").Logger()
	return &MemberCountReconciler{
		interval: interval,
		groups:   groups,
		log:      &recLog,
	}
}

func (w *MemberCountReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting member count reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping member count reconciler")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.groups.RecomputeMemberCounts(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("member count reconcile error")
			}
			if n > 0 {
				metrics.IncMemberCountRepaired(n)
				w.log.Warn().Int("count", n).Msg("member count drift repaired")
			}
		}
	}
}
