package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/adapter"
	"noor-community/internal/domain/ports/repository"
	"noor-community/internal/infra/logging"
)

var _ TrialUseCase = (*trialUC)(nil)

// TrialUseCase issues one-time, time-bounded free trials.
type TrialUseCase interface {
	// Activate grants a 7-day trial to the recipient. ErrTrialActive
	// when a live grant already exists; the store's unique constraint
	// closes the check-then-insert window.
	Activate(ctx context.Context, recipientID, grantedBy string) (*model.FreeTrial, error)
	// SweepExpired flips expired grants inactive and returns the count.
	SweepExpired(ctx context.Context) (int, error)
}

type trialUC struct {
	trials repository.FreeTrialRepository
	audit  adapter.AuditSink
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewTrialUseCase(
	trials repository.FreeTrialRepository,
	audit adapter.AuditSink,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *trialUC {
	return &trialUC{trials: trials, audit: audit, tm: tm, log: logger}
}

func (u *trialUC) Activate(ctx context.Context, recipientID, grantedBy string) (*model.FreeTrial, error) {
	defer logging.TraceDuration(u.log, "TrialUC.Activate")()

	var out *model.FreeTrial
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		// A live grant wins over everything. The pre-check gives a
		// clean error; the partial unique index on the insert below is
		// what actually holds under races.
		if _, err := u.trials.FindActiveByRecipient(ctx, tx, recipientID, now); err == nil {
			return domain.ErrTrialActive
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		// An expired-but-unswept grant still occupies the index slot;
		// retire it in the same transaction before inserting.
		if err := u.trials.DeactivateExpiredFor(ctx, tx, recipientID, now); err != nil {
			return err
		}

		trial, err := model.NewFreeTrial("", recipientID, grantedBy, now)
		if err != nil {
			return err
		}
		if err := u.trials.Save(ctx, tx, trial); err != nil {
			return err // ErrTrialActive on a concurrent insert
		}
		out = trial
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, model.NewAuditEvent(
		model.AuditTrialGranted, grantedBy, out.RecipientID,
		fmt.Sprintf(`{"trial_id":%q,"expires_at":%q}`, out.ID, out.ExpiresAt.Format(time.RFC3339)),
	))
	u.log.Info().Str("recipient_id", recipientID).Str("granted_by", grantedBy).Time("expires_at", out.ExpiresAt).Msg("free trial granted")
	return out, nil
}

func (u *trialUC) SweepExpired(ctx context.Context) (int, error) {
	return u.trials.DeactivateExpired(ctx, time.Now())
}
