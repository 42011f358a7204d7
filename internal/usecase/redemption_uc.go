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

// Compile-time check
var _ RedemptionUseCase = (*redemptionUC)(nil)

// RedemptionUseCase enforces at-most-N-uses and expiry for codes.
type RedemptionUseCase interface {
	// Redeem attempts to consume one use of the code for the actor.
	// Business failures come back as domain sentinels (ErrCodeNotFound,
	// ErrCodeInactive, ErrCodeExpired, ErrLimitExceeded); anything else
	// is a storage fault the caller may retry.
	Redeem(ctx context.Context, code, actorID string) (*model.RedemptionCode, error)
	// CreateCode mints a new code of the given kind.
	CreateCode(ctx context.Context, kind model.CodeKind, usageLimit *int, expiresAt *time.Time, createdBy string) (*model.RedemptionCode, error)
	// Lookup returns the current state of a code without touching it.
	Lookup(ctx context.Context, code string) (*model.RedemptionCode, error)
}

type redemptionUC struct {
	codes  repository.RedemptionCodeRepository
	events repository.RedemptionEventRepository
	audit  adapter.AuditSink
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewRedemptionUseCase(
	codes repository.RedemptionCodeRepository,
	events repository.RedemptionEventRepository,
	audit adapter.AuditSink,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *redemptionUC {
	return &redemptionUC{codes: codes, events: events, audit: audit, tm: tm, log: logger}
}

// Redeem performs the guarded increment inside a single serializable
// transaction: the row is locked, expiry and activity are evaluated on
// the locked state, and the limit is re-checked by the UPDATE itself.
// Two racing redemptions of the last use serialize on the row lock, so
// exactly one observes headroom.
func (u *redemptionUC) Redeem(ctx context.Context, code, actorID string) (*model.RedemptionCode, error) {
	defer logging.TraceDuration(u.log, "RedemptionUC.Redeem")()

	if code == "" || actorID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var (
		out        *model.RedemptionCode
		attemptErr error
	)
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		c, err := u.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// nothing written; roll back via the error path
				attemptErr = domain.ErrCodeNotFound
				return attemptErr
			}
			return err
		}

		now := time.Now()
		if c.Active && c.ExpiredAt(now) {
			// Lazy deactivation: the flip must COMMIT even though the
			// attempt fails, so future attempts short-circuit on the
			// active flag without re-evaluating expiry. Hence the
			// captured error instead of an early return.
			if err := u.codes.Deactivate(ctx, tx, c.ID); err != nil {
				return err
			}
			attemptErr = domain.ErrCodeExpired
			return nil
		}
		if !c.Active {
			if c.ExpiredAt(now) {
				attemptErr = domain.ErrCodeExpired
			} else {
				attemptErr = domain.ErrCodeInactive
			}
			return attemptErr
		}

		if err := u.codes.ConsumeUse(ctx, tx, c.ID); err != nil {
			if errors.Is(err, domain.ErrLimitExceeded) {
				attemptErr = err
				return attemptErr
			}
			return err
		}
		// Ledger entry commits atomically with the increment.
		if err := u.events.Append(ctx, tx, c.ID, c.Code, actorID, now); err != nil {
			return err
		}

		c.UsageCount++
		c.Active = c.UsageLimit == nil || c.UsageCount < *c.UsageLimit
		c.UpdatedAt = now
		out = c
		return nil
	})
	if err != nil {
		if attemptErr != nil && errors.Is(err, attemptErr) {
			return nil, attemptErr
		}
		return nil, err
	}
	if attemptErr != nil {
		// expiry path: deactivation committed, attempt still failed
		return nil, attemptErr
	}

	u.audit.Record(ctx, model.NewAuditEvent(
		model.AuditCodeRedeemed, actorID, out.ID,
		fmt.Sprintf(`{"code":%q,"usage_count":%d}`, out.Code, out.UsageCount),
	))
	u.log.Info().Str("code", out.Code).Str("actor_id", actorID).Int("usage_count", out.UsageCount).Msg("code redeemed")
	return out, nil
}

func (u *redemptionUC) CreateCode(ctx context.Context, kind model.CodeKind, usageLimit *int, expiresAt *time.Time, createdBy string) (*model.RedemptionCode, error) {
	defer logging.TraceDuration(u.log, "RedemptionUC.CreateCode")()

	// Retry only covers the astronomically unlikely code collision.
	for attempt := 0; attempt < 3; attempt++ {
		raw, err := generateCode()
		if err != nil {
			return nil, err
		}
		c, err := model.NewRedemptionCode("", raw, kind, usageLimit, expiresAt, &createdBy)
		if err != nil {
			return nil, err
		}
		if err := u.codes.Save(ctx, repository.NoTX, c); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			return nil, err
		}
		u.audit.Record(ctx, model.NewAuditEvent(
			model.AuditCodeCreated, createdBy, c.ID,
			fmt.Sprintf(`{"code":%q,"kind":%q}`, c.Code, c.Kind),
		))
		return c, nil
	}
	return nil, domain.ErrOperationFailed
}

func (u *redemptionUC) Lookup(ctx context.Context, code string) (*model.RedemptionCode, error) {
	c, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}
