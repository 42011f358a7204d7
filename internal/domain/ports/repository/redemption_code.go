package repository

import (
	"context"
	"time"

	"noor-community/internal/domain/model"
)

// RedemptionCodeRepository is the port for limited-use codes.
type RedemptionCodeRepository interface {
	// Save inserts a new code or updates its mutable fields.
	Save(ctx context.Context, tx Tx, code *model.RedemptionCode) error
	// FindByCode looks a code up by its public string.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RedemptionCode, error)
	// FindByCodeForUpdate locks the row for the duration of the
	// transaction so a redemption attempt observes a stable state.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.RedemptionCode, error)

	// ConsumeUse performs the guarded increment: usage_count+1 commits
	// only while the limit still holds, and the code is deactivated in
	// the same statement when the last use is consumed. Returns
	// domain.ErrLimitExceeded when the guard rejects the increment.
	ConsumeUse(ctx context.Context, tx Tx, codeID string) error

	// Deactivate flips active=false (lazy expiry, exhaustion).
	Deactivate(ctx context.Context, tx Tx, codeID string) error

	// DeactivateExpired sweeps codes whose expiry has passed and
	// returns how many were flipped.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}

// RedemptionEventRepository appends the audit trail of successful
// redemptions. Append-only; failures here must not fail a redemption.
type RedemptionEventRepository interface {
	Append(ctx context.Context, tx Tx, codeID, code, actorID string, at time.Time) error
	CountByCode(ctx context.Context, tx Tx, codeID string) (int, error)
}
