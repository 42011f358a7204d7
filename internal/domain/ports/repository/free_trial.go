package repository

import (
	"context"
	"time"

	"noor-community/internal/domain/model"
)

// FreeTrialRepository is the port for one-time free trials.
type FreeTrialRepository interface {
	// Save inserts a trial. The store's partial unique index on
	// (user_id) WHERE is_active is the source of truth for the
	// one-active-trial rule; a violation maps to domain.ErrTrialActive.
	Save(ctx context.Context, tx Tx, trial *model.FreeTrial) error
	// FindActiveByRecipient returns the recipient's live trial, where
	// "live" means flagged active AND not yet past expires_at. Returns
	// domain.ErrNotFound when none.
	FindActiveByRecipient(ctx context.Context, tx Tx, recipientID string, now time.Time) (*model.FreeTrial, error)
	// DeactivateExpiredFor flips expired-but-unswept grants for one
	// recipient, clearing the partial unique index slot before a new
	// activation is inserted in the same transaction.
	DeactivateExpiredFor(ctx context.Context, tx Tx, recipientID string, now time.Time) error
	// DeactivateExpired flips is_active=false on grants past their
	// expiry and returns how many were swept.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}
