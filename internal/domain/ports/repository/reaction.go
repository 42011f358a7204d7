package repository

import (
	"context"

	"noor-community/internal/domain/model"
)

// ReactionRepository is the port for social reactions.
type ReactionRepository interface {
	// Insert creates the reaction. The per-target unique indexes map a
	// racing duplicate to domain.ErrAlreadyReacted.
	Insert(ctx context.Context, tx Tx, r *model.Reaction) error
	// Delete removes the (user, target, type) reaction;
	// domain.ErrNotFound when it does not exist. Safe to retry.
	Delete(ctx context.Context, tx Tx, userID string, target model.ReactionTarget, rt model.ReactionType) error
	CountForTarget(ctx context.Context, tx Tx, target model.ReactionTarget, rt model.ReactionType) (int, error)
}

// AuditEventRepository appends decision records. Append-only and
// fire-and-forget: callers never fail their primary operation on an
// append error.
type AuditEventRepository interface {
	Append(ctx context.Context, tx Tx, e *model.AuditEvent) error
}
