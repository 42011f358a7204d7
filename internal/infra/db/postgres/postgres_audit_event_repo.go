package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/repository"
)

var _ repository.AuditEventRepository = (*auditEventRepo)(nil)

// auditEventRepo persists the append-only decision trail.
type auditEventRepo struct {
	pool *pgxpool.Pool
}

func NewAuditEventRepo(pool *pgxpool.Pool) *auditEventRepo {
	return &auditEventRepo{pool: pool}
}

func (r *auditEventRepo) Append(ctx context.Context, tx repository.Tx, e *model.AuditEvent) error {
	const q = `
INSERT INTO audit_events (id, action_type, actor_id, subject_id, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Action, e.ActorID, e.SubjectID, e.Details, e.CreatedAt)
	return err
}
