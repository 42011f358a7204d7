package postgres

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"noor-community/internal/domain"
	"noor-community/internal/domain/ports/repository"
)

var _ repository.RedemptionEventRepository = (*redemptionEventRepo)(nil)

// redemptionEventRepo is the append-only ledger of successful
// redemptions. Rows are never updated or deleted.
type redemptionEventRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionEventRepo(pool *pgxpool.Pool) *redemptionEventRepo {
	return &redemptionEventRepo{pool: pool}
}

func (r *redemptionEventRepo) Append(ctx context.Context, tx repository.Tx, codeID, code, actorID string, at time.Time) error {
	const q = `
INSERT INTO redemption_events (id, code_id, code, actor_id, created_at)
VALUES ($1, $2, $3, $4, $5);`
	id := ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
	_, err := execSQL(ctx, r.pool, tx, q, id, codeID, code, actorID, at)
	return err
}

func (r *redemptionEventRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	const q = `SELECT COUNT(*) FROM redemption_events WHERE code_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
