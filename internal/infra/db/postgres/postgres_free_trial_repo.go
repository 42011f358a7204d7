package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/repository"
)

var _ repository.FreeTrialRepository = (*freeTrialRepo)(nil)

type freeTrialRepo struct {
	pool *pgxpool.Pool
}

func NewFreeTrialRepo(pool *pgxpool.Pool) *freeTrialRepo {
	return &freeTrialRepo{pool: pool}
}

// Save inserts the trial. The partial unique index
// free_trials_one_active_per_user (ON (user_id) WHERE is_active) makes
// the one-active-grant rule hold at commit, not just at pre-check.
func (r *freeTrialRepo) Save(ctx context.Context, tx repository.Tx, t *model.FreeTrial) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
INSERT INTO free_trials (id, user_id, granted_by, activated_at, expires_at, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.RecipientID, t.GrantedBy, t.ActivatedAt, t.ExpiresAt, t.IsActive, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTrialActive
		}
		return err
	}
	return nil
}

func (r *freeTrialRepo) FindActiveByRecipient(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) (*model.FreeTrial, error) {
	const q = `
SELECT id, user_id, granted_by, activated_at, expires_at, is_active, created_at
  FROM free_trials
 WHERE user_id = $1 AND is_active AND expires_at > $2
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, recipientID, now)
	if err != nil {
		return nil, err
	}
	var t model.FreeTrial
	err = row.Scan(&t.ID, &t.RecipientID, &t.GrantedBy, &t.ActivatedAt, &t.ExpiresAt, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &t, nil
}

// DeactivateExpiredFor clears the recipient's slot in the partial
// unique index when their previous grant has run out but the sweep
// worker has not visited it yet.
func (r *freeTrialRepo) DeactivateExpiredFor(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) error {
	const q = `
UPDATE free_trials
   SET is_active = FALSE
 WHERE user_id = $1 AND is_active AND expires_at <= $2;`
	_, err := execSQL(ctx, r.pool, tx, q, recipientID, now)
	return err
}

func (r *freeTrialRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `
UPDATE free_trials
   SET is_active = FALSE
 WHERE is_active AND expires_at <= $1;`
	tag, err := execSQL(ctx, r.pool, nil, q, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
