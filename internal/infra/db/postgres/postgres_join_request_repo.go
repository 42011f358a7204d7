package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/repository"
)

var _ repository.JoinRequestRepository = (*joinRequestRepo)(nil)

type joinRequestRepo struct {
	pool *pgxpool.Pool
}

func NewJoinRequestRepo(pool *pgxpool.Pool) *joinRequestRepo {
	return &joinRequestRepo{pool: pool}
}

const joinRequestColumns = `id, group_id, user_id, request_message, status, created_at, reviewed_at, reviewed_by`

// Insert creates a pending request. The partial unique index
// group_join_requests_one_pending (ON (group_id, user_id) WHERE
// status = 'pending') closes the duplicate-creation race at commit.
func (r *joinRequestRepo) Insert(ctx context.Context, tx repository.Tx, jr *model.JoinRequest) error {
	if jr.ID == "" {
		jr.ID = uuid.NewString()
	}
	const q = `
INSERT INTO group_join_requests (id, group_id, user_id, request_message, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := execSQL(ctx, r.pool, tx, q, jr.ID, jr.GroupID, jr.RequesterID, jr.Message, jr.Status, jr.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePending
		}
		return err
	}
	return nil
}

func (r *joinRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.JoinRequest, error) {
	const q = `SELECT ` + joinRequestColumns + ` FROM group_join_requests WHERE id = $1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *joinRequestRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.JoinRequest, error) {
	const q = `SELECT ` + joinRequestColumns + ` FROM group_join_requests WHERE id = $1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, id)
}

// MarkReviewed is guarded by status='pending' so a request can leave
// the pending state exactly once.
func (r *joinRequestRepo) MarkReviewed(ctx context.Context, tx repository.Tx, id string, status model.JoinRequestStatus, reviewerID string) error {
	const q = `
UPDATE group_join_requests
   SET status = $2, reviewed_by = $3, reviewed_at = NOW()
 WHERE id = $1 AND status = 'pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, status, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotPending
	}
	return nil
}

func (r *joinRequestRepo) ListPendingByGroup(ctx context.Context, tx repository.Tx, groupID string) ([]*model.JoinRequest, error) {
	const q = `
SELECT ` + joinRequestColumns + `
  FROM group_join_requests
 WHERE group_id = $1 AND status = 'pending'
 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.JoinRequest
	for rows.Next() {
		jr, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, jr)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *joinRequestRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.JoinRequest, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	jr, err := scanJoinRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return jr, nil
}

func scanJoinRequest(row pgx.Row) (*model.JoinRequest, error) {
	var jr model.JoinRequest
	err := row.Scan(&jr.ID, &jr.GroupID, &jr.RequesterID, &jr.Message, &jr.Status, &jr.CreatedAt, &jr.ReviewedAt, &jr.ReviewedBy)
	if err != nil {
		return nil, err
	}
	return &jr, nil
}
