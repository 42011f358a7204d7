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

var _ repository.MembershipRepository = (*membershipRepo)(nil)

type membershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) *membershipRepo {
	return &membershipRepo{pool: pool}
}

func (r *membershipRepo) Insert(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	const q = `
INSERT INTO group_memberships (id, group_id, user_id, joined_at, is_admin)
VALUES ($1, $2, $3, $4, $5);`
	_, err := execSQL(ctx, r.pool, tx, q, m.ID, m.GroupID, m.UserID, m.JoinedAt, m.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *membershipRepo) Find(ctx context.Context, tx repository.Tx, groupID, userID string) (*model.Membership, error) {
	const q = `
SELECT id, group_id, user_id, joined_at, is_admin
  FROM group_memberships
 WHERE group_id = $1 AND user_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, groupID, userID)
	if err != nil {
		return nil, err
	}
	var m model.Membership
	err = row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.JoinedAt, &m.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &m, nil
}

func (r *membershipRepo) Delete(ctx context.Context, tx repository.Tx, groupID, userID string) error {
	const q = `DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, groupID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *membershipRepo) CountByGroup(ctx context.Context, tx repository.Tx, groupID string) (int, error) {
	const q = `SELECT COUNT(*) FROM group_memberships WHERE group_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, groupID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
