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

var _ repository.GroupRepository = (*groupRepo)(nil)

type groupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *groupRepo {
	return &groupRepo{pool: pool}
}

const groupColumns = `id, name, description, daily_target_pages, member_count, average_streak, created_by, invite_code, group_type, created_at, updated_at`

func (r *groupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	const q = `
INSERT INTO accountability_groups (id, name, description, daily_target_pages, member_count, average_streak, created_by, invite_code, group_type, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  description = EXCLUDED.description,
  daily_target_pages = EXCLUDED.daily_target_pages,
  average_streak = EXCLUDED.average_streak,
  group_type = EXCLUDED.group_type,
  updated_at = NOW();`
	_, err := execSQL(ctx, r.pool, tx, q,
		g.ID, g.Name, g.Description, g.DailyTargetPages, g.MemberCount, g.AverageStreak, g.CreatedBy, g.InviteCode, g.GroupType, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// invite_code collision
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *groupRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Group, error) {
	const q = `SELECT ` + groupColumns + ` FROM accountability_groups WHERE id = $1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *groupRepo) FindByInviteCode(ctx context.Context, tx repository.Tx, inviteCode string) (*model.Group, error) {
	const q = `SELECT ` + groupColumns + ` FROM accountability_groups WHERE invite_code = $1;`
	return r.queryOne(ctx, tx, q, inviteCode)
}

// AdjustMemberCount applies the delta in one statement; the floor at
// zero guards against a reconciler race driving the counter negative.
func (r *groupRepo) AdjustMemberCount(ctx context.Context, tx repository.Tx, groupID string, delta int) error {
	const q = `
UPDATE accountability_groups
   SET member_count = GREATEST(member_count + $2, 0), updated_at = NOW()
 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, groupID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (r *groupRepo) RecomputeMemberCounts(ctx context.Context) (int, error) {
	const q = `
UPDATE accountability_groups g
   SET member_count = m.n, updated_at = NOW()
  FROM (
    SELECT g2.id, COUNT(gm.id) AS n
      FROM accountability_groups g2
 LEFT JOIN group_memberships gm ON gm.group_id = g2.id
  GROUP BY g2.id
  ) m
 WHERE m.id = g.id AND g.member_count <> m.n;`
	tag, err := execSQL(ctx, r.pool, nil, q)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *groupRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Group, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var g model.Group
	err = row.Scan(
		&g.ID, &g.Name, &g.Description, &g.DailyTargetPages, &g.MemberCount,
		&g.AverageStreak, &g.CreatedBy, &g.InviteCode, &g.GroupType,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &g, nil
}
