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

// Ensure implementation satisfies the interface.
var _ repository.RedemptionCodeRepository = (*redemptionCodeRepo)(nil)

type redemptionCodeRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionCodeRepo(pool *pgxpool.Pool) *redemptionCodeRepo {
	return &redemptionCodeRepo{pool: pool}
}

const codeColumns = `id, code, kind, discount_percentage, discount_amount, usage_limit, usage_count, expires_at, active, created_by, created_at, updated_at`

func (r *redemptionCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.RedemptionCode) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
INSERT INTO redemption_codes (id, code, kind, discount_percentage, discount_amount, usage_limit, usage_count, expires_at, active, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  discount_percentage = EXCLUDED.discount_percentage,
  discount_amount = EXCLUDED.discount_amount,
  usage_limit = EXCLUDED.usage_limit,
  expires_at = EXCLUDED.expires_at,
  active = EXCLUDED.active,
  updated_at = NOW();`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Code, c.Kind, c.DiscountPercentage, c.DiscountAmount, c.UsageLimit, c.UsageCount, c.ExpiresAt, c.Active, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *redemptionCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM redemption_codes WHERE code = $1;`
	return r.queryOne(ctx, tx, q, code)
}

// FindByCodeForUpdate locks the code row until the surrounding
// transaction commits, serializing concurrent redemption attempts on
// the same code.
func (r *redemptionCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM redemption_codes WHERE code = $1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, code)
}

// ConsumeUse is the guarded increment. The WHERE clause re-checks the
// limit at commit time so the check and the write are one atomic
// statement; exhaustion deactivates the code in the same commit.
func (r *redemptionCodeRepo) ConsumeUse(ctx context.Context, tx repository.Tx, codeID string) error {
	const q = `
UPDATE redemption_codes
   SET usage_count = usage_count + 1,
       active = (usage_limit IS NULL OR usage_count + 1 < usage_limit),
       updated_at = NOW()
 WHERE id = $1
   AND active
   AND (usage_limit IS NULL OR usage_count < usage_limit);`
	tag, err := execSQL(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLimitExceeded
	}
	return nil
}

func (r *redemptionCodeRepo) Deactivate(ctx context.Context, tx repository.Tx, codeID string) error {
	const q = `UPDATE redemption_codes SET active = FALSE, updated_at = NOW() WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *redemptionCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `
UPDATE redemption_codes
   SET active = FALSE, updated_at = NOW()
 WHERE active AND expires_at IS NOT NULL AND expires_at <= $1;`
	tag, err := execSQL(ctx, r.pool, nil, q, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *redemptionCodeRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.RedemptionCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var c model.RedemptionCode
	err = row.Scan(
		&c.ID, &c.Code, &c.Kind, &c.DiscountPercentage, &c.DiscountAmount,
		&c.UsageLimit, &c.UsageCount, &c.ExpiresAt, &c.Active, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}
