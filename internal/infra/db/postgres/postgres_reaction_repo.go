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

var _ repository.ReactionRepository = (*reactionRepo)(nil)

type reactionRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRepo(pool *pgxpool.Pool) *reactionRepo {
	return &reactionRepo{pool: pool}
}

// Insert relies on the per-target unique indexes
// (user_id, post_id, reaction_type) / (user_id, comment_id,
// reaction_type) as the source of truth for exclusivity under races.
func (r *reactionRepo) Insert(ctx context.Context, tx repository.Tx, rx *model.Reaction) error {
	if rx.ID == "" {
		rx.ID = uuid.NewString()
	}
	const q = `
INSERT INTO community_reactions (id, user_id, post_id, comment_id, reaction_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := execSQL(ctx, r.pool, tx, q,
		rx.ID, rx.UserID, rx.Target.PostID(), rx.Target.CommentID(), rx.Type, rx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyReacted
		}
		return err
	}
	return nil
}

func (r *reactionRepo) Delete(ctx context.Context, tx repository.Tx, userID string, target model.ReactionTarget, rt model.ReactionType) error {
	const q = `
DELETE FROM community_reactions
 WHERE user_id = $1
   AND post_id IS NOT DISTINCT FROM $2
   AND comment_id IS NOT DISTINCT FROM $3
   AND reaction_type = $4;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, target.PostID(), target.CommentID(), rt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reactionRepo) CountForTarget(ctx context.Context, tx repository.Tx, target model.ReactionTarget, rt model.ReactionType) (int, error) {
	const q = `
SELECT COUNT(*) FROM community_reactions
 WHERE post_id IS NOT DISTINCT FROM $1
   AND comment_id IS NOT DISTINCT FROM $2
   AND reaction_type = $3;`
	row, err := pickRow(ctx, r.pool, tx, q, target.PostID(), target.CommentID(), rt)
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
