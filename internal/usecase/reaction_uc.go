package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/repository"
	"noor-community/internal/infra/logging"
)

var _ ReactionUseCase = (*reactionUC)(nil)

// ReactionUseCase guarantees a user reacts to a target with a type at
// most once.
type ReactionUseCase interface {
	// React applies the reaction. ErrInvalidTarget before storage is
	// touched when the target is malformed; ErrAlreadyReacted when the
	// (user, target, type) triple already exists.
	React(ctx context.Context, userID string, target model.ReactionTarget, rt model.ReactionType) (*model.Reaction, error)
	// Unreact removes the triple; ErrNotFound when absent. Retry-safe.
	Unreact(ctx context.Context, userID string, target model.ReactionTarget, rt model.ReactionType) error
	CountReactions(ctx context.Context, target model.ReactionTarget, rt model.ReactionType) (int, error)
}

type reactionUC struct {
	reactions repository.ReactionRepository
	log       *zerolog.Logger
}

func NewReactionUseCase(reactions repository.ReactionRepository, logger *zerolog.Logger) *reactionUC {
	return &reactionUC{reactions: reactions, log: logger}
}

// React needs no explicit transaction: the insert is a single statement
// and the unique indexes settle races at commit.
func (u *reactionUC) React(ctx context.Context, userID string, target model.ReactionTarget, rt model.ReactionType) (*model.Reaction, error) {
	defer logging.TraceDuration(u.log, "ReactionUC.React")()

	// Structural precondition, checked before touching storage.
	r, err := model.NewReaction("", userID, target, rt)
	if err != nil {
		return nil, err
	}
	if err := u.reactions.Insert(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	u.log.Debug().Str("user_id", userID).Str("target", target.Key()).Str("type", string(rt)).Msg("reaction applied")
	return r, nil
}

func (u *reactionUC) Unreact(ctx context.Context, userID string, target model.ReactionTarget, rt model.ReactionType) error {
	defer logging.TraceDuration(u.log, "ReactionUC.Unreact")()

	if err := target.Validate(); err != nil {
		return err
	}
	return u.reactions.Delete(ctx, repository.NoTX, userID, target, rt)
}

func (u *reactionUC) CountReactions(ctx context.Context, target model.ReactionTarget, rt model.ReactionType) (int, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}
	return u.reactions.CountForTarget(ctx, repository.NoTX, target, rt)
}
