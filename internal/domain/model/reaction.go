package model

import (
	"time"

	"noor-community/internal/domain"

	"github.com/google/uuid"
)

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionHeart ReactionType = "heart"
)

type targetKind int

const (
	targetNone targetKind = iota
	targetPost
	targetComment
)

// ReactionTarget identifies exactly one of a post or a comment. The
// zero value is invalid, so a reaction can never reference both or
// neither; the exclusivity holds at construction, not just in the store.
type ReactionTarget struct {
	kind targetKind
	id   string
}

func PostTarget(postID string) ReactionTarget {
	return ReactionTarget{kind: targetPost, id: postID}
}

func CommentTarget(commentID string) ReactionTarget {
	return ReactionTarget{kind: targetComment, id: commentID}
}

func (t ReactionTarget) Validate() error {
	if t.kind == targetNone || t.id == "" {
		return domain.ErrInvalidTarget
	}
	return nil
}

func (t ReactionTarget) IsPost() bool { return t.kind == targetPost }

// PostID returns the post reference for storage, nil when the target is
// a comment. CommentID is the mirror.
func (t ReactionTarget) PostID() *string {
	if t.kind == targetPost {
		id := t.id
		return &id
	}
	return nil
}

func (t ReactionTarget) CommentID() *string {
	if t.kind == targetComment {
		id := t.id
		return &id
	}
	return nil
}

// Key is a stable identity string for the target, used for lock and
// metric keys.
func (t ReactionTarget) Key() string {
	switch t.kind {
	case targetPost:
		return "post:" + t.id
	case targetComment:
		return "comment:" + t.id
	}
	return ""
}

// TargetFromRefs rebuilds a target from nullable storage columns.
func TargetFromRefs(postID, commentID *string) (ReactionTarget, error) {
	switch {
	case postID != nil && commentID == nil:
		return PostTarget(*postID), nil
	case postID == nil && commentID != nil:
		return CommentTarget(*commentID), nil
	default:
		return ReactionTarget{}, domain.ErrInvalidTarget
	}
}

// Reaction records that a user reacted to a target with a type, at most
// once per (user, target, type).
type Reaction struct {
	ID        string
	UserID    string
	Target    ReactionTarget
	Type      ReactionType
	CreatedAt time.Time
}

func NewReaction(id, userID string, target ReactionTarget, rt ReactionType) (*Reaction, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if rt != ReactionLike && rt != ReactionHeart {
		return nil, domain.ErrInvalidArgument
	}
	return &Reaction{
		ID:        id,
		UserID:    userID,
		Target:    target,
		Type:      rt,
		CreatedAt: time.Now(),
	}, nil
}
