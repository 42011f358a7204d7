package repository

import (
	"context"

	"noor-community/internal/domain/model"
)

// GroupRepository is the port for accountability groups.
type GroupRepository interface {
	Save(ctx context.Context, tx Tx, g *model.Group) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Group, error)
	FindByInviteCode(ctx context.Context, tx Tx, inviteCode string) (*model.Group, error)

	// AdjustMemberCount applies a relative delta to the denormalized
	// counter in a single statement; callers run it inside the same
	// transaction as the membership write it mirrors.
	AdjustMemberCount(ctx context.Context, tx Tx, groupID string, delta int) error

	// RecomputeMemberCounts rewrites member_count from the membership
	// rows for every group and returns how many rows were corrected.
	// Recomputation is the source of truth; the incremental deltas are
	// an optimization it keeps honest.
	RecomputeMemberCounts(ctx context.Context) (int, error)
}

// MembershipRepository is the port for group memberships.
type MembershipRepository interface {
	// Insert creates the membership. The unique (group_id, user_id)
	// constraint maps to domain.ErrAlreadyMember.
	Insert(ctx context.Context, tx Tx, m *model.Membership) error
	Find(ctx context.Context, tx Tx, groupID, userID string) (*model.Membership, error)
	// Delete removes the membership; domain.ErrNotFound when absent.
	Delete(ctx context.Context, tx Tx, groupID, userID string) error
	CountByGroup(ctx context.Context, tx Tx, groupID string) (int, error)
}

// JoinRequestRepository is the port for join-request lifecycles.
type JoinRequestRepository interface {
	// Insert creates a pending request. The partial unique index on
	// (group_id, user_id) WHERE status='pending' maps to
	// domain.ErrDuplicatePending.
	Insert(ctx context.Context, tx Tx, r *model.JoinRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.JoinRequest, error)
	// FindByIDForUpdate locks the row so a review decision is serialized
	// against concurrent reviews of the same request.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.JoinRequest, error)
	// MarkReviewed transitions pending -> status, stamping reviewer and
	// time, guarded by WHERE status='pending'. Returns
	// domain.ErrNotPending when the request is already terminal.
	MarkReviewed(ctx context.Context, tx Tx, id string, status model.JoinRequestStatus, reviewerID string) error
	ListPendingByGroup(ctx context.Context, tx Tx, groupID string) ([]*model.JoinRequest, error)
}
