package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/adapter"
	"noor-community/internal/domain/ports/repository"
	"noor-community/internal/infra/logging"
)

var _ MembershipUseCase = (*membershipUC)(nil)

// ReviewDecision is the reviewer's verdict on a join request.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// MembershipUseCase manages the join-request state machine and the
// memberships it produces.
type MembershipUseCase interface {
	CreateGroup(ctx context.Context, name, description, createdBy string, groupType model.GroupType, dailyTargetPages int) (*model.Group, error)
	// RequestJoin creates a pending join request. ErrDuplicatePending
	// when one is already open for (group, requester); ErrAlreadyMember
	// when the requester already belongs to the group.
	RequestJoin(ctx context.Context, groupID, requesterID, message string) (*model.JoinRequest, error)
	// Review settles a pending request. Approving creates the
	// membership and bumps member_count in the same transaction; a
	// terminal request always fails with ErrNotPending.
	Review(ctx context.Context, requestID, reviewerID string, decision ReviewDecision) (*model.JoinRequest, error)
	// JoinByInvite adds the user directly via the group invite code.
	JoinByInvite(ctx context.Context, inviteCode, userID string) (*model.Membership, error)
	// Leave removes the user's membership and decrements member_count.
	Leave(ctx context.Context, groupID, userID string) error
	PendingRequests(ctx context.Context, groupID string) ([]*model.JoinRequest, error)
}

type membershipUC struct {
	groups   repository.GroupRepository
	members  repository.MembershipRepository
	requests repository.JoinRequestRepository
	audit    adapter.AuditSink
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewMembershipUseCase(
	groups repository.GroupRepository,
	members repository.MembershipRepository,
	requests repository.JoinRequestRepository,
	audit adapter.AuditSink,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *membershipUC {
	return &membershipUC{groups: groups, members: members, requests: requests, audit: audit, tm: tm, log: logger}
}

func (u *membershipUC) CreateGroup(ctx context.Context, name, description, createdBy string, groupType model.GroupType, dailyTargetPages int) (*model.Group, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.CreateGroup")()

	var out *model.Group
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		invite, err := generateInviteCode()
		if err != nil {
			return err
		}
		g, err := model.NewGroup("", name, description, createdBy, invite, groupType, dailyTargetPages)
		if err != nil {
			return err
		}
		// Creator joins as admin, so the counter starts at one.
		g.MemberCount = 1
		if err := u.groups.Save(ctx, tx, g); err != nil {
			return err
		}
		m, err := model.NewMembership("", g.ID, createdBy, true)
		if err != nil {
			return err
		}
		if err := u.members.Insert(ctx, tx, m); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, model.NewAuditEvent(
		model.AuditGroupCreated, createdBy, out.ID,
		fmt.Sprintf(`{"name":%q}`, out.Name),
	))
	return out, nil
}

func (u *membershipUC) RequestJoin(ctx context.Context, groupID, requesterID, message string) (*model.JoinRequest, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.RequestJoin")()

	var out *model.JoinRequest
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.groups.FindByID(ctx, tx, groupID); err != nil {
			return err
		}
		if _, err := u.members.Find(ctx, tx, groupID, requesterID); err == nil {
			return domain.ErrAlreadyMember
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		jr, err := model.NewJoinRequest("", groupID, requesterID, message)
		if err != nil {
			return err
		}
		// The partial unique index rejects a second pending request for
		// the same (group, requester) even when two inserts race.
		if err := u.requests.Insert(ctx, tx, jr); err != nil {
			return err
		}
		out = jr
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("group_id", groupID).Str("requester_id", requesterID).Msg("join request created")
	return out, nil
}

func (u *membershipUC) Review(ctx context.Context, requestID, reviewerID string, decision ReviewDecision) (*model.JoinRequest, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.Review")()

	if decision != DecisionApprove && decision != DecisionReject {
		return nil, domain.ErrInvalidArgument
	}

	var out *model.JoinRequest
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		jr, err := u.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if jr.IsTerminal() {
			return domain.ErrNotPending
		}

		status := model.JoinRequestRejected
		if decision == DecisionApprove {
			status = model.JoinRequestApproved
		}
		// Guarded transition: the WHERE status='pending' clause means a
		// concurrent review of the same request loses cleanly.
		if err := u.requests.MarkReviewed(ctx, tx, jr.ID, status, reviewerID); err != nil {
			return err
		}

		if decision == DecisionApprove {
			m, err := model.NewMembership("", jr.GroupID, jr.RequesterID, false)
			if err != nil {
				return err
			}
			// ErrAlreadyMember fails the whole review, rolling the
			// transition back with it.
			if err := u.members.Insert(ctx, tx, m); err != nil {
				return err
			}
			if err := u.groups.AdjustMemberCount(ctx, tx, jr.GroupID, 1); err != nil {
				return err
			}
		}

		jr.Status = status
		jr.ReviewedBy = &reviewerID
		out = jr
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := model.AuditJoinRejected
	if decision == DecisionApprove {
		action = model.AuditJoinApproved
	}
	u.audit.Record(ctx, model.NewAuditEvent(
		action, reviewerID, out.ID,
		fmt.Sprintf(`{"group_id":%q,"requester_id":%q}`, out.GroupID, out.RequesterID),
	))
	u.log.Info().Str("request_id", requestID).Str("reviewer_id", reviewerID).Str("status", string(out.Status)).Msg("join request reviewed")
	return out, nil
}

func (u *membershipUC) JoinByInvite(ctx context.Context, inviteCode, userID string) (*model.Membership, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.JoinByInvite")()

	var out *model.Membership
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		g, err := u.groups.FindByInviteCode(ctx, tx, inviteCode)
		if err != nil {
			return err
		}
		m, err := model.NewMembership("", g.ID, userID, false)
		if err != nil {
			return err
		}
		if err := u.members.Insert(ctx, tx, m); err != nil {
			return err
		}
		if err := u.groups.AdjustMemberCount(ctx, tx, g.ID, 1); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, model.NewAuditEvent(
		model.AuditMemberInvited, userID, out.GroupID, "{}",
	))
	return out, nil
}

func (u *membershipUC) Leave(ctx context.Context, groupID, userID string) error {
	defer logging.TraceDuration(u.log, "MembershipUC.Leave")()

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.members.Delete(ctx, tx, groupID, userID); err != nil {
			return err
		}
		return u.groups.AdjustMemberCount(ctx, tx, groupID, -1)
	})
	if err != nil {
		return err
	}

	u.audit.Record(ctx, model.NewAuditEvent(
		model.AuditMemberLeft, userID, groupID, "{}",
	))
	return nil
}

func (u *membershipUC) PendingRequests(ctx context.Context, groupID string) ([]*model.JoinRequest, error) {
	return u.requests.ListPendingByGroup(ctx, repository.NoTX, groupID)
}
