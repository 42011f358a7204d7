package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/infra/metrics"
)

// Outcome names the definitive result of an attempt. Every coordinator
// call yields exactly one outcome; storage faults are the only thing
// reported through the error return instead.
type Outcome string

const (
	OutcomeRedeemed         Outcome = "redeemed"
	OutcomeCodeCreated      Outcome = "code_created"
	OutcomeGroupCreated     Outcome = "group_created"
	OutcomeCodeNotFound     Outcome = "code_not_found"
	OutcomeCodeInactive     Outcome = "code_inactive"
	OutcomeCodeExpired      Outcome = "code_expired"
	OutcomeLimitExceeded    Outcome = "limit_exceeded"
	OutcomeGranted          Outcome = "granted"
	OutcomeAlreadyActive    Outcome = "already_active"
	OutcomeRequested        Outcome = "requested"
	OutcomeDuplicatePending Outcome = "duplicate_pending"
	OutcomeApproved         Outcome = "approved"
	OutcomeRejected         Outcome = "rejected"
	OutcomeNotPending       Outcome = "not_pending"
	OutcomeAlreadyMember    Outcome = "already_member"
	OutcomeJoined           Outcome = "joined"
	OutcomeLeft             Outcome = "left"
	OutcomeApplied          Outcome = "applied"
	OutcomeAlreadyReacted   Outcome = "already_reacted"
	OutcomeRemoved          Outcome = "removed"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeGroupNotFound    Outcome = "group_not_found"
	OutcomeInvalidTarget    Outcome = "invalid_target"
	OutcomeInvalidInput     Outcome = "invalid_input"
)

// Class buckets outcomes into the error taxonomy the API layer maps to
// responses.
type Class string

const (
	ClassOK           Class = "ok"
	ClassNotFound     Class = "not_found"
	ClassConflict     Class = "conflict"
	ClassExhausted    Class = "exhausted"
	ClassInvalidInput Class = "invalid_input"
)

func (o Outcome) Class() Class {
	switch o {
	case OutcomeRedeemed, OutcomeCodeCreated, OutcomeGroupCreated, OutcomeGranted,
		OutcomeRequested, OutcomeApproved, OutcomeRejected, OutcomeJoined,
		OutcomeLeft, OutcomeApplied, OutcomeRemoved:
		return ClassOK
	case OutcomeCodeNotFound, OutcomeNotFound, OutcomeGroupNotFound:
		return ClassNotFound
	case OutcomeAlreadyActive, OutcomeDuplicatePending, OutcomeNotPending,
		OutcomeAlreadyMember, OutcomeAlreadyReacted:
		return ClassConflict
	case OutcomeCodeInactive, OutcomeCodeExpired, OutcomeLimitExceeded:
		return ClassExhausted
	default:
		return ClassInvalidInput
	}
}

func (o Outcome) OK() bool { return o.Class() == ClassOK }

// Result is the uniform return of every coordinator operation. Exactly
// one payload field is set on success, depending on the operation.
type Result struct {
	Outcome Outcome

	Code       *model.RedemptionCode
	Trial      *model.FreeTrial
	Group      *model.Group
	Request    *model.JoinRequest
	Membership *model.Membership
	Reaction   *model.Reaction
}

// Coordinator composes the lifecycle components behind a uniform
// attempt-and-commit API. It holds no business state of its own: each
// call delegates to the owning use case and translates its sentinel
// errors into a named outcome. A non-nil error means the store itself
// failed and the caller should retry with backoff.
type Coordinator struct {
	redemption RedemptionUseCase
	trials     TrialUseCase
	membership MembershipUseCase
	reactions  ReactionUseCase
	log        *zerolog.Logger
}

func NewCoordinator(
	redemption RedemptionUseCase,
	trials TrialUseCase,
	membership MembershipUseCase,
	reactions ReactionUseCase,
	logger *zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		redemption: redemption,
		trials:     trials,
		membership: membership,
		reactions:  reactions,
		log:        logger,
	}
}

func (c *Coordinator) RedeemCode(ctx context.Context, code, actorID string) (Result, error) {
	rc, err := c.redemption.Redeem(ctx, code, actorID)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		metrics.IncRedemption(string(outcome))
		return Result{Outcome: outcome}, nil
	}
	metrics.IncRedemption(string(OutcomeRedeemed))
	return Result{Outcome: OutcomeRedeemed, Code: rc}, nil
}

func (c *Coordinator) CreateCode(ctx context.Context, kind model.CodeKind, usageLimit *int, expiresAt *time.Time, createdBy string) (Result, error) {
	rc, err := c.redemption.CreateCode(ctx, kind, usageLimit, expiresAt, createdBy)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		return Result{Outcome: outcome}, nil
	}
	return Result{Outcome: OutcomeCodeCreated, Code: rc}, nil
}

func (c *Coordinator) ActivateTrial(ctx context.Context, recipientID, grantedBy string) (Result, error) {
	t, err := c.trials.Activate(ctx, recipientID, grantedBy)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		metrics.IncTrialActivation(string(outcome))
		return Result{Outcome: outcome}, nil
	}
	metrics.IncTrialActivation(string(OutcomeGranted))
	return Result{Outcome: OutcomeGranted, Trial: t}, nil
}

func (c *Coordinator) CreateGroup(ctx context.Context, name, description, createdBy string, groupType model.GroupType, dailyTargetPages int) (Result, error) {
	g, err := c.membership.CreateGroup(ctx, name, description, createdBy, groupType, dailyTargetPages)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		return Result{Outcome: outcome}, nil
	}
	return Result{Outcome: OutcomeGroupCreated, Group: g}, nil
}

func (c *Coordinator) RequestJoin(ctx context.Context, groupID, requesterID, message string) (Result, error) {
	jr, err := c.membership.RequestJoin(ctx, groupID, requesterID, message)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		metrics.IncJoinRequest(string(outcome))
		return Result{Outcome: outcome}, nil
	}
	metrics.IncJoinRequest(string(OutcomeRequested))
	return Result{Outcome: OutcomeRequested, Request: jr}, nil
}

func (c *Coordinator) ReviewJoin(ctx context.Context, requestID, reviewerID string, decision ReviewDecision) (Result, error) {
	jr, err := c.membership.Review(ctx, requestID, reviewerID, decision)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		metrics.IncJoinReview(string(outcome))
		return Result{Outcome: outcome}, nil
	}
	outcome := OutcomeRejected
	if jr.Status == model.JoinRequestApproved {
		outcome = OutcomeApproved
	}
	metrics.IncJoinReview(string(outcome))
	return Result{Outcome: outcome, Request: jr}, nil
}

func (c *Coordinator) JoinByInvite(ctx context.Context, inviteCode, userID string) (Result, error) {
	m, err := c.membership.JoinByInvite(ctx, inviteCode, userID)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		return Result{Outcome: outcome}, nil
	}
	return Result{Outcome: OutcomeJoined, Membership: m}, nil
}

func (c *Coordinator) LeaveGroup(ctx context.Context, groupID, userID string) (Result, error) {
	if err := c.membership.Leave(ctx, groupID, userID); err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		return Result{Outcome: outcome}, nil
	}
	return Result{Outcome: OutcomeLeft}, nil
}

func (c *Coordinator) React(ctx context.Context, userID string, target model.ReactionTarget, rt model.ReactionType) (Result, error) {
	r, err := c.reactions.React(ctx, userID, target, rt)
	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		metrics.IncReaction(string(outcome))
		return Result{Outcome: outcome}, nil
	}
	metrics.IncReaction(string(OutcomeApplied))
	return Result{Outcome: OutcomeApplied, Reaction: r}, nil
}

func (c *Coordinator) Unreact(ctx context.Context, userID string, target model.ReactionTarget, rt model.ReactionType) (Result, error) {
	if err := c.reactions.Unreact(ctx, userID, target, rt); err != nil {
		outcome, ok := classify(err)
		if !ok {
			return Result{}, err
		}
		metrics.IncReaction(string(outcome))
		return Result{Outcome: outcome}, nil
	}
	metrics.IncReaction(string(OutcomeRemoved))
	return Result{Outcome: OutcomeRemoved}, nil
}

// classify maps domain sentinels to outcomes. The false return marks a
// storage-layer fault that must propagate as an error, never be
// downgraded to an outcome.
func classify(err error) (Outcome, bool) {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		return OutcomeCodeNotFound, true
	case errors.Is(err, domain.ErrCodeInactive):
		return OutcomeCodeInactive, true
	case errors.Is(err, domain.ErrCodeExpired):
		return OutcomeCodeExpired, true
	case errors.Is(err, domain.ErrLimitExceeded):
		return OutcomeLimitExceeded, true
	case errors.Is(err, domain.ErrTrialActive):
		return OutcomeAlreadyActive, true
	case errors.Is(err, domain.ErrDuplicatePending):
		return OutcomeDuplicatePending, true
	case errors.Is(err, domain.ErrNotPending):
		return OutcomeNotPending, true
	case errors.Is(err, domain.ErrAlreadyMember):
		return OutcomeAlreadyMember, true
	case errors.Is(err, domain.ErrAlreadyReacted):
		return OutcomeAlreadyReacted, true
	case errors.Is(err, domain.ErrInvalidTarget):
		return OutcomeInvalidTarget, true
	case errors.Is(err, domain.ErrGroupNotFound):
		return OutcomeGroupNotFound, true
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound, true
	case errors.Is(err, domain.ErrInvalidArgument):
		return OutcomeInvalidInput, true
	default:
		return "", false
	}
}
