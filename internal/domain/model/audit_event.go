package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type AuditAction string

const (
	AuditCodeRedeemed  AuditAction = "code_redeemed"
	AuditCodeCreated   AuditAction = "code_created"
	AuditTrialGranted  AuditAction = "trial_granted"
	AuditJoinApproved  AuditAction = "join_approved"
	AuditJoinRejected  AuditAction = "join_rejected"
	AuditMemberLeft    AuditAction = "member_left"
	AuditGroupCreated  AuditAction = "group_created"
	AuditMemberInvited AuditAction = "member_invited"
)

// AuditEvent is an append-only record of a decision taken by the core.
// IDs are ULIDs so the stream sorts by time without a secondary index.
type AuditEvent struct {
	ID        string
	Action    AuditAction
	ActorID   string
	SubjectID string
	Details   string
	CreatedAt time.Time
}

func NewAuditEvent(action AuditAction, actorID, subjectID, details string) *AuditEvent {
	now := time.Now()
	return &AuditEvent{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Action:    action,
		ActorID:   actorID,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: now,
	}
}
