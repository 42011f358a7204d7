package model

import (
	"time"

	"noor-community/internal/domain"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a request to join a group. Only one pending request may
// exist per (group, requester); approved and rejected are terminal.
type JoinRequest struct {
	ID          string
	GroupID     string
	RequesterID string
	Message     string
	Status      JoinRequestStatus
	CreatedAt   time.Time
	ReviewedAt  *time.Time
	ReviewedBy  *string
}

func NewJoinRequest(id, groupID, requesterID, message string) (*JoinRequest, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if groupID == "" || requesterID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &JoinRequest{
		ID:          id,
		GroupID:     groupID,
		RequesterID: requesterID,
		Message:     message,
		Status:      JoinRequestPending,
		CreatedAt:   time.Now(),
	}, nil
}

func (r *JoinRequest) IsTerminal() bool {
	return r.Status == JoinRequestApproved || r.Status == JoinRequestRejected
}
