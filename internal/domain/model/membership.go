package model

import (
	"time"

	"noor-community/internal/domain"

	"github.com/google/uuid"
)

// Membership links a user to a group. Unique per (group, user); created
// only by an approved join request, an invite-code join, or group creation.
type Membership struct {
	ID       string
	GroupID  string
	UserID   string
	JoinedAt time.Time
	IsAdmin  bool
}

func NewMembership(id, groupID, userID string, isAdmin bool) (*Membership, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if groupID == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Membership{
		ID:       id,
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now(),
		IsAdmin:  isAdmin,
	}, nil
}
