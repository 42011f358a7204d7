package model

import (
	"time"

	"noor-community/internal/domain"

	"github.com/google/uuid"
)

// TrialDuration is the fixed length of a free trial.
const TrialDuration = 7 * 24 * time.Hour

// FreeTrial is a one-time, time-bounded premium grant for a recipient.
// At most one active trial may exist per recipient; the store enforces
// this with a partial unique index on (user_id) WHERE is_active.
type FreeTrial struct {
	ID          string
	RecipientID string
	GrantedBy   string
	ActivatedAt time.Time
	ExpiresAt   time.Time
	IsActive    bool
	CreatedAt   time.Time
}

func NewFreeTrial(id, recipientID, grantedBy string, now time.Time) (*FreeTrial, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if recipientID == "" || grantedBy == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &FreeTrial{
		ID:          id,
		RecipientID: recipientID,
		GrantedBy:   grantedBy,
		ActivatedAt: now,
		ExpiresAt:   now.Add(TrialDuration),
		IsActive:    true,
		CreatedAt:   now,
	}, nil
}

// ActiveAt derives liveness from the expiry rather than trusting the
// is_active flag alone; an expired-but-unswept grant counts as inactive.
func (t *FreeTrial) ActiveAt(now time.Time) bool {
	return t.IsActive && now.Before(t.ExpiresAt)
}
