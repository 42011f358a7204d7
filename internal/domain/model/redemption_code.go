package model

import (
	"time"

	"noor-community/internal/domain"

	"github.com/google/uuid"
)

type CodeKind string

const (
	CodeKindDiscount   CodeKind = "discount"
	CodeKindInvitation CodeKind = "invitation"
)

// RedemptionCode is a limited-use code (discount or invitation).
// UsageCount only ever increases; the guarded increment lives in the
// repository so the limit check and the write commit together.
type RedemptionCode struct {
	ID                 string
	Code               string
	Kind               CodeKind
	DiscountPercentage *int     // discount kind only
	DiscountAmount     *float64 // discount kind only
	UsageLimit         *int     // nil means unlimited
	UsageCount         int
	ExpiresAt          *time.Time
	Active             bool
	CreatedBy          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewRedemptionCode(id, code string, kind CodeKind, usageLimit *int, expiresAt *time.Time, createdBy *string) (*RedemptionCode, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if kind != CodeKindDiscount && kind != CodeKindInvitation {
		return nil, domain.ErrInvalidArgument
	}
	if usageLimit != nil && *usageLimit <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &RedemptionCode{
		ID:         id,
		Code:       code,
		Kind:       kind,
		UsageLimit: usageLimit,
		UsageCount: 0,
		ExpiresAt:  expiresAt,
		Active:     true,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ExpiredAt reports whether the code's expiry has passed at the given instant.
// An unset expiry never expires.
func (c *RedemptionCode) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Exhausted reports whether every allowed use has been consumed.
func (c *RedemptionCode) Exhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// RemainingUses returns the number of uses left, or -1 for unlimited codes.
func (c *RedemptionCode) RemainingUses() int {
	if c.UsageLimit == nil {
		return -1
	}
	left := *c.UsageLimit - c.UsageCount
	if left < 0 {
		return 0
	}
	return left
}
