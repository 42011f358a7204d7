package model

import (
	"time"

	"noor-community/internal/domain"

	"github.com/google/uuid"
)

type GroupType string

const (
	GroupTypePrivate GroupType = "private"
	GroupTypePublic  GroupType = "public"
)

// Group is an accountability group. MemberCount is denormalized from
// group_memberships and is repaired by the reconciler; the membership
// rows are the source of truth.
type Group struct {
	ID               string
	Name             string
	Description      string
	DailyTargetPages int
	MemberCount      int
	AverageStreak    int
	CreatedBy        string
	InviteCode       string
	GroupType        GroupType
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewGroup(id, name, description, createdBy, inviteCode string, groupType GroupType, dailyTargetPages int) (*Group, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || createdBy == "" || inviteCode == "" {
		return nil, domain.ErrInvalidArgument
	}
	if groupType == "" {
		groupType = GroupTypePrivate
	}
	if groupType != GroupTypePrivate && groupType != GroupTypePublic {
		return nil, domain.ErrInvalidArgument
	}
	if dailyTargetPages <= 0 {
		dailyTargetPages = 2
	}
	now := time.Now()
	return &Group{
		ID:               id,
		Name:             name,
		Description:      description,
		DailyTargetPages: dailyTargetPages,
		MemberCount:      0,
		CreatedBy:        createdBy,
		InviteCode:       inviteCode,
		GroupType:        groupType,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
