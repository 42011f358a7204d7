//go:build !integration

package web

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- passthrough tx manager ---

type passTxManager struct{}

func (passTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// --- discard audit sink ---

type discardAuditSink struct{}

func (discardAuditSink) Record(ctx context.Context, e *model.AuditEvent) {}

// --- in-memory repositories, just enough for the handlers ---

type memCodeRepo struct {
	mu   sync.Mutex
	data map[string]*model.RedemptionCode // by id
}

func newMemCodeRepo() *memCodeRepo { return &memCodeRepo{data: map[string]*model.RedemptionCode{}} }

func (r *memCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.RedemptionCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.Code == code.Code && c.ID != code.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *code
	r.data[code.ID] = &cp
	return nil
}

func (r *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	return r.FindByCode(ctx, tx, code)
}

func (r *memCodeRepo) ConsumeUse(ctx context.Context, tx repository.Tx, codeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[codeID]
	if !ok {
		return domain.ErrNotFound
	}
	if !c.Active || (c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit) {
		return domain.ErrLimitExceeded
	}
	c.UsageCount++
	c.Active = c.UsageLimit == nil || c.UsageCount < *c.UsageLimit
	return nil
}

func (r *memCodeRepo) Deactivate(ctx context.Context, tx repository.Tx, codeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.data[codeID]; ok {
		c.Active = false
		return nil
	}
	return domain.ErrNotFound
}

func (r *memCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type memEventRepo struct{ mu sync.Mutex; n int }

func (r *memEventRepo) Append(ctx context.Context, tx repository.Tx, codeID, code, actorID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return nil
}

func (r *memEventRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n, nil
}

type memTrialRepo struct {
	mu   sync.Mutex
	data map[string]*model.FreeTrial
}

func newMemTrialRepo() *memTrialRepo { return &memTrialRepo{data: map[string]*model.FreeTrial{}} }

func (r *memTrialRepo) Save(ctx context.Context, tx repository.Tx, trial *model.FreeTrial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.data {
		if t.RecipientID == trial.RecipientID && t.IsActive && t.ID != trial.ID {
			return domain.ErrTrialActive
		}
	}
	cp := *trial
	r.data[trial.ID] = &cp
	return nil
}

func (r *memTrialRepo) FindActiveByRecipient(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) (*model.FreeTrial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.data {
		if t.RecipientID == recipientID && t.IsActive && t.ExpiresAt.After(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTrialRepo) DeactivateExpiredFor(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.data {
		if t.RecipientID == recipientID && t.IsActive && !t.ExpiresAt.After(now) {
			t.IsActive = false
		}
	}
	return nil
}

func (r *memTrialRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type memGroupRepo struct {
	mu   sync.Mutex
	data map[string]*model.Group
}

func newMemGroupRepo() *memGroupRepo { return &memGroupRepo{data: map[string]*model.Group{}} }

func (r *memGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.data[g.ID] = &cp
	return nil
}

func (r *memGroupRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.data[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGroupRepo) FindByInviteCode(ctx context.Context, tx repository.Tx, inviteCode string) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.data {
		if g.InviteCode == inviteCode {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (r *memGroupRepo) AdjustMemberCount(ctx context.Context, tx repository.Tx, groupID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.data[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	g.MemberCount += delta
	if g.MemberCount < 0 {
		g.MemberCount = 0
	}
	return nil
}

func (r *memGroupRepo) RecomputeMemberCounts(ctx context.Context) (int, error) { return 0, nil }

type memMembershipRepo struct {
	mu   sync.Mutex
	data map[string]*model.Membership // groupID+"/"+userID
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{data: map[string]*model.Membership{}}
}

func (r *memMembershipRepo) Insert(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := m.GroupID + "/" + m.UserID
	if _, exists := r.data[key]; exists {
		return domain.ErrAlreadyMember
	}
	cp := *m
	r.data[key] = &cp
	return nil
}

func (r *memMembershipRepo) Find(ctx context.Context, tx repository.Tx, groupID, userID string) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[groupID+"/"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMembershipRepo) Delete(ctx context.Context, tx repository.Tx, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := groupID + "/" + userID
	if _, ok := r.data[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, key)
	return nil
}

func (r *memMembershipRepo) CountByGroup(ctx context.Context, tx repository.Tx, groupID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.data {
		if m.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

type memJoinRequestRepo struct {
	mu   sync.Mutex
	data map[string]*model.JoinRequest
}

func newMemJoinRequestRepo() *memJoinRequestRepo {
	return &memJoinRequestRepo{data: map[string]*model.JoinRequest{}}
}

func (r *memJoinRequestRepo) Insert(ctx context.Context, tx repository.Tx, jr *model.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.data {
		if other.GroupID == jr.GroupID && other.RequesterID == jr.RequesterID &&
			other.Status == model.JoinRequestPending && other.ID != jr.ID {
			return domain.ErrDuplicatePending
		}
	}
	cp := *jr
	r.data[jr.ID] = &cp
	return nil
}

func (r *memJoinRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jr, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *jr
	return &cp, nil
}

func (r *memJoinRequestRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.JoinRequest, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *memJoinRequestRepo) MarkReviewed(ctx context.Context, tx repository.Tx, id string, status model.JoinRequestStatus, reviewerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	jr, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	if jr.Status != model.JoinRequestPending {
		return domain.ErrNotPending
	}
	now := time.Now()
	jr.Status = status
	jr.ReviewedBy = &reviewerID
	jr.ReviewedAt = &now
	return nil
}

func (r *memJoinRequestRepo) ListPendingByGroup(ctx context.Context, tx repository.Tx, groupID string) ([]*model.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.JoinRequest
	for _, jr := range r.data {
		if jr.GroupID == groupID && jr.Status == model.JoinRequestPending {
			cp := *jr
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memReactionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Reaction
}

func newMemReactionRepo() *memReactionRepo { return &memReactionRepo{data: map[string]*model.Reaction{}} }

func (r *memReactionRepo) key(userID string, target model.ReactionTarget, rt model.ReactionType) string {
	return userID + "/" + target.Key() + "/" + string(rt)
}

func (r *memReactionRepo) Insert(ctx context.Context, tx repository.Tx, re *model.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(re.UserID, re.Target, re.Type)
	if _, exists := r.data[key]; exists {
		return domain.ErrAlreadyReacted
	}
	cp := *re
	r.data[key] = &cp
	return nil
}

func (r *memReactionRepo) Delete(ctx context.Context, tx repository.Tx, userID string, target model.ReactionTarget, rt model.ReactionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(userID, target, rt)
	if _, ok := r.data[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, key)
	return nil
}

func (r *memReactionRepo) CountForTarget(ctx context.Context, tx repository.Tx, target model.ReactionTarget, rt model.ReactionType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, re := range r.data {
		if re.Target.Key() == target.Key() && re.Type == rt {
			n++
		}
	}
	return n, nil
}
