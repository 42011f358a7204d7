//go:build !integration

package usecase_test

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

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately without a real transaction. For
// transactional behavior, assign a custom function to WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock AuditSink ----

type MockAuditSink struct {
	mu     sync.Mutex
	events []*model.AuditEvent
}

func NewMockAuditSink() *MockAuditSink {
	return &MockAuditSink{}
}

func (s *MockAuditSink) Record(ctx context.Context, e *model.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *MockAuditSink) Events() []*model.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ---- Mock RedemptionCodeRepo ----

// MockRedemptionCodeRepo mirrors the store's guarded-increment
// semantics: ConsumeUse re-checks the limit under the lock, exactly
// like the conditional UPDATE does in Postgres.
type MockRedemptionCodeRepo struct {
	mu   sync.Mutex
	data map[string]*model.RedemptionCode // by id

	SaveFunc                func(ctx context.Context, tx repository.Tx, code *model.RedemptionCode) error
	FindByCodeFunc          func(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error)
	FindByCodeForUpdateFunc func(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error)
	ConsumeUseFunc          func(ctx context.Context, tx repository.Tx, codeID string) error
	DeactivateFunc          func(ctx context.Context, tx repository.Tx, codeID string) error
	DeactivateExpiredFunc   func(ctx context.Context, now time.Time) (int, error)
}

var _ repository.RedemptionCodeRepository = (*MockRedemptionCodeRepo)(nil)

func NewMockRedemptionCodeRepo() *MockRedemptionCodeRepo {
	return &MockRedemptionCodeRepo{data: map[string]*model.RedemptionCode{}}
}

func (r *MockRedemptionCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.RedemptionCode) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, code)
	}
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

func (r *MockRedemptionCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	if r.FindByCodeFunc != nil {
		return r.FindByCodeFunc(ctx, tx, code)
	}
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

func (r *MockRedemptionCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	if r.FindByCodeForUpdateFunc != nil {
		return r.FindByCodeForUpdateFunc(ctx, tx, code)
	}
	return r.FindByCode(ctx, tx, code)
}

func (r *MockRedemptionCodeRepo) ConsumeUse(ctx context.Context, tx repository.Tx, codeID string) error {
	if r.ConsumeUseFunc != nil {
		return r.ConsumeUseFunc(ctx, tx, codeID)
	}
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
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MockRedemptionCodeRepo) Deactivate(ctx context.Context, tx repository.Tx, codeID string) error {
	if r.DeactivateFunc != nil {
		return r.DeactivateFunc(ctx, tx, codeID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[codeID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Active = false
	return nil
}

func (r *MockRedemptionCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	if r.DeactivateExpiredFunc != nil {
		return r.DeactivateExpiredFunc(ctx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.data {
		if c.Active && c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
			c.Active = false
			n++
		}
	}
	return n, nil
}

// Get returns the stored state of a code for assertions.
func (r *MockRedemptionCodeRepo) Get(codeID string) *model.RedemptionCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[codeID]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// ---- Mock RedemptionEventRepo ----

type redemptionEvent struct {
	CodeID  string
	Code    string
	ActorID string
	At      time.Time
}

type MockRedemptionEventRepo struct {
	mu     sync.Mutex
	events []redemptionEvent

	AppendFunc func(ctx context.Context, tx repository.Tx, codeID, code, actorID string, at time.Time) error
}

var _ repository.RedemptionEventRepository = (*MockRedemptionEventRepo)(nil)

func NewMockRedemptionEventRepo() *MockRedemptionEventRepo {
	return &MockRedemptionEventRepo{}
}

func (r *MockRedemptionEventRepo) Append(ctx context.Context, tx repository.Tx, codeID, code, actorID string, at time.Time) error {
	if r.AppendFunc != nil {
		return r.AppendFunc(ctx, tx, codeID, code, actorID, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, redemptionEvent{CodeID: codeID, Code: code, ActorID: actorID, At: at})
	return nil
}

func (r *MockRedemptionEventRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.CodeID == codeID {
			n++
		}
	}
	return n, nil
}

// ---- Mock FreeTrialRepo ----

// MockFreeTrialRepo enforces the one-active-row rule on insert under
// its lock, standing in for the partial unique index.
type MockFreeTrialRepo struct {
	mu   sync.Mutex
	data map[string]*model.FreeTrial // by id

	SaveFunc                  func(ctx context.Context, tx repository.Tx, trial *model.FreeTrial) error
	FindActiveByRecipientFunc func(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) (*model.FreeTrial, error)
}

var _ repository.FreeTrialRepository = (*MockFreeTrialRepo)(nil)

func NewMockFreeTrialRepo() *MockFreeTrialRepo {
	return &MockFreeTrialRepo{data: map[string]*model.FreeTrial{}}
}

func (r *MockFreeTrialRepo) Save(ctx context.Context, tx repository.Tx, trial *model.FreeTrial) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, trial)
	}
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

func (r *MockFreeTrialRepo) FindActiveByRecipient(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) (*model.FreeTrial, error) {
	if r.FindActiveByRecipientFunc != nil {
		return r.FindActiveByRecipientFunc(ctx, tx, recipientID, now)
	}
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

func (r *MockFreeTrialRepo) DeactivateExpiredFor(ctx context.Context, tx repository.Tx, recipientID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.data {
		if t.RecipientID == recipientID && t.IsActive && !t.ExpiresAt.After(now) {
			t.IsActive = false
		}
	}
	return nil
}

func (r *MockFreeTrialRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.data {
		if t.IsActive && !t.ExpiresAt.After(now) {
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

// ActiveCountFor reports live rows for assertions.
func (r *MockFreeTrialRepo) ActiveCountFor(recipientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.data {
		if t.RecipientID == recipientID && t.IsActive {
			n++
		}
	}
	return n
}

// ---- Mock GroupRepo ----

type MockGroupRepo struct {
	mu   sync.Mutex
	data map[string]*model.Group // by id

	SaveFunc              func(ctx context.Context, tx repository.Tx, g *model.Group) error
	AdjustMemberCountFunc func(ctx context.Context, tx repository.Tx, groupID string, delta int) error
}

var _ repository.GroupRepository = (*MockGroupRepo)(nil)

func NewMockGroupRepo() *MockGroupRepo {
	return &MockGroupRepo{data: map[string]*model.Group{}}
}

func (r *MockGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, g)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.data {
		if other.InviteCode == g.InviteCode && other.ID != g.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *g
	r.data[g.ID] = &cp
	return nil
}

func (r *MockGroupRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.data[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *MockGroupRepo) FindByInviteCode(ctx context.Context, tx repository.Tx, inviteCode string) (*model.Group, error) {
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

func (r *MockGroupRepo) AdjustMemberCount(ctx context.Context, tx repository.Tx, groupID string, delta int) error {
	if r.AdjustMemberCountFunc != nil {
		return r.AdjustMemberCountFunc(ctx, tx, groupID, delta)
	}
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

func (r *MockGroupRepo) RecomputeMemberCounts(ctx context.Context) (int, error) {
	return 0, nil
}

func (r *MockGroupRepo) Get(id string) *model.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.data[id]
	if !ok {
		return nil
	}
	cp := *g
	return &cp
}

// ---- Mock MembershipRepo ----

type MockMembershipRepo struct {
	mu   sync.Mutex
	data map[string]*model.Membership // by groupID+"/"+userID

	InsertFunc func(ctx context.Context, tx repository.Tx, m *model.Membership) error
	DeleteFunc func(ctx context.Context, tx repository.Tx, groupID, userID string) error
}

var _ repository.MembershipRepository = (*MockMembershipRepo)(nil)

func NewMockMembershipRepo() *MockMembershipRepo {
	return &MockMembershipRepo{data: map[string]*model.Membership{}}
}

func membershipKey(groupID, userID string) string { return groupID + "/" + userID }

func (r *MockMembershipRepo) Insert(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey(m.GroupID, m.UserID)
	if _, exists := r.data[key]; exists {
		return domain.ErrAlreadyMember
	}
	cp := *m
	r.data[key] = &cp
	return nil
}

func (r *MockMembershipRepo) Find(ctx context.Context, tx repository.Tx, groupID, userID string) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[membershipKey(groupID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MockMembershipRepo) Delete(ctx context.Context, tx repository.Tx, groupID, userID string) error {
	if r.DeleteFunc != nil {
		return r.DeleteFunc(ctx, tx, groupID, userID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey(groupID, userID)
	if _, ok := r.data[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, key)
	return nil
}

func (r *MockMembershipRepo) CountByGroup(ctx context.Context, tx repository.Tx, groupID string) (int, error) {
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

// ---- Mock JoinRequestRepo ----

// MockJoinRequestRepo guards both the one-pending rule on insert and
// the pending->terminal transition in MarkReviewed, matching the
// store's partial unique index and conditional UPDATE.
type MockJoinRequestRepo struct {
	mu   sync.Mutex
	data map[string]*model.JoinRequest // by id

	InsertFunc       func(ctx context.Context, tx repository.Tx, jr *model.JoinRequest) error
	MarkReviewedFunc func(ctx context.Context, tx repository.Tx, id string, status model.JoinRequestStatus, reviewerID string) error
}

var _ repository.JoinRequestRepository = (*MockJoinRequestRepo)(nil)

func NewMockJoinRequestRepo() *MockJoinRequestRepo {
	return &MockJoinRequestRepo{data: map[string]*model.JoinRequest{}}
}

func (r *MockJoinRequestRepo) Insert(ctx context.Context, tx repository.Tx, jr *model.JoinRequest) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, jr)
	}
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

func (r *MockJoinRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jr, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *jr
	return &cp, nil
}

func (r *MockJoinRequestRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.JoinRequest, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *MockJoinRequestRepo) MarkReviewed(ctx context.Context, tx repository.Tx, id string, status model.JoinRequestStatus, reviewerID string) error {
	if r.MarkReviewedFunc != nil {
		return r.MarkReviewedFunc(ctx, tx, id, status, reviewerID)
	}
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

func (r *MockJoinRequestRepo) ListPendingByGroup(ctx context.Context, tx repository.Tx, groupID string) ([]*model.JoinRequest, error) {
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

// ---- Mock ReactionRepo ----

type MockReactionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Reaction // by userID+"/"+target.Key()+"/"+type

	InsertFunc func(ctx context.Context, tx repository.Tx, re *model.Reaction) error
}

var _ repository.ReactionRepository = (*MockReactionRepo)(nil)

func NewMockReactionRepo() *MockReactionRepo {
	return &MockReactionRepo{data: map[string]*model.Reaction{}}
}

func reactionKey(userID string, target model.ReactionTarget, rt model.ReactionType) string {
	return userID + "/" + target.Key() + "/" + string(rt)
}

func (r *MockReactionRepo) Insert(ctx context.Context, tx repository.Tx, re *model.Reaction) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, re)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey(re.UserID, re.Target, re.Type)
	if _, exists := r.data[key]; exists {
		return domain.ErrAlreadyReacted
	}
	cp := *re
	r.data[key] = &cp
	return nil
}

func (r *MockReactionRepo) Delete(ctx context.Context, tx repository.Tx, userID string, target model.ReactionTarget, rt model.ReactionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey(userID, target, rt)
	if _, ok := r.data[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, key)
	return nil
}

func (r *MockReactionRepo) CountForTarget(ctx context.Context, tx repository.Tx, target model.ReactionTarget, rt model.ReactionType) (int, error) {
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

// ---- Mock AuditEventRepo ----

type MockAuditEventRepo struct {
	mu     sync.Mutex
	events []*model.AuditEvent

	AppendFunc func(ctx context.Context, tx repository.Tx, e *model.AuditEvent) error
}

var _ repository.AuditEventRepository = (*MockAuditEventRepo)(nil)

func NewMockAuditEventRepo() *MockAuditEventRepo {
	return &MockAuditEventRepo{}
}

func (r *MockAuditEventRepo) Append(ctx context.Context, tx repository.Tx, e *model.AuditEvent) error {
	if r.AppendFunc != nil {
		return r.AppendFunc(ctx, tx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MockAuditEventRepo) Events() []*model.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}
