package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"noor-community/internal/domain"
	"noor-community/internal/domain/model"
	"noor-community/internal/usecase"
)

// outcomeResponse is the envelope every coordinator-backed route
// returns. Exactly one payload field is set on success.
type outcomeResponse struct {
	Outcome usecase.Outcome `json:"outcome"`
	Class   usecase.Class   `json:"class"`

	Code       *codeView       `json:"code,omitempty"`
	Trial      *trialView      `json:"trial,omitempty"`
	Group      *groupView      `json:"group,omitempty"`
	Request    *joinReqView    `json:"join_request,omitempty"`
	Membership *membershipView `json:"membership,omitempty"`
	Reaction   *reactionView   `json:"reaction,omitempty"`
}

type codeView struct {
	Code          string     `json:"code"`
	Kind          string     `json:"kind"`
	UsageLimit    *int       `json:"usage_limit"`
	UsageCount    int        `json:"usage_count"`
	RemainingUses int        `json:"remaining_uses"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Active        bool       `json:"active"`
}

type trialView struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsActive    bool      `json:"is_active"`
}

type groupView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	GroupType   string `json:"group_type"`
	MemberCount int    `json:"member_count"`
	InviteCode  string `json:"invite_code,omitempty"`
}

type joinReqView struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"group_id"`
	RequesterID string     `json:"requester_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
}

type membershipView struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	IsAdmin  bool      `json:"is_admin"`
}

type reactionView struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	PostID    *string `json:"post_id,omitempty"`
	CommentID *string `json:"comment_id,omitempty"`
	Type      string  `json:"type"`
}

func newCodeView(c *model.RedemptionCode) *codeView {
	if c == nil {
		return nil
	}
	return &codeView{
		Code:          c.Code,
		Kind:          string(c.Kind),
		UsageLimit:    c.UsageLimit,
		UsageCount:    c.UsageCount,
		RemainingUses: c.RemainingUses(),
		ExpiresAt:     c.ExpiresAt,
		Active:        c.Active,
	}
}

func newTrialView(t *model.FreeTrial) *trialView {
	if t == nil {
		return nil
	}
	return &trialView{
		ID:          t.ID,
		RecipientID: t.RecipientID,
		ActivatedAt: t.ActivatedAt,
		ExpiresAt:   t.ExpiresAt,
		IsActive:    t.IsActive,
	}
}

func newGroupView(g *model.Group, includeInvite bool) *groupView {
	if g == nil {
		return nil
	}
	v := &groupView{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		GroupType:   string(g.GroupType),
		MemberCount: g.MemberCount,
	}
	if includeInvite {
		v.InviteCode = g.InviteCode
	}
	return v
}

func newJoinReqView(jr *model.JoinRequest) *joinReqView {
	if jr == nil {
		return nil
	}
	return &joinReqView{
		ID:          jr.ID,
		GroupID:     jr.GroupID,
		RequesterID: jr.RequesterID,
		Status:      string(jr.Status),
		CreatedAt:   jr.CreatedAt,
		ReviewedAt:  jr.ReviewedAt,
		ReviewedBy:  jr.ReviewedBy,
	}
}

func newMembershipView(m *model.Membership) *membershipView {
	if m == nil {
		return nil
	}
	return &membershipView{
		ID:       m.ID,
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		JoinedAt: m.JoinedAt,
		IsAdmin:  m.IsAdmin,
	}
}

func newReactionView(r *model.Reaction) *reactionView {
	if r == nil {
		return nil
	}
	return &reactionView{
		ID:        r.ID,
		UserID:    r.UserID,
		PostID:    r.Target.PostID(),
		CommentID: r.Target.CommentID(),
		Type:      string(r.Type),
	}
}

func statusFor(class usecase.Class, created bool) int {
	switch class {
	case usecase.ClassOK:
		if created {
			return http.StatusCreated
		}
		return http.StatusOK
	case usecase.ClassNotFound:
		return http.StatusNotFound
	case usecase.ClassConflict:
		return http.StatusConflict
	case usecase.ClassExhausted:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeOutcome(w http.ResponseWriter, res usecase.Result, created bool, fill func(*outcomeResponse)) {
	resp := outcomeResponse{Outcome: res.Outcome, Class: res.Outcome.Class()}
	if res.Outcome.OK() && fill != nil {
		fill(&resp)
	}
	writeJSON(w, statusFor(resp.Class, created && res.Outcome.OK()), resp)
}

func actorID(r *http.Request) string { return r.Header.Get(actorHeader) }

// ===== auth =====

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.auth.VerifyAPIKey(req.APIKey) {
		writeError(w, http.StatusForbidden, "invalid api key")
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ===== redemption codes =====

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.RedeemCode(r.Context(), req.Code, actorID(r))
	if err != nil {
		s.log.Error().Err(err).Msg("redeem failed")
		writeError(w, http.StatusInternalServerError, "redemption failed")
		return
	}
	writeOutcome(w, res, false, func(resp *outcomeResponse) { resp.Code = newCodeView(res.Code) })
}

func (s *Server) handleCreateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind       string     `json:"kind"`
		UsageLimit *int       `json:"usage_limit"`
		ExpiresAt  *time.Time `json:"expires_at"`
		CreatedBy  string     `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.CreateCode(r.Context(), model.CodeKind(req.Kind), req.UsageLimit, req.ExpiresAt, req.CreatedBy)
	if err != nil {
		s.log.Error().Err(err).Msg("create code failed")
		writeError(w, http.StatusInternalServerError, "code creation failed")
		return
	}
	writeOutcome(w, res, true, func(resp *outcomeResponse) { resp.Code = newCodeView(res.Code) })
}

func (s *Server) handleLookupCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	rc, err := s.redUC.Lookup(r.Context(), code)
	if err != nil {
		if err == domain.ErrCodeNotFound {
			writeError(w, http.StatusNotFound, "code not found")
			return
		}
		s.log.Error().Err(err).Msg("code lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, newCodeView(rc))
}

// ===== free trials =====

func (s *Server) handleActivateTrial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID string `json:"recipient_id"`
		GrantedBy   string `json:"granted_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.ActivateTrial(r.Context(), req.RecipientID, req.GrantedBy)
	if err != nil {
		s.log.Error().Err(err).Msg("trial activation failed")
		writeError(w, http.StatusInternalServerError, "trial activation failed")
		return
	}
	writeOutcome(w, res, true, func(resp *outcomeResponse) { resp.Trial = newTrialView(res.Trial) })
}

// ===== groups & join requests =====

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		GroupType        string `json:"group_type"`
		DailyTargetPages int    `json:"daily_target_pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.CreateGroup(r.Context(), req.Name, req.Description, actorID(r), model.GroupType(req.GroupType), req.DailyTargetPages)
	if err != nil {
		s.log.Error().Err(err).Msg("group creation failed")
		writeError(w, http.StatusInternalServerError, "group creation failed")
		return
	}
	// Creator sees the invite code.
	writeOutcome(w, res, true, func(resp *outcomeResponse) { resp.Group = newGroupView(res.Group, true) })
}

func (s *Server) handleRequestJoin(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.RequestJoin(r.Context(), groupID, actorID(r), req.Message)
	if err != nil {
		s.log.Error().Err(err).Msg("join request failed")
		writeError(w, http.StatusInternalServerError, "join request failed")
		return
	}
	writeOutcome(w, res, true, func(resp *outcomeResponse) { resp.Request = newJoinReqView(res.Request) })
}

func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	requests, err := s.memUC.PendingRequests(r.Context(), groupID)
	if err != nil {
		if err == domain.ErrGroupNotFound {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		s.log.Error().Err(err).Msg("pending requests listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	views := make([]*joinReqView, 0, len(requests))
	for _, jr := range requests {
		views = append(views, newJoinReqView(jr))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*joinReqView `json:"data"`
	}{Data: views})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.ReviewJoin(r.Context(), requestID, actorID(r), usecase.ReviewDecision(req.Decision))
	if err != nil {
		s.log.Error().Err(err).Msg("review failed")
		writeError(w, http.StatusInternalServerError, "review failed")
		return
	}
	writeOutcome(w, res, false, func(resp *outcomeResponse) { resp.Request = newJoinReqView(res.Request) })
}

func (s *Server) handleJoinByInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.coord.JoinByInvite(r.Context(), req.InviteCode, actorID(r))
	if err != nil {
		s.log.Error().Err(err).Msg("invite join failed")
		writeError(w, http.StatusInternalServerError, "join failed")
		return
	}
	writeOutcome(w, res, true, func(resp *outcomeResponse) { resp.Membership = newMembershipView(res.Membership) })
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	res, err := s.coord.LeaveGroup(r.Context(), groupID, actorID(r))
	if err != nil {
		s.log.Error().Err(err).Msg("leave failed")
		writeError(w, http.StatusInternalServerError, "leave failed")
		return
	}
	writeOutcome(w, res, false, nil)
}

// ===== reactions =====

type reactionRequest struct {
	PostID    *string `json:"post_id"`
	CommentID *string `json:"comment_id"`
	Type      string  `json:"type"`
}

func (req *reactionRequest) target() (model.ReactionTarget, error) {
	return model.TargetFromRefs(req.PostID, req.CommentID)
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, err := req.target()
	if err != nil {
		writeError(w, http.StatusBadRequest, "exactly one of post_id or comment_id is required")
		return
	}

	res, err := s.coord.React(r.Context(), actorID(r), target, model.ReactionType(req.Type))
	if err != nil {
		s.log.Error().Err(err).Msg("react failed")
		writeError(w, http.StatusInternalServerError, "reaction failed")
		return
	}
	writeOutcome(w, res, true, func(resp *outcomeResponse) { resp.Reaction = newReactionView(res.Reaction) })
}

func (s *Server) handleUnreact(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, err := req.target()
	if err != nil {
		writeError(w, http.StatusBadRequest, "exactly one of post_id or comment_id is required")
		return
	}

	res, err := s.coord.Unreact(r.Context(), actorID(r), target, model.ReactionType(req.Type))
	if err != nil {
		s.log.Error().Err(err).Msg("unreact failed")
		writeError(w, http.StatusInternalServerError, "reaction removal failed")
		return
	}
	writeOutcome(w, res, false, nil)
}

func (s *Server) handleCountReactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var postID, commentID *string
	if v := q.Get("post_id"); v != "" {
		postID = &v
	}
	if v := q.Get("comment_id"); v != "" {
		commentID = &v
	}
	target, err := model.TargetFromRefs(postID, commentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "exactly one of post_id or comment_id is required")
		return
	}

	count, err := s.reactUC.CountReactions(r.Context(), target, model.ReactionType(q.Get("type")))
	if err != nil {
		s.log.Error().Err(err).Msg("reaction count failed")
		writeError(w, http.StatusInternalServerError, "count failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
