package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/cache"
	"github.com/bluesumk/mjjf/internal/model"
	"github.com/bluesumk/mjjf/internal/repository"
	"github.com/bluesumk/mjjf/internal/scoring"
)

// SessionService owns the session lifecycle: create, join, round submission,
// finalize and destructive delete.
type SessionService struct {
	sessions     repository.SessionRepo
	invites      *InviteService
	sessionCache cache.SessionCache
	leaderboard  cache.LeaderboardCache
	log          *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessions repository.SessionRepo,
	invites *InviteService,
	sessionCache cache.SessionCache,
	leaderboard cache.LeaderboardCache,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		invites:      invites,
		sessionCache: sessionCache,
		leaderboard:  leaderboard,
		log:          log.Named("session"),
	}
}

// CreateSessionRequest is the validated input for Create. ID and InviteToken
// are generated server-side when absent.
type CreateSessionRequest struct {
	ID           string   `json:"id,omitempty"`
	Participants []string `json:"participants"`
	HouseShare   bool     `json:"houseShareEnabled"`
	InviteToken  string   `json:"inviteToken,omitempty"`
}

// Create starts a new ongoing session with the caller as owner and sole
// member. Creation is idempotent by id: re-invoking with the same id
// overwrites instead of duplicating.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest, identity string) (*model.Session, error) {
	if len(req.Participants) == 0 {
		return nil, apperr.New(apperr.CodeBadParam, "participants required")
	}
	seen := map[string]bool{}
	for _, name := range req.Participants {
		if name == "" {
			return nil, apperr.New(apperr.CodeBadParam, "participant names must be non-empty")
		}
		if name == model.HouseName {
			return nil, apperr.New(apperr.CodeBadParam, "the house seat is added via houseShareEnabled")
		}
		if seen[name] {
			return nil, apperr.New(apperr.CodeBadParam, fmt.Sprintf("duplicate participant %q", name))
		}
		seen[name] = true
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	token := req.InviteToken
	if token == "" {
		token = uuid.New().String()[:8]
	}

	now := time.Now()
	session := &model.Session{
		ID:           id,
		OwnerID:      identity,
		Participants: req.Participants,
		HouseShare:   req.HouseShare,
		Rounds:       []model.Round{},
		Multiplier:   1,
		Status:       model.SessionOngoing,
		CreatedAt:    now,
		UpdatedAt:    now,
		InviteToken:  token,
		Members:      []string{identity},
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Collaborator failures degrade, they never block session creation.
	if err := s.invites.Register(ctx, session); err != nil {
		s.log.Warn("invite side-table registration failed", zap.String("sid", id), zap.Error(err))
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.log.Warn("session cache write failed", zap.String("sid", id), zap.Error(err))
	}

	s.log.Info("session created", zap.String("sid", id), zap.Int("participants", len(req.Participants)))
	return session, nil
}

// Get returns a session by id, serving from the cache when possible.
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	if cached, err := s.sessionCache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.Warn("session cache read failed", zap.String("sid", id), zap.Error(err))
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, apperr.New(apperr.CodeNotFound, "session not found")
	}

	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.log.Warn("session cache write failed", zap.String("sid", id), zap.Error(err))
	}
	return session, nil
}

// List returns the caller's sessions, newest first, optionally windowed by
// creation time.
func (s *SessionService) List(ctx context.Context, identity string, from, to time.Time) ([]*model.Session, error) {
	sessions, err := s.sessions.ListByMember(ctx, identity, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ListFinished returns finished sessions in the window, for aggregate views.
func (s *SessionService) ListFinished(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	sessions, err := s.sessions.ListFinished(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished sessions: %w", err)
	}
	return sessions, nil
}

// Join validates the invite token and appends the caller to the member set.
// Joining twice with the same identity is a no-op success. The append itself
// is a conditional server-side update, never a client-computed member list.
func (s *SessionService) Join(ctx context.Context, id, token, identity string) error {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if err := joinable(session, token, identity); err != nil {
		return err
	}
	if session.IsMember(identity) {
		return nil // already joined
	}

	ok, err := s.sessions.AddMember(ctx, id, identity)
	if err != nil {
		return fmt.Errorf("failed to join session: %w", err)
	}
	if !ok {
		// Raced out between the read and the conditional append. Re-read to
		// report the precondition that actually failed.
		session, err = s.sessions.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		if err := joinable(session, token, identity); err != nil {
			return err
		}
		if session.IsMember(identity) {
			return nil
		}
		return apperr.New(apperr.CodeConflict, "join conflicted with a concurrent update, retry")
	}

	if err := s.sessionCache.Delete(ctx, id); err != nil {
		s.log.Warn("session cache invalidation failed", zap.String("sid", id), zap.Error(err))
	}
	s.log.Info("member joined", zap.String("sid", id))
	return nil
}

func joinable(session *model.Session, token, identity string) error {
	if session == nil {
		return apperr.New(apperr.CodeNotFound, "session not found")
	}
	if session.Finished() {
		return apperr.New(apperr.CodeEnded, "session has ended")
	}
	if session.InviteToken != token {
		return apperr.New(apperr.CodeTokenMismatch, "invite token mismatch")
	}
	if session.IsMember(identity) {
		return nil
	}
	if len(session.Members) >= model.MaxMembers {
		return apperr.New(apperr.CodeFull, "session is full")
	}
	return nil
}

// SubmitRound balances the entered deltas, re-validates the zero-sum
// invariant and appends the round. Members only.
func (s *SessionService) SubmitRound(ctx context.Context, id, identity string, entries []scoring.Entry) (*scoring.Balanced, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Finished() {
		return nil, apperr.New(apperr.CodeEnded, "session has ended")
	}
	if !session.IsMember(identity) {
		return nil, apperr.New(apperr.CodeForbidden, "only members may submit rounds")
	}
	if err := validateSeats(session, entries); err != nil {
		return nil, err
	}

	houseLast := session.HouseShare
	balanced, err := scoring.Balance(entries, houseLast)
	if err != nil {
		return nil, err
	}

	round := balanced.Round()
	// Defensive zero-sum re-check before anything is persisted.
	probe := *session
	if err := scoring.AppendRound(&probe, round); err != nil {
		return nil, err
	}

	ok, err := s.sessions.AppendRound(ctx, id, round)
	if err != nil {
		return nil, fmt.Errorf("failed to append round: %w", err)
	}
	if !ok {
		return nil, apperr.New(apperr.CodeEnded, "session has ended")
	}

	if err := s.sessionCache.Delete(ctx, id); err != nil {
		s.log.Warn("session cache invalidation failed", zap.String("sid", id), zap.Error(err))
	}
	s.log.Info("round recorded", zap.String("sid", id), zap.Int("round", len(session.Rounds)+1))
	return balanced, nil
}

// validateSeats requires the submitted seat order to match the session's
// scoreboard exactly. Participant ordering is fixed once scoring starts.
func validateSeats(session *model.Session, entries []scoring.Entry) error {
	board := session.Scoreboard()
	if len(entries) != len(board) {
		return apperr.New(apperr.CodeBadParam, "entries must cover every participant")
	}
	for i, e := range entries {
		if e.Name != board[i] {
			return apperr.New(apperr.CodeBadParam, fmt.Sprintf("seat %d must be %q", i, board[i]))
		}
	}
	return nil
}

// Finalize applies the closing multiplier and moves the session to its
// terminal state. Owner only; the status flip is a compare-and-swap so
// concurrent finalize calls settle on exactly one result.
func (s *SessionService) Finalize(ctx context.Context, id, identity string, multiplier int) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, apperr.New(apperr.CodeNotFound, "session not found")
	}
	if session.OwnerID != identity {
		return nil, apperr.New(apperr.CodeForbidden, "only the owner may finalize")
	}

	if err := scoring.Finalize(session, multiplier); err != nil {
		switch err {
		case scoring.ErrAlreadyFinalized:
			return nil, apperr.New(apperr.CodeEnded, "session already finalized")
		case scoring.ErrInvalidMultiplier:
			return nil, apperr.New(apperr.CodeBadParam, "multiplier must be non-zero")
		default:
			return nil, err
		}
	}

	ok, err := s.sessions.Finalize(ctx, id, session.Multiplier, session.FinalScores)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize session: %w", err)
	}
	if !ok {
		return nil, apperr.New(apperr.CodeEnded, "session already finalized")
	}

	if err := s.leaderboard.SetScores(ctx, id, session.FinalScores); err != nil {
		s.log.Warn("leaderboard cache write failed", zap.String("sid", id), zap.Error(err))
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.log.Warn("session cache write failed", zap.String("sid", id), zap.Error(err))
	}

	s.log.Info("session finalized", zap.String("sid", id), zap.Int("multiplier", multiplier))
	return session, nil
}

// Delete removes a session and its derived state. Destructive, owner only.
func (s *SessionService) Delete(ctx context.Context, id, identity string) error {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return apperr.New(apperr.CodeNotFound, "session not found")
	}
	if session.OwnerID != identity {
		return apperr.New(apperr.CodeForbidden, "only the owner may delete")
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := s.invites.Unregister(ctx, id); err != nil {
		s.log.Warn("invite side-table cleanup failed", zap.String("sid", id), zap.Error(err))
	}
	if err := s.sessionCache.Delete(ctx, id); err != nil {
		s.log.Warn("session cache cleanup failed", zap.String("sid", id), zap.Error(err))
	}
	if err := s.leaderboard.Delete(ctx, id); err != nil {
		s.log.Warn("leaderboard cleanup failed", zap.String("sid", id), zap.Error(err))
	}

	s.log.Info("session deleted", zap.String("sid", id))
	return nil
}
