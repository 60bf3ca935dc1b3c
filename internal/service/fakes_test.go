package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bluesumk/mjjf/internal/cache"
	"github.com/bluesumk/mjjf/internal/model"
)

// fakeSessionRepo is an in-memory SessionRepo with the same conditional
// update semantics as the mongo implementation.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}}
}

func (r *fakeSessionRepo) Upsert(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Members = append([]string(nil), s.Members...)
	cp.Rounds = append([]model.Round(nil), s.Rounds...)
	return &cp, nil
}

func (r *fakeSessionRepo) AddMember(_ context.Context, id, identity string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOngoing || s.IsMember(identity) || len(s.Members) >= model.MaxMembers {
		return false, nil
	}
	s.Members = append(s.Members, identity)
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSessionRepo) AppendRound(_ context.Context, id string, round model.Round) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOngoing {
		return false, nil
	}
	s.Rounds = append(s.Rounds, round)
	return true, nil
}

func (r *fakeSessionRepo) Finalize(_ context.Context, id string, multiplier int, finalScores map[string]int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOngoing {
		return false, nil
	}
	s.Status = model.SessionFinished
	s.Multiplier = multiplier
	s.FinalScores = finalScores
	return true, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) ListByMember(_ context.Context, identity string, from, to time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.IsMember(identity) && inWindow(s.CreatedAt, from, to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListFinished(_ context.Context, from, to time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.Status == model.SessionFinished && inWindow(s.CreatedAt, from, to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func inWindow(at, from, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && !at.Before(to) {
		return false
	}
	return true
}

// fakeInviteRepo is an in-memory invite side table.
type fakeInviteRepo struct {
	mu      sync.Mutex
	lookups map[string]*model.InviteLookup // keyed by sessionId
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{lookups: map[string]*model.InviteLookup{}}
}

func (r *fakeInviteRepo) Put(_ context.Context, l *model.InviteLookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.lookups[l.SessionID] = &cp
	return nil
}

func (r *fakeInviteRepo) FindByShortCodes(_ context.Context, shortSid, shortToken string) ([]*model.InviteLookup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.InviteLookup
	for _, l := range r.lookups {
		if l.ShortSid == shortSid && l.ShortToken == shortToken {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lookups, sessionID)
	return nil
}

func (r *fakeInviteRepo) ListCreatedBefore(_ context.Context, cutoff time.Time) ([]*model.InviteLookup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.InviteLookup
	for _, l := range r.lookups {
		if l.CreatedAt.Before(cutoff) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeSessionCache drops everything: services must work with a cold cache.
type fakeSessionCache struct{}

func (fakeSessionCache) Set(context.Context, *model.Session) error          { return nil }
func (fakeSessionCache) Get(context.Context, string) (*model.Session, error) { return nil, nil }
func (fakeSessionCache) Delete(context.Context, string) error               { return nil }

// fakeLeaderboard records the last written scores per session.
type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[string]map[string]int
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: map[string]map[string]int{}}
}

func (f *fakeLeaderboard) SetScores(_ context.Context, sessionID string, scores map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[sessionID] = scores
	return nil
}

func (f *fakeLeaderboard) GetTop(context.Context, string, int) ([]cache.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeLeaderboard) GetRank(context.Context, string, string) (int64, error) { return -1, nil }
func (f *fakeLeaderboard) Delete(context.Context, string) error                   { return nil }

// fakeAssets generates a canned URL, or fails when broken.
type fakeAssets struct {
	broken bool
	calls  int
}

func (f *fakeAssets) Generate(_ context.Context, scene string) (string, error) {
	f.calls++
	if f.broken {
		return "", errors.New("qr service unavailable")
	}
	return "https://assets.example/qr/" + scene + ".png", nil
}
