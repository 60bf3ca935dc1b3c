package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/model"
	"github.com/bluesumk/mjjf/internal/scoring"
)

type fixture struct {
	svc      *SessionService
	invites  *InviteService
	sessions *fakeSessionRepo
	board    *fakeLeaderboard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := newFakeSessionRepo()
	invites := NewInviteService(newFakeInviteRepo(), sessions, &fakeAssets{}, zap.NewNop())
	board := newFakeLeaderboard()
	svc := NewSessionService(sessions, invites, fakeSessionCache{}, board, zap.NewNop())
	return &fixture{svc: svc, invites: invites, sessions: sessions, board: board}
}

func (f *fixture) create(t *testing.T, owner string, participants []string, house bool) *model.Session {
	t.Helper()
	s, err := f.svc.Create(context.Background(), CreateSessionRequest{
		Participants: participants,
		HouseShare:   house,
	}, owner)
	require.NoError(t, err)
	return s
}

func seat(name string, v float64) scoring.Entry {
	return scoring.Entry{Name: name, Value: &v}
}

func TestCreateValidatesParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name         string
		participants []string
	}{
		{"empty list", nil},
		{"blank name", []string{"A", ""}},
		{"duplicate name", []string{"A", "A"}},
		{"reserved house name", []string{"A", model.HouseName}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, CreateSessionRequest{Participants: tc.participants}, "u_owner")
			assert.Equal(t, apperr.CodeBadParam, apperr.CodeOf(err))
		})
	}
}

func TestCreateIsIdempotentByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := CreateSessionRequest{ID: "fixed-id", Participants: []string{"A", "B", "C"}}
	first, err := f.svc.Create(ctx, req, "u_owner")
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, req, "u_owner")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := f.svc.Get(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Len(t, got.Members, 1, "re-create overwrites, it does not duplicate")
	assert.Equal(t, model.SessionOngoing, got.Status)
}

func TestJoinFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t, "u_owner", []string{"A", "B", "C"}, false)

	t.Run("unknown session", func(t *testing.T) {
		err := f.svc.Join(ctx, "missing", s.InviteToken, "u_2")
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("wrong token", func(t *testing.T) {
		err := f.svc.Join(ctx, s.ID, "wrong", "u_2")
		assert.Equal(t, apperr.CodeTokenMismatch, apperr.CodeOf(err))
	})

	t.Run("joins once, idempotent after", func(t *testing.T) {
		require.NoError(t, f.svc.Join(ctx, s.ID, s.InviteToken, "u_2"))
		require.NoError(t, f.svc.Join(ctx, s.ID, s.InviteToken, "u_2"))

		got, err := f.svc.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)
	})

	t.Run("full at four members", func(t *testing.T) {
		require.NoError(t, f.svc.Join(ctx, s.ID, s.InviteToken, "u_3"))
		require.NoError(t, f.svc.Join(ctx, s.ID, s.InviteToken, "u_4"))

		err := f.svc.Join(ctx, s.ID, s.InviteToken, "u_5")
		assert.Equal(t, apperr.CodeFull, apperr.CodeOf(err))
	})

	t.Run("ended session rejects joins", func(t *testing.T) {
		_, err := f.svc.Finalize(ctx, s.ID, "u_owner", 1)
		require.NoError(t, err)

		err = f.svc.Join(ctx, s.ID, s.InviteToken, "u_6")
		assert.Equal(t, apperr.CodeEnded, apperr.CodeOf(err))
	})
}

func TestSubmitRoundBalancesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t, "u_owner", []string{"A", "B", "C"}, false)

	balanced, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
		seat("A", -10), seat("B", -20), {Name: "C"},
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, balanced.Deltas[2])

	got, err := f.svc.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Rounds, 1)
	assert.Equal(t, 30.0, scoring.RunningTotal(got, "C"))
}

func TestSubmitRoundGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t, "u_owner", []string{"A", "B", "C"}, false)

	t.Run("non-members are rejected", func(t *testing.T) {
		_, err := f.svc.SubmitRound(ctx, s.ID, "u_stranger", []scoring.Entry{
			seat("A", -1), seat("B", 0), {Name: "C"},
		})
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("seat order must match the scoreboard", func(t *testing.T) {
		_, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
			seat("B", -1), seat("A", 0), {Name: "C"},
		})
		assert.Equal(t, apperr.CodeBadParam, apperr.CodeOf(err))
	})

	t.Run("balancer errors pass through typed", func(t *testing.T) {
		_, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
			seat("A", 0), seat("B", 0), {Name: "C"},
		})
		assert.ErrorIs(t, err, scoring.ErrNoWinner)
	})
}

func TestSubmitRoundHouseSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t, "u_owner", []string{"A", "B"}, true)

	t.Run("incomplete input is blocked", func(t *testing.T) {
		_, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
			seat("A", -5), {Name: "B"}, {Name: model.HouseName},
		})
		assert.ErrorIs(t, err, scoring.ErrIncomplete)
	})

	t.Run("house receives the remainder", func(t *testing.T) {
		balanced, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
			seat("A", -5), seat("B", -5), {Name: model.HouseName},
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, balanced.Deltas[2])
		assert.Equal(t, scoring.RoleNone, balanced.Roles[2])
	})

	t.Run("negative house share is rejected before persisting", func(t *testing.T) {
		_, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
			seat("A", 5), seat("B", 5), {Name: model.HouseName},
		})
		assert.ErrorIs(t, err, scoring.ErrHouseNegative)

		got, err := f.svc.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, got.Rounds, 1)
	})
}

func TestFinalizeFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t, "u_owner", []string{"A", "B", "C"}, false)

	_, err := f.svc.SubmitRound(ctx, s.ID, "u_owner", []scoring.Entry{
		seat("A", -10), seat("B", -20), {Name: "C"},
	})
	require.NoError(t, err)

	t.Run("owner only", func(t *testing.T) {
		require.NoError(t, f.svc.Join(ctx, s.ID, s.InviteToken, "u_2"))
		_, err := f.svc.Finalize(ctx, s.ID, "u_2", 2)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("zero multiplier is rejected", func(t *testing.T) {
		_, err := f.svc.Finalize(ctx, s.ID, "u_owner", 0)
		assert.Equal(t, apperr.CodeBadParam, apperr.CodeOf(err))
	})

	t.Run("finalize computes scaled totals", func(t *testing.T) {
		got, err := f.svc.Finalize(ctx, s.ID, "u_owner", 2)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"A": -20, "B": -40, "C": 60}, got.FinalScores)
		assert.Equal(t, model.SessionFinished, got.Status)
		assert.Equal(t, got.FinalScores, f.board.scores[s.ID], "leaderboard cache refreshed")
	})

	t.Run("second finalize fails, state unchanged", func(t *testing.T) {
		_, err := f.svc.Finalize(ctx, s.ID, "u_owner", 5)
		assert.Equal(t, apperr.CodeEnded, apperr.CodeOf(err))

		got, err := f.svc.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"A": -20, "B": -40, "C": 60}, got.FinalScores)
		assert.Equal(t, 2, got.Multiplier)
	})
}

func TestDeleteIsOwnerOnlyAndDestructive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t, "u_owner", []string{"A", "B"}, false)

	err := f.svc.Delete(ctx, s.ID, "u_stranger")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	require.NoError(t, f.svc.Delete(ctx, s.ID, "u_owner"))
	_, err = f.svc.Get(ctx, s.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
