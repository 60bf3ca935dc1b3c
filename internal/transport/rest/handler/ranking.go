package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/cache"
	"github.com/bluesumk/mjjf/internal/ranking"
	"github.com/bluesumk/mjjf/internal/service"
)

// RankingHandler serves session and aggregate leaderboards.
type RankingHandler struct {
	sessionSvc  *service.SessionService
	leaderboard cache.LeaderboardCache
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(sessionSvc *service.SessionService, leaderboard cache.LeaderboardCache) *RankingHandler {
	return &RankingHandler{sessionSvc: sessionSvc, leaderboard: leaderboard}
}

// SessionRanking handles GET /v1/sessions/{sid}/ranking. With ?name= it
// answers a single seat's position instead of the full board.
func (h *RankingHandler) SessionRanking(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]

	if name := r.URL.Query().Get("name"); name != "" {
		h.memberRank(w, r, sid, name)
		return
	}

	// Finalized sessions are served from the redis ZSET when warm.
	if entries, err := h.leaderboard.GetTop(r.Context(), sid, 16); err == nil && len(entries) > 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ranking": entries, "source": "cache"})
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranking": ranking.SessionRanking(session),
		"source":  "ledger",
	})
}

// memberRank looks up one seat's rank, ZSET first, falling back to a ledger
// recompute when the session has not been finalized into redis yet.
func (h *RankingHandler) memberRank(w http.ResponseWriter, r *http.Request, sid, name string) {
	if rank, err := h.leaderboard.GetRank(r.Context(), sid, name); err == nil && rank > 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "rank": rank, "source": "cache"})
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, e := range ranking.SessionRanking(session) {
		if e.Name == name {
			writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "rank": e.Rank, "source": "ledger"})
			return
		}
	}
	writeError(w, apperr.New(apperr.CodeNotFound, "no such participant in this session"))
}

// AggregateRanking handles GET /v1/rankings?from=&to=.
func (h *RankingHandler) AggregateRanking(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions, err := h.sessionSvc.ListFinished(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranking": ranking.AggregateRanking(sessions, from, to),
	})
}
