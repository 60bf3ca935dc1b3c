package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/scoring"
	"github.com/bluesumk/mjjf/internal/service"
	"github.com/bluesumk/mjjf/internal/transport/rest/middleware"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req service.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.CodeBadParam, "invalid request body"))
		return
	}

	session, err := h.sessionSvc.Create(r.Context(), req, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{sid}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]

	session, err := h.sessionSvc.Get(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// List handles GET /v1/sessions?from=&to=.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	from, to, err := parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions, err := h.sessionSvc.List(r.Context(), identity, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// JoinRequest is the request body for joining a session.
type JoinRequest struct {
	Token string `json:"token"`
}

// Join handles POST /v1/sessions/{sid}/join.
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	identity := middleware.GetIdentity(r.Context())

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.CodeBadParam, "invalid request body"))
		return
	}
	if req.Token == "" {
		writeError(w, apperr.New(apperr.CodeBadParam, "token is required"))
		return
	}

	if err := h.sessionSvc.Join(r.Context(), sid, req.Token, identity); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sid})
}

// RoundRequest is the request body for submitting a round. Seats follow the
// session's participant order; the last seat's value is computed, and a seat
// with a null value is an unfilled field.
type RoundRequest struct {
	Entries []struct {
		Name  string   `json:"name"`
		Value *float64 `json:"value"`
	} `json:"entries"`
}

// SubmitRound handles POST /v1/sessions/{sid}/rounds.
func (h *SessionHandler) SubmitRound(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	identity := middleware.GetIdentity(r.Context())

	var req RoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.CodeBadParam, "invalid request body"))
		return
	}

	entries := make([]scoring.Entry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = scoring.Entry{Name: e.Name, Value: e.Value}
	}

	balanced, err := h.sessionSvc.SubmitRound(r.Context(), sid, identity, entries)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, balanced)
}

// FinalizeRequest is the request body for closing a session.
type FinalizeRequest struct {
	Multiplier int `json:"multiplier"`
}

// Finalize handles POST /v1/sessions/{sid}/finalize.
func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	identity := middleware.GetIdentity(r.Context())

	var req FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.CodeBadParam, "invalid request body"))
		return
	}

	session, err := h.sessionSvc.Finalize(r.Context(), sid, identity, req.Multiplier)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Delete handles DELETE /v1/sessions/{sid}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	identity := middleware.GetIdentity(r.Context())

	if err := h.sessionSvc.Delete(r.Context(), sid, identity); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseWindow reads the optional from/to query params. Accepts RFC 3339
// timestamps or YYYY-MM months (history views filter by month).
func parseWindow(r *http.Request) (from, to time.Time, err error) {
	from, err = parseTimeParam(r.URL.Query().Get("from"), false)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.New(apperr.CodeBadParam, "invalid 'from' parameter")
	}
	to, err = parseTimeParam(r.URL.Query().Get("to"), true)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.New(apperr.CodeBadParam, "invalid 'to' parameter")
	}
	return from, to, nil
}

func parseTimeParam(v string, endOfMonth bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfMonth {
		return t.AddDate(0, 1, 0), nil
	}
	return t, nil
}
