package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/scoring"
	"github.com/bluesumk/mjjf/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login. An anonymous caller receives a fresh
// identity; a caller presenting its previous identity gets a renewed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity,omitempty"`
	}
	// An empty body is a plain anonymous login.
	_ = json.NewDecoder(r.Body).Decode(&req)

	var err error
	var resp interface{}
	if req.Identity != "" {
		resp, err = h.authSvc.Refresh(req.Identity)
	} else {
		resp, err = h.authSvc.Login()
	}
	if err != nil {
		writeError(w, apperr.New(apperr.CodeUnauthorized, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions shared by all handlers.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	var structured *apperr.Error
	if !errors.As(err, &structured) {
		structured = apperr.New(scoringCode(err), err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(structured.Code))
	json.NewEncoder(w).Encode(map[string]*apperr.Error{"error": structured})
}

// scoringCode folds the balancer/ledger sentinel errors into BAD_PARAM;
// anything else is an internal failure.
func scoringCode(err error) apperr.Code {
	switch {
	case errors.Is(err, scoring.ErrIncomplete),
		errors.Is(err, scoring.ErrHouseNegative),
		errors.Is(err, scoring.ErrNoWinner),
		errors.Is(err, scoring.ErrTooFewSeats),
		errors.Is(err, scoring.ErrUnbalancedRound),
		errors.Is(err, scoring.ErrInvalidMultiplier):
		return apperr.CodeBadParam
	case errors.Is(err, scoring.ErrAlreadyFinalized):
		return apperr.CodeEnded
	default:
		return apperr.CodeInternal
	}
}
