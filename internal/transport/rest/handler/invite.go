package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/service"
	"github.com/bluesumk/mjjf/internal/transport/rest/middleware"
)

// InviteHandler handles invite sharing and scene resolution.
type InviteHandler struct {
	inviteSvc *service.InviteService
}

// NewInviteHandler creates a new invite handler.
func NewInviteHandler(inviteSvc *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc}
}

// Asset handles POST /v1/invites/{sid}/asset.
func (h *InviteHandler) Asset(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	identity := middleware.GetIdentity(r.Context())

	asset, err := h.inviteSvc.Asset(r.Context(), sid, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, asset)
}

// Resolve handles GET /v1/invites/resolve?scene=.
func (h *InviteHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	scene := r.URL.Query().Get("scene")
	if scene == "" {
		writeError(w, apperr.New(apperr.CodeBadParam, "scene is required"))
		return
	}

	sid, token, err := h.inviteSvc.Resolve(r.Context(), scene)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sid, "token": token})
}
