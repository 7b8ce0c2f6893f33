package handlers

import (
	"net/http"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/middleware"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/services"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TeamHandler serves team membership and the captain's side of invitations.
type TeamHandler struct {
	teams       *services.TeamManager
	invitations *services.InvitationLifecycle
	log         *zap.Logger
}

func NewTeamHandler(svc *services.Services, log *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teams:       svc.Teams,
		invitations: svc.Invitations,
		log:         log.Named("handlers.teams"),
	}
}

// POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req struct {
		Name string `json:"name"`
		Tag  string `json:"tag"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	team, err := h.teams.CreateTeam(r.Context(), identity, req.Name, req.Tag)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteCreatedResponse(w, team)
}

// GET /teams/{teamId}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	members, err := h.teams.ListMembers(r.Context(), identity, chi.URLParam(r, "teamId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"members": members})
}

// POST /teams/{teamId}/invite
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	inv, err := h.invitations.Create(r.Context(), identity, chi.URLParam(r, "teamId"), req.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteCreatedResponse(w, inv)
}

// DELETE /teams/{teamId}/invite/{inviteId}
func (h *TeamHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.invitations.Cancel(r.Context(), identity, chi.URLParam(r, "teamId"), chi.URLParam(r, "inviteId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]bool{"success": true})
}

// POST /teams/{teamId}/leave
func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.teams.Leave(r.Context(), identity, chi.URLParam(r, "teamId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]bool{"success": true})
}

// DELETE /teams/{teamId}/members/{memberId}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.teams.RemoveMember(r.Context(), identity, chi.URLParam(r, "teamId"), chi.URLParam(r, "memberId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]bool{"success": true})
}
