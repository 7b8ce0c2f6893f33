package handlers

import (
	"net/http"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/middleware"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/services"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InvitationHandler serves the invited user's side of invitations.
type InvitationHandler struct {
	invitations *services.InvitationLifecycle
	log         *zap.Logger
}

func NewInvitationHandler(svc *services.Services, log *zap.Logger) *InvitationHandler {
	return &InvitationHandler{invitations: svc.Invitations, log: log.Named("handlers.invitations")}
}

// GET /invitations
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	invitations, err := h.invitations.ListMine(r.Context(), identity)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if invitations == nil {
		invitations = []models.TeamInvitation{}
	}
	utils.WriteSuccessResponse(w, invitations)
}

// PUT /invitations/{id}
func (h *InvitationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	decision, err := models.ParseInvitationDecision(req.Status)
	if err != nil {
		writeError(w, r, h.log, errs.Invalid(err.Error()))
		return
	}

	inv, err := h.invitations.Respond(r.Context(), identity, chi.URLParam(r, "id"), decision)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, inv)
}
