package handlers

import (
	"net/http"
	"strings"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/middleware"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/services"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TournamentHandler serves tournaments and their join requests.
type TournamentHandler struct {
	tournaments *services.TournamentService
	requests    *services.JoinRequestLifecycle
	log         *zap.Logger
}

func NewTournamentHandler(svc *services.Services, log *zap.Logger) *TournamentHandler {
	return &TournamentHandler{
		tournaments: svc.Tournaments,
		requests:    svc.JoinRequests,
		log:         log.Named("handlers.tournaments"),
	}
}

// POST /tournaments
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	tournament, err := h.tournaments.Create(r.Context(), identity, req.Name)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteCreatedResponse(w, tournament)
}

// GET /tournaments/{id}
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournaments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, tournament)
}

// POST /tournaments/{id}/join
func (h *TournamentHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	req, err := h.requests.Create(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteCreatedResponse(w, req)
}

// POST /tournaments/{id}/join/handle
func (h *TournamentHandler) HandleJoinRequest(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req struct {
		RequestID string `json:"requestId"`
		Action    string `json:"action"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if strings.TrimSpace(req.RequestID) == "" {
		writeError(w, r, h.log, errs.Invalid("requestId is required"))
		return
	}
	action, err := models.ParseJoinAction(req.Action)
	if err != nil {
		writeError(w, r, h.log, errs.Invalid(err.Error()))
		return
	}

	updated, err := h.requests.Handle(r.Context(), identity, chi.URLParam(r, "id"), req.RequestID, action)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"ok":      true,
		"updated": updated,
	})
}

// GET /tournaments/{id}/join/requests
func (h *TournamentHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	requests, err := h.requests.ListForTournament(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if requests == nil {
		requests = []models.JoinRequest{}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"requests": requests})
}

// GET /tournaments/{id}/join/user-status?userId=
//
// Unauthenticated callers must name the user; authenticated callers default
// to themselves. No request yields {"status": null}.
func (h *TournamentHandler) UserStatus(w http.ResponseWriter, r *http.Request) {
	userID := utils.GetQueryParam(r, "userId", "")
	if userID == "" {
		if identity, ok := middleware.GetIdentityFromContext(r.Context()); ok {
			userID = identity.UserID
		}
	}

	status, err := h.requests.StatusFor(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"status": status})
}
