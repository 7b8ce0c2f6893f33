package handlers

import (
	"net/http"
	"strconv"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/middleware"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/services"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	log           *zap.Logger
}

func NewNotificationHandler(svc *services.Services, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: svc.Notifications, log: log.Named("handlers.notifications")}
}

// GET /notifications?limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	limit := 0
	if raw := utils.GetQueryParam(r, "limit", ""); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, h.log, errs.Invalid("limit must be a non-negative integer"))
			return
		}
	}

	list, err := h.notifications.List(r.Context(), identity, limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"notifications": list})
}

// PUT /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.WriteSuccessResponse(w, n)
}
