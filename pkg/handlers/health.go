package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/config"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"go.uber.org/zap"
)

// HealthChecker is the part of the store the health endpoint probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	config *config.Config
	db     HealthChecker
	log    *zap.Logger
}

func NewHealthHandler(cfg *config.Config, db HealthChecker, log *zap.Logger) *HealthHandler {
	return &HealthHandler{config: cfg, db: db, log: log.Named("handlers.health")}
}

// GET /
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":      "ok",
		"environment": h.config.Environment,
		"time":        time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.Warn("database health check failed", zap.Error(err))
		body["status"] = "unavailable"
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, body)
		return
	}
	utils.WriteSuccessResponse(w, body)
}
