package handler

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/config"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/handlers"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/logger"
	customMiddleware "github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/middleware"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/notify"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/services"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

var installLogger sync.Once

// Handler is the serverless entry point. Each invocation builds the router
// over the process-wide cached database.
func Handler(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.GetCached()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error")
		return
	}
	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}
	installLogger.Do(func() { logger.Install(cfg.Environment, cfg.Debug) })
	log := zap.L()

	// the pool owns the connection; it is never closed per request
	db, err := database.GetDatabase(r.Context(), database.DatabaseConfig{
		Driver:      cfg.DatabaseDriver,
		PostgresDSN: cfg.PostgresDSN,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		log.Error("database unavailable", zap.Error(err))
		utils.WriteErrorResponseWithCode(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unavailable", "")
		return
	}

	NewRouter(cfg, log, db, notify.NewStoreNotifier(db, log)).ServeHTTP(w, r)
}

// NewRouter builds the full HTTP surface over db. Lifecycle events go to
// notifier.
func NewRouter(cfg *config.Config, log *zap.Logger, db database.DatabaseInterface, notifier notify.Notifier) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, cfg, log)
	setupRoutes(router, cfg, log, db, notifier)
	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, log *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.RequestLogger(log))
	router.Use(customMiddleware.Recovery(cfg, log))
	router.Use(customMiddleware.CORS(cfg))
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	router.Use(customMiddleware.ContentTypeJSON)
	router.Use(customMiddleware.MaxBodySize(maxRequestBody))
	router.Use(middleware.Compress(5))

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

func setupRoutes(router *chi.Mux, cfg *config.Config, log *zap.Logger, db database.DatabaseInterface, notifier notify.Notifier) {
	svc := services.New(services.Deps{DB: db, Notifier: notifier, Log: log})
	tokens := utils.NewJWTService(cfg.JWTSecret)

	healthHandler := handlers.NewHealthHandler(cfg, db, log)
	teamHandler := handlers.NewTeamHandler(svc, log)
	invitationHandler := handlers.NewInvitationHandler(svc, log)
	tournamentHandler := handlers.NewTournamentHandler(svc, log)
	notificationHandler := handlers.NewNotificationHandler(svc, log)

	router.Get("/", healthHandler.HealthCheck)

	if cfg.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, database.GetConnectionStats())
		})
	}

	requireAuth := customMiddleware.AuthMiddleware(tokens, log)

	router.Route("/teams", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", teamHandler.CreateTeam)
		r.Route("/{teamId}", func(r chi.Router) {
			r.Get("/members", teamHandler.ListMembers)
			r.Delete("/members/{memberId}", teamHandler.RemoveMember)
			r.Post("/invite", teamHandler.Invite)
			r.Delete("/invite/{inviteId}", teamHandler.CancelInvitation)
			r.Post("/leave", teamHandler.Leave)
		})
	})

	router.Route("/invitations", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", invitationHandler.ListMine)
		r.Put("/{id}", invitationHandler.Respond)
	})

	router.Route("/tournaments", func(r chi.Router) {
		// join-request status is readable without a token
		r.With(customMiddleware.OptionalAuthMiddleware(tokens)).
			Get("/{id}/join/user-status", tournamentHandler.UserStatus)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", tournamentHandler.Create)
			r.Get("/{id}", tournamentHandler.Get)
			r.Post("/{id}/join", tournamentHandler.Join)
			r.Post("/{id}/join/handle", tournamentHandler.HandleJoinRequest)
			r.Get("/{id}/join/requests", tournamentHandler.ListJoinRequests)
		})
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", notificationHandler.List)
		r.Put("/{id}/read", notificationHandler.MarkRead)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
