package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/notify"

	"go.uber.org/zap"
)

// JoinRequestLifecycle lets users ask to take part in a tournament and the
// organizer accept or reject them. Accepting records the decision only; it
// creates no team or tournament membership.
type JoinRequestLifecycle struct {
	tournaments database.TournamentRepository
	requests    database.JoinRequestRepository
	notifier    notify.Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewJoinRequestLifecycle(tournaments database.TournamentRepository, requests database.JoinRequestRepository, notifier notify.Notifier, log *zap.Logger, now func() time.Time) *JoinRequestLifecycle {
	return &JoinRequestLifecycle{
		tournaments: tournaments,
		requests:    requests,
		notifier:    notifier,
		log:         log.Named("join_requests"),
		now:         now,
	}
}

// Create files a pending request for the actor. A new request is refused
// while one is pending or after one was accepted; a rejected user may ask
// again.
func (l *JoinRequestLifecycle) Create(ctx context.Context, identity models.Identity, tournamentID string) (*models.JoinRequest, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	tournament, err := l.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, storeErr(err, "tournament not found", "")
	}

	latest, err := l.requests.GetLatestJoinRequest(ctx, tournamentID, identity.UserID)
	switch {
	case err == nil:
		switch latest.Status {
		case models.JoinRequestPending:
			return nil, errs.Conflict("a join request is already pending")
		case models.JoinRequestAccepted:
			return nil, errs.Conflict("join request already accepted")
		case models.JoinRequestRejected:
		}
	case !errors.Is(err, database.ErrNotFound):
		return nil, storeErr(err, "", "")
	}

	req := &models.JoinRequest{
		TournamentID: tournamentID,
		UserID:       identity.UserID,
		Status:       models.JoinRequestPending,
		CreatedAt:    l.now().UTC(),
	}
	if err := l.requests.CreateJoinRequest(ctx, req); err != nil {
		return nil, storeErr(err, "tournament not found", "a join request is already pending")
	}

	l.notifier.Notify(ctx, tournament.CreatedBy, models.KindJoinRequestCreated, map[string]string{
		"request_id":    req.ID,
		"tournament_id": tournamentID,
		"user_id":       identity.UserID,
	})
	return req, nil
}

// Handle applies the organizer's decision to a pending request. A request
// that was already handled is a Conflict and is left unchanged.
func (l *JoinRequestLifecycle) Handle(ctx context.Context, identity models.Identity, tournamentID, requestID string, action models.JoinAction) (*models.JoinRequest, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	status, err := action.Status()
	if err != nil {
		return nil, errs.Invalid(`action must be "accept" or "reject"`)
	}
	requestID, err = requireID(requestID, "requestId")
	if err != nil {
		return nil, err
	}
	if _, err := requireOrganizer(ctx, l.tournaments, tournamentID, identity.UserID); err != nil {
		return nil, err
	}

	current, err := l.requests.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "join request not found", "")
	}
	if current.TournamentID != tournamentID {
		return nil, errs.NotFound("join request not found")
	}
	if current.Status.IsTerminal() {
		return nil, errs.Conflict("join request has already been handled")
	}

	updated, err := l.requests.ResolveJoinRequest(ctx, tournamentID, requestID, status)
	if err != nil {
		// the row was pending a moment ago, so a failed guard means a
		// concurrent handle won
		if errors.Is(err, database.ErrNotFound) {
			return nil, errs.Conflict("join request has already been handled")
		}
		return nil, storeErr(err, "", "")
	}

	kind := models.KindJoinRequestRejected
	if updated.Status == models.JoinRequestAccepted {
		kind = models.KindJoinRequestAccepted
	}
	l.log.Info("join request handled",
		zap.String("request_id", updated.ID),
		zap.String("tournament_id", tournamentID),
		zap.String("status", string(updated.Status)),
	)
	l.notifier.Notify(ctx, updated.UserID, kind, map[string]string{
		"request_id":    updated.ID,
		"tournament_id": tournamentID,
	})
	return updated, nil
}

// StatusFor returns the status of userID's latest request for the
// tournament, or nil when there is none. Absence is never an error.
func (l *JoinRequestLifecycle) StatusFor(ctx context.Context, tournamentID, userID string) (*models.JoinRequestStatus, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	userID = strings.TrimSpace(userID)
	if tournamentID == "" || userID == "" {
		return nil, nil
	}
	latest, err := l.requests.GetLatestJoinRequest(ctx, tournamentID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, storeErr(err, "", "")
	}
	status := latest.Status
	return &status, nil
}

// ListForTournament returns every request of the tournament, newest first.
func (l *JoinRequestLifecycle) ListForTournament(ctx context.Context, identity models.Identity, tournamentID string) ([]models.JoinRequest, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if _, err := requireOrganizer(ctx, l.tournaments, tournamentID, identity.UserID); err != nil {
		return nil, err
	}
	requests, err := l.requests.ListJoinRequests(ctx, tournamentID)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return requests, nil
}
