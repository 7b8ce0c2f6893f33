// Package services implements the team membership, invitation and
// tournament join request lifecycles. Every operation takes the verified
// caller explicitly and reports failures as *errs.Error.
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

// Deps bundles what every service is built from.
type Deps struct {
	DB       database.DatabaseInterface
	Notifier notify.Notifier
	Log      *zap.Logger
	// Clock defaults to time.Now
	Clock func() time.Time
}

func (d Deps) clock() func() time.Time {
	if d.Clock == nil {
		return time.Now
	}
	return d.Clock
}

func (d Deps) notifier() notify.Notifier {
	if d.Notifier == nil {
		return notify.Nop{}
	}
	return d.Notifier
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// Services groups every lifecycle built over one database.
type Services struct {
	Teams         *TeamManager
	Invitations   *InvitationLifecycle
	JoinRequests  *JoinRequestLifecycle
	Tournaments   *TournamentService
	Notifications *NotificationService
}

func New(deps Deps) *Services {
	return &Services{
		Teams:         NewTeamManager(deps.DB, deps.notifier(), deps.logger(), deps.clock()),
		Invitations:   NewInvitationLifecycle(deps.DB, deps.DB, deps.notifier(), deps.logger(), deps.clock()),
		JoinRequests:  NewJoinRequestLifecycle(deps.DB, deps.DB, deps.notifier(), deps.logger(), deps.clock()),
		Tournaments:   NewTournamentService(deps.DB, deps.clock()),
		Notifications: NewNotificationService(deps.DB),
	}
}

func requireIdentity(identity models.Identity) error {
	if identity.IsZero() {
		return errs.Unauthorized("authentication required")
	}
	return nil
}

// storeErr translates repository errors into domain errors. Messages are
// used when the store reports ErrNotFound or ErrConflict.
func storeErr(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound) && notFound != "":
		return errs.Wrap(errs.KindNotFound, notFound, err)
	case errors.Is(err, database.ErrConflict) && conflict != "":
		return errs.Wrap(errs.KindConflict, conflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.Internal("request cancelled", err)
	default:
		return errs.Internal("storage failure", err)
	}
}

func requireID(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errs.Invalid(field + " is required")
	}
	return value, nil
}
