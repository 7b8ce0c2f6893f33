package services

import (
	"context"
	"errors"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/notify"

	"go.uber.org/zap"
)

// InvitationLifecycle drives a team invitation from PENDING to exactly one
// terminal outcome: ACCEPTED, REJECTED, or deletion by the captain.
type InvitationLifecycle struct {
	teams       database.TeamRepository
	invitations database.InvitationRepository
	notifier    notify.Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewInvitationLifecycle(teams database.TeamRepository, invitations database.InvitationRepository, notifier notify.Notifier, log *zap.Logger, now func() time.Time) *InvitationLifecycle {
	return &InvitationLifecycle{
		teams:       teams,
		invitations: invitations,
		notifier:    notifier,
		log:         log.Named("invitations"),
		now:         now,
	}
}

// Create invites invitedUserID to the captain's team.
func (l *InvitationLifecycle) Create(ctx context.Context, identity models.Identity, teamID, invitedUserID string) (*models.TeamInvitation, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	invitedUserID, err := requireID(invitedUserID, "userId")
	if err != nil {
		return nil, err
	}
	if _, err := requireCaptain(ctx, l.teams, teamID, identity.UserID); err != nil {
		return nil, err
	}

	_, err = l.teams.GetMember(ctx, teamID, invitedUserID)
	switch {
	case err == nil:
		return nil, errs.Conflict("user is already a member of this team")
	case !errors.Is(err, database.ErrNotFound):
		return nil, storeErr(err, "", "")
	}

	inv := &models.TeamInvitation{
		TeamID:        teamID,
		InvitedUserID: invitedUserID,
		InvitedBy:     identity.UserID,
		Status:        models.InvitationPending,
		CreatedAt:     l.now().UTC(),
	}
	if err := l.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, storeErr(err, "", "a pending invitation already exists for this user")
	}

	l.notifier.Notify(ctx, invitedUserID, models.KindInvitationCreated, map[string]string{
		"invitation_id": inv.ID,
		"team_id":       teamID,
		"invited_by":    identity.UserID,
	})
	return inv, nil
}

// Cancel deletes a PENDING invitation of the captain's team.
func (l *InvitationLifecycle) Cancel(ctx context.Context, identity models.Identity, teamID, invitationID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if _, err := requireCaptain(ctx, l.teams, teamID, identity.UserID); err != nil {
		return err
	}
	if err := l.invitations.DeletePendingInvitation(ctx, teamID, invitationID); err != nil {
		return storeErr(err, "invitation not found", "")
	}
	l.log.Info("invitation cancelled", zap.String("team_id", teamID), zap.String("invitation_id", invitationID))
	return nil
}

// Respond records the invited user's decision. Accepting inserts the MEMBER
// row in the same store transaction as the status change.
func (l *InvitationLifecycle) Respond(ctx context.Context, identity models.Identity, invitationID string, decision models.InvitationStatus) (*models.TeamInvitation, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if !decision.IsTerminal() {
		return nil, errs.Invalid("status must be ACCEPTED or REJECTED")
	}

	inv, err := l.invitations.ResolveInvitation(ctx, invitationID, identity.UserID, decision)
	if err != nil {
		return nil, storeErr(err, "invitation not found", "user is already a member of this team")
	}

	kind := models.KindInvitationRejected
	if inv.Status == models.InvitationAccepted {
		kind = models.KindInvitationAccepted
	}
	l.log.Info("invitation resolved",
		zap.String("invitation_id", inv.ID),
		zap.String("team_id", inv.TeamID),
		zap.String("status", string(inv.Status)),
	)
	l.notifier.Notify(ctx, inv.InvitedBy, kind, map[string]string{
		"invitation_id": inv.ID,
		"team_id":       inv.TeamID,
		"user_id":       identity.UserID,
	})
	return inv, nil
}

// ListMine returns the actor's PENDING invitations, newest first.
func (l *InvitationLifecycle) ListMine(ctx context.Context, identity models.Identity) ([]models.TeamInvitation, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	invitations, err := l.invitations.ListPendingInvitationsByUser(ctx, identity.UserID)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return invitations, nil
}
