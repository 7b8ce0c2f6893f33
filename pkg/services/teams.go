package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/notify"

	"go.uber.org/zap"
)

const (
	maxTeamNameLength = 64
	maxTeamTagLength  = 10
)

// TeamManager owns team creation and the removal of membership rows.
// Members are only ever added by accepting an invitation.
type TeamManager struct {
	teams    database.TeamRepository
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewTeamManager(teams database.TeamRepository, notifier notify.Notifier, log *zap.Logger, now func() time.Time) *TeamManager {
	return &TeamManager{teams: teams, notifier: notifier, log: log.Named("teams"), now: now}
}

// CreateTeam creates a team with the actor as its captain.
func (m *TeamManager) CreateTeam(ctx context.Context, identity models.Identity, name, tag string) (*models.Team, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	tag = strings.TrimSpace(tag)
	if name == "" {
		return nil, errs.Invalid("name is required")
	}
	if utf8.RuneCountInString(name) > maxTeamNameLength {
		return nil, errs.Invalid("name is too long")
	}
	if utf8.RuneCountInString(tag) > maxTeamTagLength {
		return nil, errs.Invalid("tag is too long")
	}

	team := &models.Team{Name: name, Tag: tag, CreatedAt: m.now().UTC()}
	if err := m.teams.CreateTeam(ctx, team, identity.UserID); err != nil {
		return nil, storeErr(err, "", "team already exists")
	}
	m.log.Info("team created", zap.String("team_id", team.ID), zap.String("captain_id", identity.UserID))
	return team, nil
}

// ListMembers returns the team's membership rows in join order.
func (m *TeamManager) ListMembers(ctx context.Context, identity models.Identity, teamID string) ([]models.TeamMember, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if _, err := m.teams.GetTeam(ctx, teamID); err != nil {
		return nil, storeErr(err, "team not found", "")
	}
	members, err := m.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return members, nil
}

// Leave deletes the actor's own MEMBER row. The captain cannot leave.
func (m *TeamManager) Leave(ctx context.Context, identity models.Identity, teamID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	member, err := m.teams.GetMember(ctx, teamID, identity.UserID)
	if err != nil {
		return storeErr(err, "membership not found", "")
	}
	if member.IsCaptain() {
		return errs.Forbidden("the captain cannot leave the team")
	}
	if err := m.teams.DeleteMember(ctx, teamID, identity.UserID); err != nil {
		return storeErr(err, "membership not found", "")
	}
	m.log.Info("member left team", zap.String("team_id", teamID), zap.String("user_id", identity.UserID))
	return nil
}

// RemoveMember lets the captain delete another user's MEMBER row.
func (m *TeamManager) RemoveMember(ctx context.Context, identity models.Identity, teamID, targetUserID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	targetUserID, err := requireID(targetUserID, "member id")
	if err != nil {
		return err
	}
	if _, err := requireCaptain(ctx, m.teams, teamID, identity.UserID); err != nil {
		return err
	}

	target, err := m.teams.GetMember(ctx, teamID, targetUserID)
	if err != nil {
		return storeErr(err, "member not found", "")
	}
	if target.IsCaptain() {
		return errs.Forbidden("the captain cannot be removed")
	}
	if err := m.teams.DeleteMember(ctx, teamID, targetUserID); err != nil {
		return storeErr(err, "member not found", "")
	}

	m.log.Info("member removed",
		zap.String("team_id", teamID),
		zap.String("user_id", targetUserID),
		zap.String("removed_by", identity.UserID),
	)
	m.notifier.Notify(ctx, targetUserID, models.KindMemberRemoved, map[string]string{
		"team_id":    teamID,
		"removed_by": identity.UserID,
	})
	return nil
}
