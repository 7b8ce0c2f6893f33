package services

import (
	"context"
	"errors"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
)

// requireCaptain returns the actor's membership row when it is the team's
// captain row. A missing team or membership is Forbidden as well, so the
// caller cannot probe which teams exist.
func requireCaptain(ctx context.Context, teams database.TeamRepository, teamID, userID string) (*models.TeamMember, error) {
	member, err := teams.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, errs.Forbidden("captain privileges required")
		}
		return nil, storeErr(err, "", "")
	}
	if !member.IsCaptain() {
		return nil, errs.Forbidden("captain privileges required")
	}
	return member, nil
}

// requireOrganizer loads the tournament and checks the actor created it.
// The platform admin role grants nothing here.
func requireOrganizer(ctx context.Context, tournaments database.TournamentRepository, tournamentID, userID string) (*models.Tournament, error) {
	tournament, err := tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, storeErr(err, "tournament not found", "")
	}
	if tournament.CreatedBy != userID {
		return nil, errs.Forbidden("only the tournament organizer can manage join requests")
	}
	return tournament, nil
}
