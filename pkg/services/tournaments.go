package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
)

const maxTournamentNameLength = 100

// TournamentService creates tournaments; the creator is the organizer.
type TournamentService struct {
	tournaments database.TournamentRepository
	now         func() time.Time
}

func NewTournamentService(tournaments database.TournamentRepository, now func() time.Time) *TournamentService {
	return &TournamentService{tournaments: tournaments, now: now}
}

func (s *TournamentService) Create(ctx context.Context, identity models.Identity, name string) (*models.Tournament, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Invalid("name is required")
	}
	if utf8.RuneCountInString(name) > maxTournamentNameLength {
		return nil, errs.Invalid("name is too long")
	}

	t := &models.Tournament{Name: name, CreatedBy: identity.UserID, CreatedAt: s.now().UTC()}
	if err := s.tournaments.CreateTournament(ctx, t); err != nil {
		return nil, storeErr(err, "", "tournament already exists")
	}
	return t, nil
}

func (s *TournamentService) Get(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, storeErr(err, "tournament not found", "")
	}
	return t, nil
}
