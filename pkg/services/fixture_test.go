package services

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	captain   = models.Identity{UserID: "captain", Role: models.UserRoleUser}
	member    = models.Identity{UserID: "member", Role: models.UserRoleUser}
	outsider  = models.Identity{UserID: "outsider", Role: models.UserRoleUser}
	admin     = models.Identity{UserID: "admin", Role: models.UserRoleAdmin}
	organizer = models.Identity{UserID: "organizer", Role: models.UserRoleUser}
	player    = models.Identity{UserID: "player", Role: models.UserRoleUser}
)

type fixture struct {
	db       database.DatabaseInterface
	recorder *notify.Recorder
	svc      *Services
}

// eachBackend runs fn against the in-memory store and a SQLite file store.
func eachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, newFixture(t, database.NewMemoryDatabase()))
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.NewSQLiteDatabase(context.Background(), filepath.Join(t.TempDir(), "services.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		fn(t, newFixture(t, db))
	})
}

func newFixture(t *testing.T, db database.DatabaseInterface) *fixture {
	t.Helper()
	recorder := &notify.Recorder{}
	var tick atomic.Int64
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := New(Deps{
		DB:       db,
		Notifier: recorder,
		Log:      zap.NewNop(),
		Clock: func() time.Time {
			return base.Add(time.Duration(tick.Add(1)) * time.Second)
		},
	})
	return &fixture{db: db, recorder: recorder, svc: svc}
}

// teamWithMember creates a team led by captain and lets member join
// through an accepted invitation.
func (f *fixture) teamWithMember(t *testing.T) *models.Team {
	t.Helper()
	ctx := context.Background()
	team, err := f.svc.Teams.CreateTeam(ctx, captain, "Falcons", "FLC")
	require.NoError(t, err)
	inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
	require.NoError(t, err)
	_, err = f.svc.Invitations.Respond(ctx, member, inv.ID, models.InvitationAccepted)
	require.NoError(t, err)
	return team
}

func (f *fixture) captainCount(t *testing.T, teamID string) int {
	t.Helper()
	members, err := f.db.ListMembers(context.Background(), teamID)
	require.NoError(t, err)
	n := 0
	for _, m := range members {
		if m.Role == models.RoleCaptain {
			n++
		}
	}
	return n
}

func assertKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, errs.KindOf(err), "error: %v", err)
}
