package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Found a team, invite, accept.
func TestInviteAndAccept(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team, err := f.svc.Teams.CreateTeam(ctx, captain, "Falcons", "FLC")
		require.NoError(t, err)

		inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationPending, inv.Status)
		assert.Equal(t, captain.UserID, inv.InvitedBy)
		assert.Equal(t, []models.NotificationKind{models.KindInvitationCreated}, f.recorder.Kinds(member.UserID))

		mine, err := f.svc.Invitations.ListMine(ctx, member)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, inv.ID, mine[0].ID)

		accepted, err := f.svc.Invitations.Respond(ctx, member, inv.ID, models.InvitationAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationAccepted, accepted.Status)

		m, err := f.db.GetMember(ctx, team.ID, member.UserID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleMember, m.Role)
		assert.Equal(t, 1, f.captainCount(t, team.ID))
		assert.Equal(t, []models.NotificationKind{models.KindInvitationAccepted}, f.recorder.Kinds(captain.UserID))

		mine, err = f.svc.Invitations.ListMine(ctx, member)
		require.NoError(t, err)
		assert.Empty(t, mine)
	})
}

func TestRejectCreatesNoMembership(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team, err := f.svc.Teams.CreateTeam(ctx, captain, "Falcons", "")
		require.NoError(t, err)
		inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
		require.NoError(t, err)

		rejected, err := f.svc.Invitations.Respond(ctx, member, inv.ID, models.InvitationRejected)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationRejected, rejected.Status)

		_, err = f.db.GetMember(ctx, team.ID, member.UserID)
		assert.Error(t, err)
		assert.Equal(t, []models.NotificationKind{models.KindInvitationRejected}, f.recorder.Kinds(captain.UserID))
	})
}

func TestCreateInvitationRules(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team := f.teamWithMember(t)

		_, err := f.svc.Invitations.Create(ctx, member, team.ID, outsider.UserID)
		assertKind(t, err, errs.KindForbidden)
		_, err = f.svc.Invitations.Create(ctx, outsider, team.ID, "someone")
		assertKind(t, err, errs.KindForbidden)
		_, err = f.svc.Invitations.Create(ctx, captain, "missing-team", outsider.UserID)
		assertKind(t, err, errs.KindForbidden)
		_, err = f.svc.Invitations.Create(ctx, captain, team.ID, "  ")
		assertKind(t, err, errs.KindInvalid)

		_, err = f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
		assertKind(t, err, errs.KindConflict)
		_, err = f.svc.Invitations.Create(ctx, captain, team.ID, captain.UserID)
		assertKind(t, err, errs.KindConflict)

		_, err = f.svc.Invitations.Create(ctx, captain, team.ID, outsider.UserID)
		require.NoError(t, err)
		_, err = f.svc.Invitations.Create(ctx, captain, team.ID, outsider.UserID)
		assertKind(t, err, errs.KindConflict)
	})
}

func TestRespondRules(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team, err := f.svc.Teams.CreateTeam(ctx, captain, "Falcons", "")
		require.NoError(t, err)
		inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
		require.NoError(t, err)

		_, err = f.svc.Invitations.Respond(ctx, member, inv.ID, models.InvitationPending)
		assertKind(t, err, errs.KindInvalid)
		_, err = f.svc.Invitations.Respond(ctx, outsider, inv.ID, models.InvitationAccepted)
		assertKind(t, err, errs.KindNotFound)
		_, err = f.svc.Invitations.Respond(ctx, captain, inv.ID, models.InvitationAccepted)
		assertKind(t, err, errs.KindNotFound)
		_, err = f.svc.Invitations.Respond(ctx, member, "missing", models.InvitationAccepted)
		assertKind(t, err, errs.KindNotFound)

		got, err := f.db.GetInvitation(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationPending, got.Status)
	})
}

func TestTerminalInvitationIsWriteOnce(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team, err := f.svc.Teams.CreateTeam(ctx, captain, "Falcons", "")
		require.NoError(t, err)
		inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
		require.NoError(t, err)

		_, err = f.svc.Invitations.Respond(ctx, member, inv.ID, models.InvitationRejected)
		require.NoError(t, err)

		_, err = f.svc.Invitations.Respond(ctx, member, inv.ID, models.InvitationAccepted)
		assertKind(t, err, errs.KindNotFound)
		assertKind(t, f.svc.Invitations.Cancel(ctx, captain, team.ID, inv.ID), errs.KindNotFound)

		got, err := f.db.GetInvitation(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationRejected, got.Status)
		_, err = f.db.GetMember(ctx, team.ID, member.UserID)
		assert.Error(t, err)
	})
}

func TestCancelInvitation(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team := f.teamWithMember(t)
		other, err := f.svc.Teams.CreateTeam(ctx, outsider, "Hawks", "")
		require.NoError(t, err)

		inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, player.UserID)
		require.NoError(t, err)

		assertKind(t, f.svc.Invitations.Cancel(ctx, member, team.ID, inv.ID), errs.KindForbidden)
		assertKind(t, f.svc.Invitations.Cancel(ctx, outsider, other.ID, inv.ID), errs.KindNotFound)
		assertKind(t, f.svc.Invitations.Cancel(ctx, captain, team.ID, "missing"), errs.KindNotFound)

		require.NoError(t, f.svc.Invitations.Cancel(ctx, captain, team.ID, inv.ID))
		assertKind(t, f.svc.Invitations.Cancel(ctx, captain, team.ID, inv.ID), errs.KindNotFound)

		_, err = f.svc.Invitations.Respond(ctx, player, inv.ID, models.InvitationAccepted)
		assertKind(t, err, errs.KindNotFound)

		mine, err := f.svc.Invitations.ListMine(ctx, player)
		require.NoError(t, err)
		assert.Empty(t, mine)
	})
}

func TestConcurrentRespondResolvesOnce(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		team, err := f.svc.Teams.CreateTeam(ctx, captain, "Falcons", "")
		require.NoError(t, err)
		inv, err := f.svc.Invitations.Create(ctx, captain, team.ID, member.UserID)
		require.NoError(t, err)

		var wins atomic.Int32
		var g errgroup.Group
		for i := 0; i < 10; i++ {
			decision := models.InvitationAccepted
			if i%2 == 1 {
				decision = models.InvitationRejected
			}
			g.Go(func() error {
				_, err := f.svc.Invitations.Respond(ctx, member, inv.ID, decision)
				if err == nil {
					wins.Add(1)
					return nil
				}
				if errs.KindOf(err) == errs.KindNotFound {
					return nil
				}
				return errors.New("unexpected error: " + err.Error())
			})
		}
		require.NoError(t, g.Wait())
		assert.EqualValues(t, 1, wins.Load())

		got, err := f.db.GetInvitation(ctx, inv.ID)
		require.NoError(t, err)
		members, err := f.db.ListMembers(ctx, team.ID)
		require.NoError(t, err)

		// accepted and membership hold together or not at all
		switch got.Status {
		case models.InvitationAccepted:
			assert.Len(t, members, 2)
		case models.InvitationRejected:
			assert.Len(t, members, 1)
		default:
			t.Fatalf("invitation left in status %s", got.Status)
		}
		assert.Equal(t, 1, f.captainCount(t, team.ID))
	})
}
