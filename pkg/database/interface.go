package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
)

// DefaultNotificationLimit caps notification listings when the caller does
// not pass a positive limit.
const DefaultNotificationLimit = 50

var (
	// ErrNotFound indicates no row matched, including conditional writes whose
	// guard (status, role) no longer holds.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write violated a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// TeamRepository stores teams and their membership rows.
type TeamRepository interface {
	// CreateTeam inserts the team and the captain row in one transaction.
	CreateTeam(ctx context.Context, team *models.Team, captainID string) error
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	GetMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error)
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
	// DeleteMember removes a MEMBER row. Captain rows are never matched.
	DeleteMember(ctx context.Context, teamID, userID string) error
}

// InvitationRepository stores team invitations.
type InvitationRepository interface {
	// CreateInvitation returns ErrConflict if a PENDING invitation already
	// exists for the same team and user.
	CreateInvitation(ctx context.Context, inv *models.TeamInvitation) error
	GetInvitation(ctx context.Context, invitationID string) (*models.TeamInvitation, error)
	ListPendingInvitationsByUser(ctx context.Context, userID string) ([]models.TeamInvitation, error)
	// DeletePendingInvitation hard-deletes the invitation only while it is
	// PENDING and belongs to teamID.
	DeletePendingInvitation(ctx context.Context, teamID, invitationID string) error
	// ResolveInvitation moves a PENDING invitation addressed to userID to a
	// terminal status. For ACCEPTED the MEMBER row is inserted in the same
	// transaction. ErrNotFound when the guard fails, ErrConflict when the
	// membership insert does.
	ResolveInvitation(ctx context.Context, invitationID, userID string, status models.InvitationStatus) (*models.TeamInvitation, error)
}

// TournamentRepository exposes the tournament fields join requests depend on.
type TournamentRepository interface {
	CreateTournament(ctx context.Context, t *models.Tournament) error
	GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
}

// JoinRequestRepository stores tournament join requests.
type JoinRequestRepository interface {
	// CreateJoinRequest returns ErrConflict if a pending request already exists
	// for the same tournament and user.
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error
	GetJoinRequest(ctx context.Context, requestID string) (*models.JoinRequest, error)
	// GetLatestJoinRequest returns the most recent request of userID for the
	// tournament, or ErrNotFound.
	GetLatestJoinRequest(ctx context.Context, tournamentID, userID string) (*models.JoinRequest, error)
	ListJoinRequests(ctx context.Context, tournamentID string) ([]models.JoinRequest, error)
	// ResolveJoinRequest moves a pending request of the tournament to a
	// terminal status; ErrNotFound when no pending row matches.
	ResolveJoinRequest(ctx context.Context, tournamentID, requestID string, status models.JoinRequestStatus) (*models.JoinRequest, error)
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (*models.Notification, error)
}

// DatabaseInterface is the full persistence surface of the service.
type DatabaseInterface interface {
	TeamRepository
	InvitationRepository
	TournamentRepository
	JoinRequestRepository
	NotificationRepository

	HealthCheck(ctx context.Context) error
	Close() error
}

// DatabaseConfig selects and configures a backend
type DatabaseConfig struct {
	Driver      string // "memory", "sqlite" or "postgres"
	PostgresDSN string
	SQLitePath  string
}

// NewDatabase opens the backend named by config.Driver.
func NewDatabase(ctx context.Context, config DatabaseConfig) (DatabaseInterface, error) {
	switch strings.ToLower(strings.TrimSpace(config.Driver)) {
	case "", "memory":
		return NewMemoryDatabase(), nil
	case "sqlite":
		db, err := NewSQLiteDatabase(ctx, config.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres", "postgresql":
		db, err := NewPostgresDatabase(ctx, config.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}
