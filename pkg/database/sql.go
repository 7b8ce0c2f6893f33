package database

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// sqlStore implements every repository over database/sql. Queries are
// written with ? placeholders and rebound for drivers that number them.
type sqlStore struct {
	db       *sql.DB
	numbered bool
	isUnique func(error) bool
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *sqlStore) q(query string) string {
	if !s.numbered {
		return query
	}
	return rebind(query)
}

// rebind turns ? placeholders into $1..$n
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) writeErr(op string, err error) error {
	if s.isUnique != nil && s.isUnique(err) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func readErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

// HealthCheck pings the database
func (s *sqlStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// ================= Teams & Members =================

func (s *sqlStore) CreateTeam(ctx context.Context, team *models.Team, captainID string) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, s.q(`
        INSERT INTO teams (id, name, tag, created_at)
        VALUES (?, ?, ?, ?)
    `), team.ID, team.Name, team.Tag, toMillis(team.CreatedAt)); err != nil {
		return s.writeErr("create team", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`
        INSERT INTO team_members (team_id, user_id, role, joined_at)
        VALUES (?, ?, ?, ?)
    `), team.ID, captainID, string(models.RoleCaptain), toMillis(team.CreatedAt)); err != nil {
		return s.writeErr("add captain", err)
	}
	return tx.Commit()
}

func (s *sqlStore) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	var t models.Team
	var createdAt int64
	err := s.db.QueryRowContext(ctx, s.q(`
        SELECT id, name, tag, created_at FROM teams WHERE id = ?
    `), teamID).Scan(&t.ID, &t.Name, &t.Tag, &createdAt)
	if err != nil {
		return nil, readErr("get team", err)
	}
	t.CreatedAt = fromMillis(createdAt)
	return &t, nil
}

func scanMember(row rowScanner) (*models.TeamMember, error) {
	var m models.TeamMember
	var role string
	var joinedAt int64
	if err := row.Scan(&m.TeamID, &m.UserID, &role, &joinedAt); err != nil {
		return nil, err
	}
	parsed, err := models.ParseMemberRole(role)
	if err != nil {
		return nil, err
	}
	m.Role = parsed
	m.JoinedAt = fromMillis(joinedAt)
	return &m, nil
}

func (s *sqlStore) GetMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
        SELECT team_id, user_id, role, joined_at
        FROM team_members
        WHERE team_id = ? AND user_id = ?
    `), teamID, userID)
	m, err := scanMember(row)
	if err != nil {
		return nil, readErr("get member", err)
	}
	return m, nil
}

func (s *sqlStore) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
        SELECT team_id, user_id, role, joined_at
        FROM team_members
        WHERE team_id = ?
        ORDER BY joined_at ASC, user_id ASC
    `), teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()
	result := []models.TeamMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (s *sqlStore) DeleteMember(ctx context.Context, teamID, userID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
        DELETE FROM team_members
        WHERE team_id = ? AND user_id = ? AND role = ?
    `), teamID, userID, string(models.RoleMember))
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ================= Invitations =================

const invitationColumns = `id, team_id, invited_user_id, invited_by, status, created_at, updated_at`

func scanInvitation(row rowScanner) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&inv.ID, &inv.TeamID, &inv.InvitedUserID, &inv.InvitedBy, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := models.ParseInvitationStatus(status)
	if err != nil {
		return nil, err
	}
	inv.Status = parsed
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return &inv, nil
}

func (s *sqlStore) CreateInvitation(ctx context.Context, inv *models.TeamInvitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	inv.UpdatedAt = inv.CreatedAt
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO team_invitations (`+invitationColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `), inv.ID, inv.TeamID, inv.InvitedUserID, inv.InvitedBy, string(inv.Status), toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt))
	if err != nil {
		return s.writeErr("create invitation", err)
	}
	return nil
}

func (s *sqlStore) GetInvitation(ctx context.Context, invitationID string) (*models.TeamInvitation, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
        SELECT `+invitationColumns+` FROM team_invitations WHERE id = ?
    `), invitationID)
	inv, err := scanInvitation(row)
	if err != nil {
		return nil, readErr("get invitation", err)
	}
	return inv, nil
}

func (s *sqlStore) ListPendingInvitationsByUser(ctx context.Context, userID string) ([]models.TeamInvitation, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
        SELECT `+invitationColumns+`
        FROM team_invitations
        WHERE invited_user_id = ? AND status = ?
        ORDER BY created_at DESC, id DESC
    `), userID, string(models.InvitationPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()
	result := []models.TeamInvitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

func (s *sqlStore) DeletePendingInvitation(ctx context.Context, teamID, invitationID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
        DELETE FROM team_invitations
        WHERE id = ? AND team_id = ? AND status = ?
    `), invitationID, teamID, string(models.InvitationPending))
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) ResolveInvitation(ctx context.Context, invitationID, userID string, status models.InvitationStatus) (*models.TeamInvitation, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve invitation to %q", status)
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	// The status guard is what makes concurrent responses race safely: the
	// loser's UPDATE matches no row once the winner has committed.
	row := tx.QueryRowContext(ctx, s.q(`
        UPDATE team_invitations
        SET status = ?, updated_at = ?
        WHERE id = ? AND invited_user_id = ? AND status = ?
        RETURNING `+invitationColumns+`
    `), string(status), toMillis(now), invitationID, userID, string(models.InvitationPending))
	inv, err := scanInvitation(row)
	if err != nil {
		return nil, readErr("resolve invitation", err)
	}

	switch status {
	case models.InvitationAccepted:
		if _, err := tx.ExecContext(ctx, s.q(`
            INSERT INTO team_members (team_id, user_id, role, joined_at)
            VALUES (?, ?, ?, ?)
        `), inv.TeamID, userID, string(models.RoleMember), toMillis(now)); err != nil {
			return nil, s.writeErr("add member", err)
		}
	case models.InvitationRejected:
	default:
		return nil, fmt.Errorf("cannot resolve invitation to %q", status)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation response: %w", err)
	}
	return inv, nil
}

// ================= Tournaments & Join Requests =================

func (s *sqlStore) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO tournaments (id, name, created_by, created_at)
        VALUES (?, ?, ?, ?)
    `), t.ID, t.Name, t.CreatedBy, toMillis(t.CreatedAt))
	if err != nil {
		return s.writeErr("create tournament", err)
	}
	return nil
}

func (s *sqlStore) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	var t models.Tournament
	var createdAt int64
	err := s.db.QueryRowContext(ctx, s.q(`
        SELECT id, name, created_by, created_at FROM tournaments WHERE id = ?
    `), tournamentID).Scan(&t.ID, &t.Name, &t.CreatedBy, &createdAt)
	if err != nil {
		return nil, readErr("get tournament", err)
	}
	t.CreatedAt = fromMillis(createdAt)
	return &t, nil
}

const joinRequestColumns = `id, tournament_id, user_id, status, created_at, updated_at`

func scanJoinRequest(row rowScanner) (*models.JoinRequest, error) {
	var req models.JoinRequest
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&req.ID, &req.TournamentID, &req.UserID, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := models.ParseJoinRequestStatus(status)
	if err != nil {
		return nil, err
	}
	req.Status = parsed
	req.CreatedAt = fromMillis(createdAt)
	req.UpdatedAt = fromMillis(updatedAt)
	return &req, nil
}

func (s *sqlStore) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO join_requests (`+joinRequestColumns+`)
        VALUES (?, ?, ?, ?, ?, ?)
    `), req.ID, req.TournamentID, req.UserID, string(req.Status), toMillis(req.CreatedAt), toMillis(req.UpdatedAt))
	if err != nil {
		return s.writeErr("create join request", err)
	}
	return nil
}

func (s *sqlStore) GetJoinRequest(ctx context.Context, requestID string) (*models.JoinRequest, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
        SELECT `+joinRequestColumns+` FROM join_requests WHERE id = ?
    `), requestID)
	req, err := scanJoinRequest(row)
	if err != nil {
		return nil, readErr("get join request", err)
	}
	return req, nil
}

func (s *sqlStore) GetLatestJoinRequest(ctx context.Context, tournamentID, userID string) (*models.JoinRequest, error) {
	// A pending request is always the newest one: a new request can only be
	// created once the previous one is terminal.
	row := s.db.QueryRowContext(ctx, s.q(`
        SELECT `+joinRequestColumns+`
        FROM join_requests
        WHERE tournament_id = ? AND user_id = ?
        ORDER BY CASE WHEN status = ? THEN 0 ELSE 1 END, created_at DESC, updated_at DESC
        LIMIT 1
    `), tournamentID, userID, string(models.JoinRequestPending))
	req, err := scanJoinRequest(row)
	if err != nil {
		return nil, readErr("get latest join request", err)
	}
	return req, nil
}

func (s *sqlStore) ListJoinRequests(ctx context.Context, tournamentID string) ([]models.JoinRequest, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
        SELECT `+joinRequestColumns+`
        FROM join_requests
        WHERE tournament_id = ?
        ORDER BY created_at DESC, id DESC
    `), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()
	result := []models.JoinRequest{}
	for rows.Next() {
		req, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (s *sqlStore) ResolveJoinRequest(ctx context.Context, tournamentID, requestID string, status models.JoinRequestStatus) (*models.JoinRequest, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve join request to %q", status)
	}
	row := s.db.QueryRowContext(ctx, s.q(`
        UPDATE join_requests
        SET status = ?, updated_at = ?
        WHERE id = ? AND tournament_id = ? AND status = ?
        RETURNING `+joinRequestColumns+`
    `), string(status), toMillis(time.Now()), requestID, tournamentID, string(models.JoinRequestPending))
	req, err := scanJoinRequest(row)
	if err != nil {
		return nil, readErr("resolve join request", err)
	}
	return req, nil
}

// ================= Notifications =================

const notificationColumns = `id, user_id, kind, payload, is_read, created_at`

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var kind, payload string
	var createdAt int64
	if err := row.Scan(&n.ID, &n.UserID, &kind, &payload, &n.IsRead, &createdAt); err != nil {
		return nil, err
	}
	n.Kind = models.NotificationKind(kind)
	n.Payload = json.RawMessage(payload)
	n.CreatedAt = fromMillis(createdAt)
	return &n, nil
}

func (s *sqlStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	payload := string(n.Payload)
	if strings.TrimSpace(payload) == "" {
		payload = "{}"
	}
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO notifications (`+notificationColumns+`)
        VALUES (?, ?, ?, ?, ?, ?)
    `), n.ID, n.UserID, string(n.Kind), payload, n.IsRead, toMillis(n.CreatedAt))
	if err != nil {
		return s.writeErr("create notification", err)
	}
	return nil
}

func (s *sqlStore) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
        SELECT `+notificationColumns+`
        FROM notifications
        WHERE user_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()
	result := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (s *sqlStore) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
        UPDATE notifications
        SET is_read = ?
        WHERE id = ? AND user_id = ?
        RETURNING `+notificationColumns+`
    `), true, notificationID, userID)
	n, err := scanNotification(row)
	if err != nil {
		return nil, readErr("mark notification read", err)
	}
	return n, nil
}
