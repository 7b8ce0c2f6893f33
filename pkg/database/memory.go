package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	"github.com/google/uuid"
)

// MemoryDatabase keeps everything in process memory. It is used for local
// development and tests; every method holds one mutex so the conditional
// writes behave like the SQL backends under concurrency.
type MemoryDatabase struct {
	mu sync.Mutex

	seq           int64
	teams         map[string]models.Team
	members       map[memberKey]memberRow
	invitations   map[string]invitationRow
	tournaments   map[string]models.Tournament
	joinRequests  map[string]joinRequestRow
	notifications map[string]notificationRow
}

type memberKey struct {
	teamID string
	userID string
}

type memberRow struct {
	models.TeamMember
	seq int64
}

type invitationRow struct {
	models.TeamInvitation
	seq int64
}

type joinRequestRow struct {
	models.JoinRequest
	seq int64
}

type notificationRow struct {
	models.Notification
	seq int64
}

// NewMemoryDatabase returns an empty in-memory backend.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		teams:         make(map[string]models.Team),
		members:       make(map[memberKey]memberRow),
		invitations:   make(map[string]invitationRow),
		tournaments:   make(map[string]models.Tournament),
		joinRequests:  make(map[string]joinRequestRow),
		notifications: make(map[string]notificationRow),
	}
}

func (db *MemoryDatabase) next() int64 {
	db.seq++
	return db.seq
}

// HealthCheck always succeeds unless the context is done.
func (db *MemoryDatabase) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (db *MemoryDatabase) Close() error {
	return nil
}

// ================= Teams & Members =================

func (db *MemoryDatabase) CreateTeam(ctx context.Context, team *models.Team, captainID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	if _, exists := db.teams[team.ID]; exists {
		return fmt.Errorf("create team: %w", ErrConflict)
	}
	db.teams[team.ID] = *team
	db.members[memberKey{team.ID, captainID}] = memberRow{
		TeamMember: models.TeamMember{
			TeamID:   team.ID,
			UserID:   captainID,
			Role:     models.RoleCaptain,
			JoinedAt: team.CreatedAt,
		},
		seq: db.next(),
	}
	return nil
}

func (db *MemoryDatabase) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	team, ok := db.teams[teamID]
	if !ok {
		return nil, ErrNotFound
	}
	return &team, nil
}

func (db *MemoryDatabase) GetMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.members[memberKey{teamID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	m := row.TeamMember
	return &m, nil
}

func (db *MemoryDatabase) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	rows := make([]memberRow, 0)
	for key, row := range db.members {
		if key.teamID == teamID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	result := make([]models.TeamMember, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.TeamMember)
	}
	return result, nil
}

func (db *MemoryDatabase) DeleteMember(ctx context.Context, teamID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	key := memberKey{teamID, userID}
	row, ok := db.members[key]
	if !ok || row.Role != models.RoleMember {
		return ErrNotFound
	}
	delete(db.members, key)
	return nil
}

// ================= Invitations =================

func (db *MemoryDatabase) CreateInvitation(ctx context.Context, inv *models.TeamInvitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	inv.UpdatedAt = inv.CreatedAt
	if _, exists := db.invitations[inv.ID]; exists {
		return fmt.Errorf("create invitation: %w", ErrConflict)
	}
	if inv.Status == models.InvitationPending {
		for _, row := range db.invitations {
			if row.TeamID == inv.TeamID && row.InvitedUserID == inv.InvitedUserID && row.Status == models.InvitationPending {
				return fmt.Errorf("create invitation: %w", ErrConflict)
			}
		}
	}
	db.invitations[inv.ID] = invitationRow{TeamInvitation: *inv, seq: db.next()}
	return nil
}

func (db *MemoryDatabase) GetInvitation(ctx context.Context, invitationID string) (*models.TeamInvitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.invitations[invitationID]
	if !ok {
		return nil, ErrNotFound
	}
	inv := row.TeamInvitation
	return &inv, nil
}

func (db *MemoryDatabase) ListPendingInvitationsByUser(ctx context.Context, userID string) ([]models.TeamInvitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	rows := make([]invitationRow, 0)
	for _, row := range db.invitations {
		if row.InvitedUserID == userID && row.Status == models.InvitationPending {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	result := make([]models.TeamInvitation, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.TeamInvitation)
	}
	return result, nil
}

func (db *MemoryDatabase) DeletePendingInvitation(ctx context.Context, teamID, invitationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.invitations[invitationID]
	if !ok || row.TeamID != teamID || row.Status != models.InvitationPending {
		return ErrNotFound
	}
	delete(db.invitations, invitationID)
	return nil
}

func (db *MemoryDatabase) ResolveInvitation(ctx context.Context, invitationID, userID string, status models.InvitationStatus) (*models.TeamInvitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve invitation to %q", status)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.invitations[invitationID]
	if !ok || row.InvitedUserID != userID || row.Status != models.InvitationPending {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	if status == models.InvitationAccepted {
		key := memberKey{row.TeamID, userID}
		if _, exists := db.members[key]; exists {
			return nil, fmt.Errorf("add member: %w", ErrConflict)
		}
		db.members[key] = memberRow{
			TeamMember: models.TeamMember{
				TeamID:   row.TeamID,
				UserID:   userID,
				Role:     models.RoleMember,
				JoinedAt: now,
			},
			seq: db.next(),
		}
	}
	row.Status = status
	row.UpdatedAt = now
	db.invitations[invitationID] = row

	inv := row.TeamInvitation
	return &inv, nil
}

// ================= Tournaments & Join Requests =================

func (db *MemoryDatabase) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if _, exists := db.tournaments[t.ID]; exists {
		return fmt.Errorf("create tournament: %w", ErrConflict)
	}
	db.tournaments[t.ID] = *t
	return nil
}

func (db *MemoryDatabase) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tournaments[tournamentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (db *MemoryDatabase) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	if _, exists := db.joinRequests[req.ID]; exists {
		return fmt.Errorf("create join request: %w", ErrConflict)
	}
	if req.Status == models.JoinRequestPending {
		for _, row := range db.joinRequests {
			if row.TournamentID == req.TournamentID && row.UserID == req.UserID && row.Status == models.JoinRequestPending {
				return fmt.Errorf("create join request: %w", ErrConflict)
			}
		}
	}
	db.joinRequests[req.ID] = joinRequestRow{JoinRequest: *req, seq: db.next()}
	return nil
}

func (db *MemoryDatabase) GetJoinRequest(ctx context.Context, requestID string) (*models.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.joinRequests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	req := row.JoinRequest
	return &req, nil
}

func (db *MemoryDatabase) GetLatestJoinRequest(ctx context.Context, tournamentID, userID string) (*models.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *joinRequestRow
	for _, row := range db.joinRequests {
		if row.TournamentID != tournamentID || row.UserID != userID {
			continue
		}
		if latest == nil || row.seq > latest.seq {
			r := row
			latest = &r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	req := latest.JoinRequest
	return &req, nil
}

func (db *MemoryDatabase) ListJoinRequests(ctx context.Context, tournamentID string) ([]models.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	rows := make([]joinRequestRow, 0)
	for _, row := range db.joinRequests {
		if row.TournamentID == tournamentID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	result := make([]models.JoinRequest, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.JoinRequest)
	}
	return result, nil
}

func (db *MemoryDatabase) ResolveJoinRequest(ctx context.Context, tournamentID, requestID string, status models.JoinRequestStatus) (*models.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve join request to %q", status)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.joinRequests[requestID]
	if !ok || row.TournamentID != tournamentID || row.Status != models.JoinRequestPending {
		return nil, ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now().UTC()
	db.joinRequests[requestID] = row

	req := row.JoinRequest
	return &req, nil
}

// ================= Notifications =================

func (db *MemoryDatabase) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if len(n.Payload) == 0 {
		n.Payload = []byte("{}")
	}
	if _, exists := db.notifications[n.ID]; exists {
		return fmt.Errorf("create notification: %w", ErrConflict)
	}
	db.notifications[n.ID] = notificationRow{Notification: *n, seq: db.next()}
	return nil
}

func (db *MemoryDatabase) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	rows := make([]notificationRow, 0)
	for _, row := range db.notifications {
		if row.UserID == userID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	result := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.Notification)
	}
	return result, nil
}

func (db *MemoryDatabase) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	row, ok := db.notifications[notificationID]
	if !ok || row.UserID != userID {
		return nil, ErrNotFound
	}
	row.IsRead = true
	db.notifications[notificationID] = row

	n := row.Notification
	return &n, nil
}
