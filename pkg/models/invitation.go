package models

import (
	"fmt"
	"strings"
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

// ParseInvitationStatus rejects anything that is not a known invitation status.
func ParseInvitationStatus(raw string) (InvitationStatus, error) {
	switch InvitationStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case InvitationPending:
		return InvitationPending, nil
	case InvitationAccepted:
		return InvitationAccepted, nil
	case InvitationRejected:
		return InvitationRejected, nil
	default:
		return "", fmt.Errorf("unknown invitation status %q", raw)
	}
}

// ParseInvitationDecision accepts only the terminal statuses an invited user
// may answer with.
func ParseInvitationDecision(raw string) (InvitationStatus, error) {
	status, err := ParseInvitationStatus(raw)
	if err != nil {
		return "", err
	}
	if !status.IsTerminal() {
		return "", fmt.Errorf("invitation decision must be %s or %s", InvitationAccepted, InvitationRejected)
	}
	return status, nil
}

// IsTerminal reports whether no further transition is allowed from s.
func (s InvitationStatus) IsTerminal() bool {
	switch s {
	case InvitationAccepted, InvitationRejected:
		return true
	case InvitationPending:
		return false
	default:
		return false
	}
}

// TeamInvitation is a captain-issued offer of membership to one user
type TeamInvitation struct {
	ID            string           `json:"id" db:"id"`
	TeamID        string           `json:"team_id" db:"team_id"`
	InvitedUserID string           `json:"invited_user_id" db:"invited_user_id"`
	InvitedBy     string           `json:"invited_by" db:"invited_by"`
	Status        InvitationStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}
