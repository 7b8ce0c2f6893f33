package models

import (
	"fmt"
	"strings"
	"time"
)

// Tournament is only modelled as far as join requests need it: its id and
// the organizer who created it.
type Tournament struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// ParseJoinRequestStatus rejects anything that is not a known join request status.
func ParseJoinRequestStatus(raw string) (JoinRequestStatus, error) {
	switch JoinRequestStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case JoinRequestPending:
		return JoinRequestPending, nil
	case JoinRequestAccepted:
		return JoinRequestAccepted, nil
	case JoinRequestRejected:
		return JoinRequestRejected, nil
	default:
		return "", fmt.Errorf("unknown join request status %q", raw)
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s JoinRequestStatus) IsTerminal() bool {
	switch s {
	case JoinRequestAccepted, JoinRequestRejected:
		return true
	case JoinRequestPending:
		return false
	default:
		return false
	}
}

// JoinAction is the organizer's decision on a pending join request.
type JoinAction string

const (
	JoinActionAccept JoinAction = "accept"
	JoinActionReject JoinAction = "reject"
)

func ParseJoinAction(raw string) (JoinAction, error) {
	switch JoinAction(strings.ToLower(strings.TrimSpace(raw))) {
	case JoinActionAccept:
		return JoinActionAccept, nil
	case JoinActionReject:
		return JoinActionReject, nil
	default:
		return "", fmt.Errorf("action must be %q or %q", JoinActionAccept, JoinActionReject)
	}
}

// Status maps an action to the terminal status it writes.
func (a JoinAction) Status() (JoinRequestStatus, error) {
	switch a {
	case JoinActionAccept:
		return JoinRequestAccepted, nil
	case JoinActionReject:
		return JoinRequestRejected, nil
	default:
		return "", fmt.Errorf("unknown join action %q", string(a))
	}
}

// JoinRequest is a user's request to take part in a tournament
type JoinRequest struct {
	ID           string            `json:"id" db:"id"`
	TournamentID string            `json:"tournament_id" db:"tournament_id"`
	UserID       string            `json:"user_id" db:"user_id"`
	Status       JoinRequestStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}
