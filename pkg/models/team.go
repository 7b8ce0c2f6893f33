package models

import (
	"fmt"
	"strings"
	"time"
)

// Team is a named group of users with exactly one captain.
type Team struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Tag       string    `json:"tag,omitempty" db:"tag"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type MemberRole string

const (
	RoleCaptain MemberRole = "CAPTAIN"
	RoleMember  MemberRole = "MEMBER"
)

// ParseMemberRole rejects anything that is not a known membership role.
func ParseMemberRole(raw string) (MemberRole, error) {
	switch MemberRole(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleCaptain:
		return RoleCaptain, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", fmt.Errorf("unknown member role %q", raw)
	}
}

// TeamMember relates a user to a team with a role
type TeamMember struct {
	TeamID   string     `json:"team_id" db:"team_id"`
	UserID   string     `json:"user_id" db:"user_id"`
	Role     MemberRole `json:"role" db:"role"`
	JoinedAt time.Time  `json:"joined_at" db:"joined_at"`
}

// IsCaptain reports whether the membership row is the team's captain row.
func (m *TeamMember) IsCaptain() bool {
	return m != nil && m.Role == RoleCaptain
}
