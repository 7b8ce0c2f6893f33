package models

import (
	"encoding/json"
	"time"
)

// NotificationKind names the lifecycle event a notification was raised for.
type NotificationKind string

const (
	KindInvitationCreated   NotificationKind = "team.invitation.created"
	KindInvitationAccepted  NotificationKind = "team.invitation.accepted"
	KindInvitationRejected  NotificationKind = "team.invitation.rejected"
	KindMemberRemoved       NotificationKind = "team.member.removed"
	KindJoinRequestCreated  NotificationKind = "tournament.join_request.created"
	KindJoinRequestAccepted NotificationKind = "tournament.join_request.accepted"
	KindJoinRequestRejected NotificationKind = "tournament.join_request.rejected"
)

// Notification is one in-app inbox item. IsRead only ever goes false -> true.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Payload   json.RawMessage  `json:"payload" db:"payload"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
