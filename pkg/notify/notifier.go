// Package notify delivers lifecycle events to the users they concern.
// Delivery is best effort: a Notifier never reports failure to its caller,
// and callers only notify after their own write has committed.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
)

// Notifier sends one event to one user.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind models.NotificationKind, payload interface{})
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, string, models.NotificationKind, interface{}) {}

// Multi forwards each event to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID string, kind models.NotificationKind, payload interface{}) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, userID, kind, payload)
		}
	}
}

func encodePayload(payload interface{}) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		return p, nil
	}
	return json.Marshal(payload)
}

// Sent is one event captured by a Recorder.
type Sent struct {
	UserID  string
	Kind    models.NotificationKind
	Payload json.RawMessage
}

// Recorder keeps every event in memory. It backs tests and local runs
// without a broker.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

func (r *Recorder) Notify(_ context.Context, userID string, kind models.NotificationKind, payload interface{}) {
	body, err := encodePayload(payload)
	if err != nil {
		body = json.RawMessage(`{}`)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{UserID: userID, Kind: kind, Payload: body})
}

// Sent returns a copy of the recorded events.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Kinds lists the recorded event kinds for userID, oldest first.
func (r *Recorder) Kinds(userID string) []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []models.NotificationKind
	for _, s := range r.sent {
		if s.UserID == userID {
			kinds = append(kinds, s.Kind)
		}
	}
	return kinds
}
